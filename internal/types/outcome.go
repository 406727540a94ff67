package types

import "time"

// OutcomeStatus is ok|err, as spec.md §3 LearningStore requires.
type OutcomeStatus string

const (
	OutcomeOK  OutcomeStatus = "ok"
	OutcomeErr OutcomeStatus = "err"
)

// Diagnostic is the per-step record the executor emits, per spec.md §4.4
// "Screenshot & diagnostic capture".
type Diagnostic struct {
	StepID             string
	IntentKind         IntentKind
	TargetDescription  string
	ResolveMethod      string
	ResolveConfidence   float64
	HealUsed           bool
	HealStrategy       string
	DurationMs         int64
	Outcome            OutcomeStatus
	ErrorKind          string
	ScreenshotPath     string
	ConsoleLogs        []string
	NetworkRequests    []string
	Timestamp          time.Time
}

// OutcomeRecord is the append-only LearningStore entry, per spec.md §3.
type OutcomeRecord struct {
	ID               string
	TimestampUTC     time.Time
	InstructionText  string
	IntentKind       IntentKind
	ElementDescription string
	StrategyUsed     string // healing strategy name, or "" if none was needed
	Outcome          OutcomeStatus
	Confidence       float64
	DurationMs       int64
	FailureKind      string // only set when Outcome == err
	ElementKind      string // tag/role of the element involved, for per-kind reordering
}
