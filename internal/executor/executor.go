// Package executor implements the Action Executor of spec.md §4.4: it
// takes a parsed Intent, resolves a target when one is needed, dispatches
// to the per-intent-kind handler, retries once through the Self-Healing
// Engine on a recoverable failure, and emits a diagnostic record for
// every step — the per-step state machine of spec.md §4.4's diagram.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"aistep/internal/dbcap"
	"aistep/internal/healing"
	"aistep/internal/httpcap"
	"aistep/internal/learning"
	"aistep/internal/logging"
	"aistep/internal/page"
	"aistep/internal/resolver"
	"aistep/internal/types"
	"aistep/internal/varstore"
)

// DiagnosticsSink receives one Diagnostic per executed step, per spec.md
// §4.4's "screenshot & diagnostic capture".
type DiagnosticsSink interface {
	Record(d types.Diagnostic)
}

// RuntimeContext exposes every collaborator a step's handler may need,
// per spec.md §4.4's execute(intent, runtimeCtx) signature. Capabilities
// a given scenario never touches (HTTP, DB) may be left nil; handlers
// that need them return *types.IntegrationError when they find one
// missing, never a nil-pointer panic.
type RuntimeContext struct {
	Page        page.Page
	HTTP        httpcap.Capability
	DB          dbcap.Capability
	Scenario    *varstore.ScenarioContext
	Learning    *learning.Store
	Diagnostics DiagnosticsSink
}

// Options tunes the executor's budgets, per spec.md §4.4/§9.
type Options struct {
	AssertionRetryBudget time.Duration // default 5s
	StepBudget           time.Duration // default 60s, covers resolve+execute+heal
	MaxWaitMs            int           // upper bound for wait-seconds, default 600000
	ScreenshotMode       ScreenshotMode
	NetworkLogLines      int // recent network entries attached on failure, default 5
	ConsoleLogLines      int // recent console entries attached on failure, default 5
}

// ScreenshotMode is the configurable capture policy from spec.md §4.4.
type ScreenshotMode string

const (
	ScreenshotOff       ScreenshotMode = "off"
	ScreenshotOnFailure ScreenshotMode = "on-failure"
	ScreenshotAlways    ScreenshotMode = "always"
)

// DefaultOptions returns spec.md's stated defaults.
func DefaultOptions() Options {
	return Options{
		AssertionRetryBudget: 5 * time.Second,
		StepBudget:           60 * time.Second,
		MaxWaitMs:            600000,
		ScreenshotMode:       ScreenshotOnFailure,
		NetworkLogLines:      5,
		ConsoleLogLines:      5,
	}
}

// Executor drives one step's state machine. It depends on the Element
// Resolver and the Self-Healing Engine, per spec.md §2's leaves-first
// dependency order (executor is the top of the chain).
type Executor struct {
	opts     Options
	resolver *resolver.Resolver
	healer   *healing.Engine
	log      *zap.Logger
}

// New constructs an Executor. res and heal may not be nil; a scenario
// with no page capability still constructs one (page-level-only steps
// never touch the resolver or healer).
func New(opts Options, res *resolver.Resolver, heal *healing.Engine) *Executor {
	if opts.StepBudget == 0 {
		opts = DefaultOptions()
	}
	return &Executor{opts: opts, resolver: res, healer: heal, log: logging.Named(logging.CategoryExecutor)}
}

// Outcome is the executor's per-step return value.
type Outcome struct {
	Status     types.OutcomeStatus
	Err        error
	Diagnostic types.Diagnostic
}

// Execute runs the per-step state machine of spec.md §4.4: Idle (implicit,
// the caller already parsed the intent) → Parsed → {Executing|Resolving}
// → ... → Done/Failed. Executing(retry) is visited at most once.
func (e *Executor) Execute(ctx context.Context, intent types.Intent, rc *RuntimeContext) Outcome {
	ctx, cancel := context.WithTimeout(ctx, e.opts.StepBudget)
	defer cancel()

	start := time.Now()
	diag := types.Diagnostic{
		IntentKind:        intent.Kind,
		TargetDescription: intent.TargetDescription,
		Timestamp:         start,
	}

	var handle *types.ElementHandle
	if !types.IsPageLevel(intent.Kind) {
		res, err := e.resolver.Resolve(ctx, rc.Page, intent.TargetDescription, nil)
		if err != nil {
			// check-exists reports absence as a successful false result, not
			// a step failure — per spec.md §4.4 its contract never fails on
			// a target that genuinely isn't there.
			if intent.Kind == types.KindCheckExists {
				var resolveErr *types.ResolveError
				if errors.As(err, &resolveErr) && resolveErr.Reason == types.ResolveNotFound {
					e.storeIfNeeded(intent, rc, types.BoolValue(false))
					return e.finish(Outcome{Status: types.OutcomeOK}, rc, &diag, start)
				}
			}
			out := e.tryHeal(ctx, intent, rc, nil, err, &diag)
			return e.finish(out, rc, &diag, start)
		}
		diag.ResolveMethod = string(res.Method)
		diag.ResolveConfidence = res.Confidence
		h := res.Handle
		handle = &h
	}

	value, err := e.dispatch(ctx, intent, rc, handle)
	if err != nil {
		out := e.tryHeal(ctx, intent, rc, handle, err, &diag)
		return e.finish(out, rc, &diag, start)
	}
	e.storeIfNeeded(intent, rc, value)
	return e.finish(Outcome{Status: types.OutcomeOK}, rc, &diag, start)
}

// tryHeal enters the Healing branch of the state machine. A successful
// heal re-dispatches exactly once (Executing(retry)); a failure to heal,
// or a non-recoverable original error, lands on Failed.
func (e *Executor) tryHeal(ctx context.Context, intent types.Intent, rc *RuntimeContext, previous *types.ElementHandle, original error, diag *types.Diagnostic) Outcome {
	type recoverable interface{ Recoverable() bool }
	if r, ok := original.(recoverable); !ok || !r.Recoverable() {
		return Outcome{Status: types.OutcomeErr, Err: original}
	}
	failureKind, ok := healing.ClassifyFailure(original)
	if !ok {
		return Outcome{Status: types.OutcomeErr, Err: original}
	}

	hc := &healing.Context{
		TargetDescription: intent.TargetDescription,
		IntentKind:        intent.Kind,
		FailureKind:       failureKind,
		OriginalErr:       original,
		PreviousHandle:    previous,
		Page:              rc.Page,
	}
	healed, err := e.healer.Heal(ctx, hc)
	if err != nil {
		e.log.Warn("healing exhausted", zap.String("target", intent.TargetDescription), zap.Error(err))
		return Outcome{Status: types.OutcomeErr, Err: err}
	}
	e.log.Info("healed", zap.String("target", intent.TargetDescription), zap.String("strategy", healed.Strategy))
	diag.HealUsed = true
	diag.HealStrategy = healed.Strategy

	value, execErr := e.dispatch(ctx, intent, rc, &healed.Handle)
	if execErr != nil {
		return Outcome{Status: types.OutcomeErr, Err: execErr}
	}
	e.storeIfNeeded(intent, rc, value)
	return Outcome{Status: types.OutcomeOK}
}

// finish fills in the timing/outcome fields, records the diagnostic and
// an outcome into the learning store, and attaches the network/console
// tail when the step failed, per spec.md §4.4.
func (e *Executor) finish(out Outcome, rc *RuntimeContext, diag *types.Diagnostic, start time.Time) Outcome {
	diag.DurationMs = time.Since(start).Milliseconds()
	diag.Outcome = out.Status
	if out.Err != nil {
		diag.ErrorKind = fmt.Sprintf("%T", out.Err)
	}
	out.Diagnostic = *diag

	if out.Status == types.OutcomeErr && rc.Page != nil {
		e.attachFailureContext(diag, rc)
	}
	if e.shouldScreenshot(out.Status) && rc.Page != nil {
		if path, err := rc.Page.Screenshot(context.Background(), nil); err == nil {
			diag.ScreenshotPath = path
		}
	}
	if rc.Diagnostics != nil {
		rc.Diagnostics.Record(*diag)
	}
	if rc.Learning != nil {
		_ = rc.Learning.Record(types.OutcomeRecord{
			InstructionText:    intentLabel(diag.IntentKind),
			IntentKind:         diag.IntentKind,
			ElementDescription: diag.TargetDescription,
			StrategyUsed:       diag.HealStrategy,
			Outcome:            out.Status,
			Confidence:         diag.ResolveConfidence,
			DurationMs:         diag.DurationMs,
		})
	}
	return out
}

func (e *Executor) shouldScreenshot(status types.OutcomeStatus) bool {
	switch e.opts.ScreenshotMode {
	case ScreenshotAlways:
		return true
	case ScreenshotOnFailure:
		return status == types.OutcomeErr
	default:
		return false
	}
}

func (e *Executor) attachFailureContext(diag *types.Diagnostic, rc *RuntimeContext) {
	if entries, err := rc.Page.RecentConsole(context.Background(), e.opts.ConsoleLogLines); err == nil {
		for _, c := range entries {
			diag.ConsoleLogs = append(diag.ConsoleLogs, fmt.Sprintf("[%s] %s", c.Level, c.Text))
		}
	}
	if entries, err := rc.Page.RecentNetwork(context.Background(), e.opts.NetworkLogLines); err == nil {
		for _, n := range entries {
			diag.NetworkRequests = append(diag.NetworkRequests, fmt.Sprintf("%s %s -> %d", n.Method, n.URL, n.Status))
		}
	}
}

func intentLabel(k types.IntentKind) string { return string(k) }

// storeIfNeeded writes a query-family or explicitly-stored value into
// ScenarioContext under intent.StoreAs, per spec.md §4.4's query contract.
func (e *Executor) storeIfNeeded(intent types.Intent, rc *RuntimeContext, value types.Value) {
	if intent.StoreAs == "" || rc.Scenario == nil {
		return
	}
	rc.Scenario.Set(intent.StoreAs, toVarstoreValue(value))
}

func toVarstoreValue(v types.Value) varstore.Value {
	switch v.Kind {
	case types.ValueInt:
		return varstore.NumberValue(float64(v.Int))
	case types.ValueFloat:
		return varstore.NumberValue(v.Float)
	case types.ValueBool:
		return varstore.BoolValue(v.Bool)
	case types.ValueJSON:
		return varstore.JSONValue(v.JSONRaw)
	default:
		return varstore.StringValue(v.String())
	}
}
