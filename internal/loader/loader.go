// Package loader implements the Selective Loader / Module Detector of
// spec.md §4.5: before a scenario runs, decide which subsystems
// (browser, http, db, soap) must be instantiated, so that a scenario
// touching only the browser never pays for a DB connection pool it
// never opens.
//
// The matching shape here — a closed table of named patterns, scanned
// in order, first-match-wins per pattern family — follows the
// teacher's internal/shards/matching.go TechnologyPattern ladder,
// repointed from "which specialist handles this file" to "which
// subsystem does this scenario need".
package loader

import (
	"regexp"
	"strings"
)

// Subsystem is one of the lazily-initialised capability groups.
type Subsystem string

const (
	SubsystemBrowser Subsystem = "browser"
	SubsystemHTTP    Subsystem = "http"
	SubsystemDB      Subsystem = "db"
	SubsystemSOAP    Subsystem = "soap"
)

// Mode selects how detection combines explicit tags and step-text patterns.
type Mode string

const (
	ModeExplicit Mode = "explicit"
	ModeAuto     Mode = "auto"
	ModeHybrid   Mode = "hybrid"
)

// tagPattern maps one explicit Gherkin tag to the subsystem it implies.
var tagPattern = map[string]Subsystem{
	"@ui": SubsystemBrowser, "@browser": SubsystemBrowser, "@web": SubsystemBrowser,
	"@api": SubsystemHTTP, "@rest": SubsystemHTTP, "@http": SubsystemHTTP,
	"@database": SubsystemDB, "@db": SubsystemDB, "@sql": SubsystemDB,
	"@soap": SubsystemSOAP, "@wsdl": SubsystemSOAP,
}

// stepPattern is one subsystem's fallback text-matching family, the
// generalised equivalent of a teacher TechnologyPattern entry (minus
// the file/import hints, which have no analogue for a step-text line).
type stepPattern struct {
	subsystem Subsystem
	matchers  []*regexp.Regexp
}

var stepPatterns = []stepPattern{
	{
		subsystem: SubsystemHTTP,
		matchers: compileAll(
			`(?i)\bapi\s+call\b`, `(?i)\bapi\s+response\b`, `(?i)\bhttp\s+(get|post|put|delete|patch)\b`,
			`(?i)\bendpoint\b`, `(?i)\brest\s+(call|request)\b`,
		),
	},
	{
		subsystem: SubsystemDB,
		matchers: compileAll(
			`(?i)\btable\s+(cell|row|column|data)\b`, `(?i)\bdatabase\b`, `(?i)\bquery\s+the\s+db\b`,
			`(?i)\bsql\b`, `(?i)\brow\s+count\b`,
		),
	},
	{
		subsystem: SubsystemSOAP,
		matchers: compileAll(`(?i)\bsoap\b`, `(?i)\bwsdl\b`, `(?i)\bxml\s+envelope\b`),
	},
	{
		subsystem: SubsystemBrowser,
		matchers: compileAll(
			`(?i)\bclick\b`, `(?i)\btype\b`, `(?i)\bbutton\b`, `(?i)\bvisible\b`, `(?i)\bpage\b`,
			`(?i)\bnavigate\b`, `(?i)\bscreenshot\b`, `(?i)\bdropdown\b`, `(?i)\bcookie\b`,
		),
	},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Plan is the Selective Loader's decision for one scenario: the set of
// subsystems that must be instantiated before any step runs.
type Plan struct {
	Subsystems map[Subsystem]bool
}

// Requires reports whether the plan activates s.
func (p Plan) Requires(s Subsystem) bool { return p.Subsystems[s] }

// Options configures detection, per spec.md §4.5.
type Options struct {
	Mode               Mode
	DefaultSubsystem   Subsystem // used when nothing matches at all
	AlwaysLaunchBrowser bool     // BROWSER_ALWAYS_LAUNCH override
}

// DefaultOptions returns spec.md's stated defaults: hybrid mode,
// browser as the no-match fallback.
func DefaultOptions() Options {
	return Options{Mode: ModeHybrid, DefaultSubsystem: SubsystemBrowser}
}

// Detect builds the Plan for one scenario from its tag set and the raw
// text of its steps (pre-parse; detection runs on the instruction text,
// not the parsed Intent, since it must work even for scenarios whose
// steps the grammar hasn't been asked to parse yet).
func Detect(opts Options, tags []string, stepTexts []string) Plan {
	plan := Plan{Subsystems: map[Subsystem]bool{}}

	explicit := explicitSubsystems(tags)
	switch opts.Mode {
	case ModeExplicit:
		for s := range explicit {
			plan.Subsystems[s] = true
		}
	case ModeAuto:
		applyPatterns(&plan, stepTexts)
	default: // ModeHybrid
		if len(explicit) > 0 {
			for s := range explicit {
				plan.Subsystems[s] = true
			}
		} else {
			applyPatterns(&plan, stepTexts)
		}
	}

	if len(plan.Subsystems) == 0 && opts.DefaultSubsystem != "" {
		plan.Subsystems[opts.DefaultSubsystem] = true
	}
	if opts.AlwaysLaunchBrowser {
		plan.Subsystems[SubsystemBrowser] = true
	}
	return plan
}

func explicitSubsystems(tags []string) map[Subsystem]bool {
	out := map[Subsystem]bool{}
	for _, t := range tags {
		if s, ok := tagPattern[strings.ToLower(strings.TrimSpace(t))]; ok {
			out[s] = true
		}
	}
	return out
}

func applyPatterns(plan *Plan, stepTexts []string) {
	for _, text := range stepTexts {
		for _, sp := range stepPatterns {
			if plan.Subsystems[sp.subsystem] {
				continue
			}
			for _, m := range sp.matchers {
				if m.MatchString(text) {
					plan.Subsystems[sp.subsystem] = true
					break
				}
			}
		}
	}
}
