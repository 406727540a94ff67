package grammar

import (
	"regexp"
	"strings"

	"aistep/internal/types"
)

// Step is the parsed shape of the CLI wire format from spec.md §6:
//
//	AI "<instruction>"
//	AI "<instruction>" and store as "<name>"
//	AI "<instruction>" with value "<literal>"
//	AI "<instruction>" if "<var>" is "<value>"
type Step struct {
	Instruction  string
	StoreAs      string
	ExplicitValue string
	HasExplicitValue bool
	CondVar      string
	CondValue    string
	HasCondition bool
}

var stepWire = regexp.MustCompile(`(?is)^\s*AI\s+"((?:[^"\\]|\\.)*)"` +
	`(?:\s+and\s+store\s+as\s+"((?:[^"\\]|\\.)*)")?` +
	`(?:\s+with\s+value\s+"((?:[^"\\]|\\.)*)")?` +
	`(?:\s+if\s+"((?:[^"\\]|\\.)*)"\s+is\s+"((?:[^"\\]|\\.)*)")?\s*$`)

// ParseStepText splits a raw `AI "..."` step line into its instruction and
// the three optional clauses, per spec.md §6. Returns false if the text
// does not carry the AI-prefix marker at all (i.e. it is a conventional
// step the core does not own).
func ParseStepText(line string) (Step, bool) {
	m := stepWire.FindStringSubmatch(line)
	if m == nil {
		return Step{}, false
	}
	unescape := func(s string) string { return strings.ReplaceAll(s, `\"`, `"`) }
	step := Step{Instruction: unescape(m[1])}
	if m[2] != "" {
		step.StoreAs = unescape(m[2])
	}
	if m[3] != "" {
		step.ExplicitValue = unescape(m[3])
		step.HasExplicitValue = true
	}
	if m[4] != "" || m[5] != "" {
		step.CondVar = unescape(m[4])
		step.CondValue = unescape(m[5])
		step.HasCondition = true
	}
	return step, true
}

// ConditionHolds evaluates the `if "<var>" is "<value>"` clause against a
// resolved variable value (already interpolated), short-circuiting the
// step when false, per spec.md §6.
func (s Step) ConditionHolds(resolvedVar string) bool {
	if !s.HasCondition {
		return true
	}
	return resolvedVar == s.CondValue
}

// ApplyClauses overlays StoreAs and an explicit injected value onto an
// already-parsed Intent. A missing store-as clause on a query-family
// intent is itself a parse error, per spec.md §4.4 ("a missing store-as
// clause is a parse error").
func ApplyClauses(intent types.Intent, step Step) (types.Intent, error) {
	intent.StoreAs = step.StoreAs
	if step.HasExplicitValue {
		intent.Value = types.StringValue(step.ExplicitValue)
	}
	if family, ok := types.FamilyOf(intent.Kind); ok && family == types.FamilyQuery && intent.StoreAs == "" {
		return intent, &types.ParseError{Reason: types.ParseNoMatch, Instruction: step.Instruction,
			Cause: errMissingStoreAs}
	}
	return intent, nil
}

var errMissingStoreAs = missingStoreAsErr{}

type missingStoreAsErr struct{}

func (missingStoreAsErr) Error() string { return "query intent requires an \"and store as\" clause" }
