package varstore

import (
	"os"
	"regexp"
	"strings"

	"aistep/internal/types"
)

// ConfigLookup resolves {config:KEY} references. Configuration is an
// external collaborator (spec.md §6); the interpolator only needs a
// read-only accessor, injected by the caller.
type ConfigLookup func(key string) (string, bool)

// patterns recognised in raw instruction text, per spec.md §3. Order
// matters only in that longer/more specific forms ({{var}}) must not be
// swallowed by the scenario-scope regex; each is matched independently
// against the whole string in a single pass.
var (
	reScenario = regexp.MustCompile(`\{scenario:([A-Za-z0-9_.]+)\}`)
	reFeature  = regexp.MustCompile(`\{feature:([A-Za-z0-9_.]+)\}`)
	reConfig   = regexp.MustCompile(`\{config:([A-Za-z0-9_.]+)\}`)
	reEnv      = regexp.MustCompile(`\{env:([A-Za-z0-9_.]+)\}`)
	reDouble   = regexp.MustCompile(`\{\{([A-Za-z0-9_.]+)\}\}`)
	reDollar   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// Interpolator resolves all recognised reference patterns in raw
// instruction text before grammar matching, per spec.md §3's invariant:
// "interpolation happens before grammar matching".
type Interpolator struct {
	Scenario *ScenarioContext
	Config   ConfigLookup
}

// Interpolate resolves every reference pattern found in text. It fails
// fast, returning a *types.VariableUnresolvedError (not wrapped in a
// types.ParseError) on the first unresolved reference, per spec.md §3's invariant:
// "an unresolved reference fails with VariableUnresolved".
func (in *Interpolator) Interpolate(text string) (string, error) {
	var outerErr error

	replace := func(re *regexp.Regexp, scope string, lookup func(key string) (string, bool)) {
		if outerErr != nil {
			return
		}
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			if outerErr != nil {
				return match
			}
			groups := re.FindStringSubmatch(match)
			key := groups[1]
			val, ok := lookup(key)
			if !ok {
				outerErr = &types.VariableUnresolvedError{Scope: scope, Key: key}
				return match
			}
			return val
		})
	}

	replace(reScenario, "scenario", in.lookupScenario)
	replace(reFeature, "feature", in.lookupFeature)
	replace(reConfig, "config", in.lookupConfig)
	replace(reEnv, "env", in.lookupEnv)
	// Compatibility aliases both resolve to scenario scope.
	replace(reDouble, "scenario", in.lookupScenario)
	replace(reDollar, "scenario", in.lookupScenario)

	if outerErr != nil {
		return "", outerErr
	}
	return text, nil
}

func (in *Interpolator) lookupScenario(key string) (string, bool) {
	if in.Scenario == nil {
		return "", false
	}
	v, ok := in.Scenario.Get(key)
	if !ok {
		return "", false
	}
	return v.String(), true
}

func (in *Interpolator) lookupFeature(key string) (string, bool) {
	if in.Scenario == nil || in.Scenario.Feature() == nil {
		return "", false
	}
	v, ok := in.Scenario.Feature().Get(key)
	if !ok {
		return "", false
	}
	return v.String(), true
}

func (in *Interpolator) lookupConfig(key string) (string, bool) {
	if in.Config == nil {
		return "", false
	}
	return in.Config(key)
}

func (in *Interpolator) lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ExpandOutline substitutes Scenario Outline placeholders (<name>) with
// values from an Examples row, before interpolation and parsing, per
// spec.md §8 "Scenario Outline expansion".
func ExpandOutline(template string, row map[string]string) string {
	out := template
	for k, v := range row {
		out = strings.ReplaceAll(out, "<"+k+">", v)
	}
	return out
}
