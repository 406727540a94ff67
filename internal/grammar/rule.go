// Package grammar implements the deterministic, rule-based intent parser
// described in spec.md §4.1: a two-pass matcher over a priority-ordered
// registry of regex grammar rules, with a closed synonym table for
// casual phrasing. No statistical model, no cloud call — first-match-wins
// by construction.
package grammar

import (
	"regexp"

	"aistep/internal/types"
)

// Match carries the named capture groups of a successful pattern match,
// plus the exact (already-interpolated) instruction text that matched.
type Match struct {
	Instruction string
	Groups      map[string]string
}

// Group returns a named capture, or "" if absent/empty.
func (m Match) Group(name string) string {
	return m.Groups[name]
}

// Extractor coerces a Match's captures into an Intent's typed Value and
// Options. It must be pure: same Match always yields the same result.
type Extractor func(m Match) (types.Value, types.Options, error)

// Rule is a single grammar rule: {pattern, intentKind, paramExtractors,
// priority, pageLevel} per spec.md §3.
type Rule struct {
	Name      string // unique, stable identity for idempotent registration
	Pattern   *regexp.Regexp
	Kind      types.IntentKind
	Priority  int // lower wins; first-match-wins by ascending priority
	PageLevel bool
	Extract   Extractor
}

// mustRule compiles pattern (anchored to match the whole instruction,
// case-insensitive) and returns a Rule. The `(?i)^` prefix and `$` suffix
// are always added here at compile time, so rules are written without
// their own anchors.
func mustRule(name, pattern string, kind types.IntentKind, priority int, pageLevel bool, extract Extractor) Rule {
	re := regexp.MustCompile(`(?i)^` + pattern + `$`)
	return Rule{Name: name, Pattern: re, Kind: kind, Priority: priority, PageLevel: pageLevel, Extract: extract}
}
