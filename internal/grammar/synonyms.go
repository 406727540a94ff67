package grammar

import "regexp"

// synonymRule rewrites a casual phrasing into its canonical equivalent.
// Applied only on Pass 2, after Pass 1 on the raw instruction has failed
// to match anything — per spec.md §4.1's two-pass discipline.
type synonymRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// defaultSynonyms is the closed synonym table spec.md §4.1 describes:
// `tap -> click`, `enter -> type`, `select -> click` only when not
// followed by `from`, etc.
var defaultSynonyms = []synonymRule{
	{regexp.MustCompile(`(?i)\btap\b`), "click"},
	{regexp.MustCompile(`(?i)\bhit\b`), "click"},
	{regexp.MustCompile(`(?i)\bpush\b`), "click"},
	{regexp.MustCompile(`(?i)\benter\b`), "type"},
	{regexp.MustCompile(`(?i)\bfill\b`), "type"},
	{regexp.MustCompile(`(?i)\binput\b`), "type"},
	// "select X from Y" stays intact (choose-from-dropdown construct);
	// only bare "select the X" (no trailing "from") normalises to click.
	// The "from" exception lives in synonymGuards.
	{regexp.MustCompile(`(?i)\bselect\b`), "click"},
	{regexp.MustCompile(`(?i)\bcheck that\b`), "verify"},
	{regexp.MustCompile(`(?i)\bmake sure\b`), "verify"},
	{regexp.MustCompile(`(?i)\bensure\b`), "verify"},
	{regexp.MustCompile(`(?i)\bconfirm\b`), "verify"},
	{regexp.MustCompile(`(?i)\bgo to\b`), "navigate to"},
	{regexp.MustCompile(`(?i)\bvisit\b`), "navigate to"},
	{regexp.MustCompile(`(?i)\bwait for\b`), "wait until"},
}

// synonymGuards holds exceptions that Go's RE2 regexp cannot express as
// lookahead: a synonym rule whose pattern is keyed here is skipped when
// its guard matches the instruction.
var synonymGuards = map[string]*regexp.Regexp{
	`(?i)\bselect\b`:   regexp.MustCompile(`(?i)\bselect\b.*\bfrom\b`),
	`(?i)\bwait for\b`: regexp.MustCompile(`(?i)\bwait for\s+(?:the\s+)?url`),
}

// normalizeSynonyms applies every synonym rule once, in table order, and
// returns the rewritten instruction. The rewritten form, not the original,
// is the one whose captures are used on a subsequent Pass 1 attempt.
func normalizeSynonyms(instruction string) string {
	out := instruction
	for _, s := range defaultSynonyms {
		if guard, ok := synonymGuards[s.pattern.String()]; ok && guard.MatchString(out) {
			continue
		}
		out = s.pattern.ReplaceAllString(out, s.replacement)
	}
	return out
}
