package resolver

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
}

var ordinalNumeric = regexp.MustCompile(`(\d+)(?:st|nd|rd|th)`)

// extractOrdinal parses an explicit ordinal cue ("the first …", "the
// second …", "3rd …") from a target description. "last" is reported as
// -1, meaning "final element", per spec.md §4.2.
func extractOrdinal(desc string) (int, bool) {
	lower := strings.ToLower(desc)
	if strings.Contains(lower, "last ") || strings.HasSuffix(lower, "last") {
		return -1, true
	}
	for word, n := range ordinalWords {
		if strings.Contains(lower, word+" ") {
			return n, true
		}
	}
	if m := ordinalNumeric.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	return 0, false
}

// pickWinner applies spec.md §4.2's disambiguation order when the top
// candidates tie within r.opts.TieTolerance: explicit ordinal, then
// positional/visual cues (not modelled further here — the ladder rungs
// already encode role/attribute/text specificity), then ambiguous.
func (r *Resolver) pickWinner(cands []candidate, description string, hint *HintContext) (candidate, bool) {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].confidence > cands[j].confidence })
	best := cands[0]
	var tied []candidate
	for _, c := range cands {
		if best.confidence-c.confidence <= r.opts.TieTolerance {
			tied = append(tied, c)
		}
	}
	if len(tied) == 1 {
		return best, false
	}

	ordinal, hasOrdinal := 0, false
	if hint != nil && hint.Ordinal != 0 {
		ordinal, hasOrdinal = hint.Ordinal, true
	} else if n, ok := extractOrdinal(description); ok {
		ordinal, hasOrdinal = n, true
	}
	if hasOrdinal {
		if ordinal == -1 {
			return tied[len(tied)-1], false
		}
		if ordinal >= 1 && ordinal <= len(tied) {
			return tied[ordinal-1], false
		}
	}

	// No disambiguator resolved the tie: ambiguous, per spec.md §4.2.
	return candidate{}, true
}
