package grammar

import (
	"regexp"
	"strings"

	"aistep/internal/types"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalizeWhitespace collapses runs of whitespace and trims the ends.
// Per spec.md §4.1 Pass 1: "do not alter word stems or synonyms".
func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// Parser maps a raw instruction string to exactly one Intent,
// deterministically, per spec.md §4.1.
type Parser struct {
	registry *Registry
}

// NewParser returns a Parser over the given registry. The registry is
// sorted lazily on first Parse call (and whenever rules change).
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse implements the two-pass algorithm: Pass 1 on normalised
// whitespace only, Pass 2 on a synonym-normalised rewrite if Pass 1
// yields nothing. Fails with *types.ParseError{Reason: ParseNoMatch} if
// both passes fail.
func (p *Parser) Parse(rawInstruction string) (types.Intent, error) {
	normalized := normalizeWhitespace(rawInstruction)

	if intent, ok := p.tryMatch(normalized); ok {
		return intent, nil
	}

	synonymed := normalizeSynonyms(normalized)
	if intent, ok := p.tryMatch(synonymed); ok {
		return intent, nil
	}

	return types.Intent{}, &types.ParseError{Reason: types.ParseNoMatch, Instruction: rawInstruction}
}

// tryMatch walks the registry in ascending priority order and returns the
// first whole-string match, per spec.md §4.1's first-match-wins contract.
func (p *Parser) tryMatch(instruction string) (types.Intent, bool) {
	if instruction == "" {
		return types.Intent{}, false
	}
	for _, rule := range p.registry.Sorted() {
		names := rule.Pattern.SubexpNames()
		submatches := rule.Pattern.FindStringSubmatch(instruction)
		if submatches == nil {
			continue
		}
		groups := make(map[string]string, len(names))
		for i, name := range names {
			if i == 0 || name == "" {
				continue
			}
			groups[name] = submatches[i]
		}
		match := Match{Instruction: instruction, Groups: groups}

		value, options, err := rule.Extract(match)
		if err != nil {
			// A parse-time type-coercion failure on a matching rule is
			// itself a ParseError, per spec.md §4.1 ("or captured
			// parameter fails type coercion") — but another, lower-
			// priority rule might still match cleanly, so keep scanning
			// rather than failing immediately on the first syntactic hit.
			continue
		}
		if options == nil {
			options = types.Options{}
		}

		intent := types.Intent{
			Kind:              rule.Kind,
			TargetDescription: groups["target"],
			Value:             value,
			Options:           options,
			Raw:               instruction,
		}
		if rule.PageLevel {
			// pageLevel kinds never carry a targetDescription, per
			// spec.md §3's Intent invariant.
			intent.TargetDescription = ""
		}
		return intent, true
	}
	return types.Intent{}, false
}
