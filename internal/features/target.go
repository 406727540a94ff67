package features

import "strings"

// roleHints maps a trailing noun in a target description to the
// accessibility role(s) it most likely names, per spec.md §4.2's
// "role-aware text matching" requirement. Checked longest-phrase-first.
var roleHints = []struct {
	phrase string
	role   string
}{
	{"dropdown", "combobox"},
	{"select", "combobox"},
	{"checkbox", "checkbox"},
	{"radio button", "radio"},
	{"radio", "radio"},
	{"button", "button"},
	{"link", "link"},
	{"heading", "heading"},
	{"tab", "tab"},
	{"menu item", "menuitem"},
	{"menu", "menu"},
	{"field", "textbox"},
	{"input", "textbox"},
	{"textbox", "textbox"},
	{"label", ""},
	{"image", "img"},
	{"icon", "img"},
	{"table", "table"},
	{"row", "row"},
	{"cell", "cell"},
	{"list", "list"},
	{"item", "listitem"},
}

// TargetSignature is the parsed expectation derived from an Intent's
// free-text TargetDescription, used as the "query side" of similarity
// scoring against each candidate ElementFeatures.
type TargetSignature struct {
	Raw          string
	Tokens       []string // all lower-cased words, stopwords included
	ExpectedRole string   // "" if no role keyword was recognised
	NameTokens   []string // non-stopword tokens remaining after the trailing role word is stripped
}

// ParseTargetDescription extracts the expected role and name tokens from
// a description like "the Login button" or "the Username field".
func ParseTargetDescription(desc string) TargetSignature {
	tokens := tokenize(desc)
	sig := TargetSignature{Raw: desc, Tokens: tokens}

	lower := strings.ToLower(desc)
	for _, hint := range roleHints {
		if strings.HasSuffix(strings.TrimSpace(lower), hint.phrase) {
			sig.ExpectedRole = hint.role
			trimmed := strings.TrimSuffix(strings.TrimSpace(lower), hint.phrase)
			sig.NameTokens = contentTokens(tokenize(trimmed))
			return sig
		}
	}
	sig.NameTokens = contentTokens(tokens)
	return sig
}
