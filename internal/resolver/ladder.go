package resolver

import (
	"context"
	"strings"

	"aistep/internal/features"
	"aistep/internal/page"
	"aistep/internal/types"
)

// interactiveSelector is the broad CSS query used by the text-contains,
// attribute, and feature-similarity rungs to enumerate "visible,
// interactive elements" per spec.md §4.2 rungs 4-6.
const interactiveSelector = `a,button,input,select,textarea,[role],[onclick],[tabindex]`

// rungExactName is ladder rung 1: accessible name/role/label equals the
// salient text, case-insensitive after quote stripping. Descriptions
// commonly append the role as a trailing word ("the Login button"), so
// the stripped name ("Login") is tried as well as the raw salient text.
func (r *Resolver) rungExactName(ctx context.Context, p page.Page, sig features.TargetSignature, salient string) ([]candidate, error) {
	nodes, err := p.QueryAccessible(ctx, "", "")
	if err != nil {
		return nil, err
	}
	nameOnly := strings.TrimSpace(strings.Join(stripStopwords(sig.NameTokens), " "))
	var out []candidate
	for i := range nodes {
		n := nodes[i]
		name := strings.TrimSpace(n.AccessibleName)
		if strings.EqualFold(name, salient) || (nameOnly != "" && strings.EqualFold(name, nameOnly)) {
			out = append(out, candidate{handle: n.Handle, confidence: 1.0, method: types.MethodExactName, node: &n})
		}
	}
	return out, nil
}

var stopwordSet = map[string]bool{"the": true, "a": true, "an": true, "of": true, "to": true}

func stripStopwords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !stopwordSet[t] {
			out = append(out, t)
		}
	}
	return out
}

// rungRoleText is ladder rung 2: restrict to the role implied by the
// description's trailing element-type hint, then require text overlap.
func (r *Resolver) rungRoleText(ctx context.Context, p page.Page, sig features.TargetSignature, salient string) ([]candidate, error) {
	if sig.ExpectedRole == "" {
		return nil, nil
	}
	nodes, err := p.QueryAccessible(ctx, sig.ExpectedRole, "")
	if err != nil {
		return nil, err
	}
	name := strings.Join(stripStopwords(sig.NameTokens), " ")
	var out []candidate
	for i := range nodes {
		n := nodes[i]
		if n.AccessibleName == "" {
			continue
		}
		quality := 0.0
		if name != "" {
			quality = textMatchScore(n.AccessibleName, name)
		}
		if q := textMatchScore(salient, n.AccessibleName); q > quality {
			quality = q
		}
		if quality <= 0 {
			continue
		}
		out = append(out, candidate{handle: n.Handle, confidence: gradedConfidence(0.88, quality), method: types.MethodRoleText, node: &n})
	}
	return out, nil
}

// rungLabelPlaceholder is ladder rung 3: for form controls, match
// associated <label> text or placeholder.
func (r *Resolver) rungLabelPlaceholder(ctx context.Context, p page.Page, salient string) ([]candidate, error) {
	nodes, err := p.QueryAccessible(ctx, "textbox", "")
	if err != nil {
		return nil, err
	}
	var out []candidate
	for i := range nodes {
		n := nodes[i]
		label := n.Attributes["label"]
		placeholder := n.Attributes["placeholder"]
		quality := textMatchScore(label, salient)
		if q := textMatchScore(placeholder, salient); q > quality {
			quality = q
		}
		if q := textMatchScore(salient, label); q > quality {
			quality = q
		}
		if quality <= 0 {
			continue
		}
		out = append(out, candidate{handle: n.Handle, confidence: gradedConfidence(0.85, quality), method: types.MethodLabel, node: &n})
	}
	return out, nil
}

// rungTextContains is ladder rung 4: substring match on visible inner
// text of interactive elements.
func (r *Resolver) rungTextContains(ctx context.Context, p page.Page, salient string) ([]candidate, error) {
	nodes, err := p.QueryAccessible(ctx, "", "")
	if err != nil {
		return nil, err
	}
	var out []candidate
	for i := range nodes {
		n := nodes[i]
		if n.AccessibleName == "" {
			continue
		}
		quality := textMatchScore(n.AccessibleName, salient)
		if quality <= 0 {
			continue
		}
		out = append(out, candidate{handle: n.Handle, confidence: gradedConfidence(0.75, quality), method: types.MethodTextContains, node: &n})
	}
	return out, nil
}

// rungAttribute is ladder rung 5: match on data-testid, id, name, aria-label.
func (r *Resolver) rungAttribute(ctx context.Context, p page.Page, salient string) ([]candidate, error) {
	nodes, err := p.QueryAccessible(ctx, "", "")
	if err != nil {
		return nil, err
	}
	slug := strings.ReplaceAll(strings.ToLower(salient), " ", "-")
	var out []candidate
	for i := range nodes {
		n := nodes[i]
		quality := 0.0
		for _, key := range []string{"data-testid", "id", "name", "aria-label"} {
			v, ok := n.Attributes[key]
			if !ok {
				continue
			}
			if q := textMatchScore(v, salient); q > quality {
				quality = q
			}
			if q := textMatchScore(v, slug); q > quality {
				quality = q
			}
		}
		if quality <= 0 {
			continue
		}
		out = append(out, candidate{handle: n.Handle, confidence: gradedConfidence(0.80, quality), method: types.MethodAttr, node: &n})
	}
	return out, nil
}

// textMatchScore grades how well needle matches haystack, case-
// insensitively: a full-string match scores 1.0, a substring match
// scores by how much of haystack the needle actually covers, and no
// match scores 0. Using this instead of a boolean containsFold lets
// rungs 2-5 tell a near-exact match from a loose one, so two candidates
// on the same rung rarely report the identical confidence spec.md:129's
// "winning candidate's total" implies a real per-candidate score, not a
// rung-wide constant.
func textMatchScore(haystack, needle string) float64 {
	h := strings.ToLower(strings.TrimSpace(haystack))
	n := strings.ToLower(strings.TrimSpace(needle))
	if h == "" || n == "" || !strings.Contains(h, n) {
		return 0
	}
	if h == n {
		return 1.0
	}
	coverage := float64(len(n)) / float64(len(h))
	if coverage > 1 {
		coverage = 1
	}
	return 0.5 + 0.5*coverage
}

// gradedConfidence scales a rung's ceiling (its score for a full-string
// match) down by up to confidenceBand for a weaker partial match.
const confidenceBand = 0.15

func gradedConfidence(ceiling, quality float64) float64 {
	return ceiling - confidenceBand + confidenceBand*quality
}

// rungFeatureSimilarity is ladder rung 6: extract ElementFeatures for
// every visible interactive element and score against the parsed target.
func (r *Resolver) rungFeatureSimilarity(ctx context.Context, p page.Page, sig features.TargetSignature) ([]candidate, error) {
	handles, err := p.QueryCSS(ctx, interactiveSelector)
	if err != nil {
		return nil, err
	}
	var out []candidate
	for _, h := range handles {
		feat, err := p.ExtractFeatures(ctx, h)
		if err != nil {
			continue
		}
		score := features.Score(sig, feat, r.opts.Weights)
		out = append(out, candidate{handle: h, confidence: score.Total, method: types.MethodSimilarity})
	}
	return out, nil
}

