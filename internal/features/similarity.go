package features

import (
	"strings"

	"aistep/internal/types"
)

// stopwords are filler words in a target description that should not
// count against a candidate that simply doesn't repeat them verbatim.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "to": true,
}

func contentTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !stopwords[t] {
			out = append(out, t)
		}
	}
	return out
}

// Score computes the five per-group similarities and their weighted
// total between a parsed target description and one candidate's
// extracted features, per spec.md §3's SimilarityScore.
func Score(target TargetSignature, feat types.ElementFeatures, weights types.SimilarityWeights) types.SimilarityScore {
	w := weights.Normalized()
	text := scoreText(target, feat.Text)
	structural := scoreStructural(target, feat.Structural)
	visual := scoreVisual(feat.Visual)
	semantic := scoreSemantic(target, feat.Semantic, feat.Structural)
	context := scoreContext(target, feat.Context)
	return w.Weighted(text, structural, visual, semantic, context)
}

// scoreText compares the target's name tokens against every text-bearing
// signal on the candidate, keeping the strongest match — a button whose
// visible text misses but whose aria-label hits should still score well.
func scoreText(target TargetSignature, t types.TextFeatures) float64 {
	name := contentTokens(target.NameTokens)
	if len(name) == 0 {
		name = contentTokens(target.Tokens)
	}
	best := 0.0
	for _, candidate := range []string{t.VisibleText, t.AriaLabel, t.Title, t.Placeholder, t.FormValue, t.Alt} {
		if candidate == "" {
			continue
		}
		if s := cosineOverlap(name, tokenize(candidate)); s > best {
			best = s
		}
		// Exact (case-insensitive) match on the full candidate string is
		// the strongest possible text signal.
		if strings.EqualFold(strings.TrimSpace(candidate), strings.Join(name, " ")) {
			best = 1.0
		}
	}
	return best
}

// scoreStructural rewards a role/tag match consistent with the target's
// expected role, plus any token overlap with the computed CSS path.
func scoreStructural(target TargetSignature, s types.StructuralFeatures) float64 {
	roleScore := 0.0
	if target.ExpectedRole != "" {
		switch {
		case strings.EqualFold(s.Role, target.ExpectedRole):
			roleScore = 1.0
		case strings.EqualFold(s.FormElementKind, target.ExpectedRole):
			roleScore = 0.8
		case target.ExpectedRole == "button" && strings.EqualFold(s.Tag, "button"):
			roleScore = 1.0
		case target.ExpectedRole == "link" && strings.EqualFold(s.Tag, "a"):
			roleScore = 1.0
		case target.ExpectedRole == "textbox" && (strings.EqualFold(s.Tag, "input") || strings.EqualFold(s.Tag, "textarea")):
			roleScore = 1.0
		default:
			roleScore = 0.2
		}
	} else {
		roleScore = 0.5 // no role keyword in the description; neutral
	}
	pathScore := cosineOverlap(contentTokens(target.Tokens), tokenize(s.Path))
	return clamp01(0.7*roleScore + 0.3*pathScore)
}

// scoreVisual rewards elements that are actually visible and laid out
// with plausible, non-degenerate geometry; it cannot know "where" the
// target should be (no prior position is implied by free text), so it
// only penalises elements that could never be a legitimate match.
func scoreVisual(v types.VisualFeatures) float64 {
	if !v.InViewport {
		return 0.3
	}
	if v.Width <= 0 || v.Height <= 0 {
		return 0.0
	}
	opacity := clamp01(v.OpacityPct / 100)
	return clamp01(0.6 + 0.4*opacity)
}

func scoreSemantic(target TargetSignature, sem types.SemanticFeatures, s types.StructuralFeatures) float64 {
	if target.ExpectedRole == "heading" {
		if sem.HeadingLevel > 0 {
			return 1.0
		}
		return 0.1
	}
	if sem.Landmark != "" && strings.Contains(strings.Join(contentTokens(target.Tokens), " "), strings.ToLower(sem.Landmark)) {
		return 1.0
	}
	if len(sem.AriaAttributes) > 0 {
		return 0.6
	}
	return 0.4
}

func scoreContext(target TargetSignature, c types.ContextFeatures) float64 {
	best := 0.0
	name := contentTokens(target.NameTokens)
	if s := cosineOverlap(name, tokenize(c.AssociatedLabel)); s > best {
		best = s
	}
	if s := cosineOverlap(name, tokenize(c.TableHeader)); s > best {
		best = s
	}
	if best == 0 && c.ParentRole != "" {
		best = 0.3
	}
	return best
}
