// Package resolver implements the Element Resolver of spec.md §4.2: a
// priority-ordered candidate-discovery ladder over the accessibility
// tree, feature-similarity scoring as the last rung, and tie-breaking
// disambiguation.
package resolver

import (
	"context"
	"strings"

	"aistep/internal/features"
	"aistep/internal/page"
	"aistep/internal/types"
)

// Options tunes the resolver's thresholds, per spec.md §4.2/§9.
type Options struct {
	ConfidenceThreshold float64 // default 0.70
	TieTolerance        float64 // default 0.05
	Weights             types.SimilarityWeights
}

// DefaultOptions returns spec.md's stated defaults.
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold: 0.70,
		TieTolerance:        0.05,
		Weights:             types.DefaultSimilarityWeights(),
	}
}

// HintContext carries an optional ordinal disambiguation cue supplied by
// the caller; positional and visual cues are not carried. Resolver
// extracts an ordinal from the description when hint is nil or its
// Ordinal is 0.
type HintContext struct {
	Ordinal int // 1-based; 0 means "not specified"
}

// Resolver finds one live element given a free-text description, per the
// candidate-discovery ladder in spec.md §4.2.
type Resolver struct {
	opts  Options
	cache *Cache
}

// New returns a Resolver over the given options (zero-value Options is
// replaced by defaults).
func New(opts Options) *Resolver {
	if opts.ConfidenceThreshold == 0 {
		opts = DefaultOptions()
	}
	return &Resolver{opts: opts, cache: NewCache()}
}

// candidate is an in-flight scored match before the winner is chosen.
type candidate struct {
	handle     types.ElementHandle
	confidence float64
	method     types.ResolveMethod
	node       *page.AccessibleNode // nil for feature-similarity-only candidates
}

// Resolve implements the six-rung ladder. Page-level intents must never
// reach this function (caller's responsibility, per spec.md §4.2).
func (r *Resolver) Resolve(ctx context.Context, p page.Page, targetDescription string, hint *HintContext) (types.ResolveResult, error) {
	if cached, ok := r.cache.Get(targetDescription); ok {
		return cached, nil
	}

	sig := features.ParseTargetDescription(targetDescription)
	salient := salientText(targetDescription)

	rungs := []func(context.Context, page.Page) ([]candidate, error){
		func(c context.Context, pg page.Page) ([]candidate, error) { return r.rungExactName(c, pg, sig, salient) },
		func(c context.Context, pg page.Page) ([]candidate, error) { return r.rungRoleText(c, pg, sig, salient) },
		func(c context.Context, pg page.Page) ([]candidate, error) { return r.rungLabelPlaceholder(c, pg, salient) },
		func(c context.Context, pg page.Page) ([]candidate, error) { return r.rungTextContains(c, pg, salient) },
		func(c context.Context, pg page.Page) ([]candidate, error) { return r.rungAttribute(c, pg, salient) },
		func(c context.Context, pg page.Page) ([]candidate, error) { return r.rungFeatureSimilarity(c, pg, sig) },
	}

	var lastCandidates []candidate
	for _, rung := range rungs {
		cands, err := rung(ctx, p)
		if err != nil {
			return types.ResolveResult{}, err
		}
		if len(cands) == 0 {
			continue
		}
		above := filterAbove(cands, r.opts.ConfidenceThreshold)
		if len(above) == 0 {
			lastCandidates = cands
			continue
		}
		winner, ambiguous := r.pickWinner(above, targetDescription, hint)
		if ambiguous {
			return types.ResolveResult{}, &types.ResolveError{
				Reason: types.ResolveAmbiguous, Description: targetDescription, Candidates: len(above)}
		}
		result := types.ResolveResult{Handle: winner.handle, Confidence: winner.confidence, Method: winner.method}
		r.cache.Set(targetDescription, result)
		return result, nil
	}

	if len(lastCandidates) > 0 {
		// Some rung produced candidates, none confident enough: still not
		// found, distinct from zero candidates anywhere (diagnostics may
		// choose to report the near-misses separately).
		return types.ResolveResult{}, &types.ResolveError{
			Reason: types.ResolveNotFound, Description: targetDescription, Candidates: len(lastCandidates)}
	}
	return types.ResolveResult{}, &types.ResolveError{Reason: types.ResolveNotFound, Description: targetDescription}
}

// InvalidateOnNavigation clears the resolver's per-scenario cache, per
// spec.md §4.2 ("invalidated on navigation").
func (r *Resolver) InvalidateOnNavigation() { r.cache.Clear() }

// InvalidateHandle drops one cached entry after an observed failure
// against it, per spec.md §4.2.
func (r *Resolver) InvalidateHandle(targetDescription string) { r.cache.Delete(targetDescription) }

func filterAbove(cands []candidate, threshold float64) []candidate {
	out := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if c.confidence > threshold {
			out = append(out, c)
		}
	}
	return out
}

// salientText strips quotes and a leading article, per spec.md §4.2 rung
// 1's "case-insensitive after quote stripping".
func salientText(desc string) string {
	s := strings.TrimSpace(desc)
	s = strings.Trim(s, `'"`)
	lower := strings.ToLower(s)
	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(lower, article) {
			return s[len(article):]
		}
	}
	return s
}
