package healing

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"aistep/internal/features"
	"aistep/internal/page"
	"aistep/internal/types"
)

// defaultLadder is the static priority ordering of spec.md §4.3's table,
// highest priority (tried first) to lowest.
func defaultLadder() []Strategy {
	return []Strategy{
		alternativeLocatorsStrategy(),
		scrollIntoViewStrategy(),
		waitForVisibleStrategy(),
		removeOverlayStrategy(),
		patternBasedSearchStrategy(),
		visualSimilarityStrategy(),
		forceClickStrategy(),
	}
}

// alternativeLocatorsStrategy reruns the Element Resolver from rung 1,
// forcing a cache miss. Priority 10: always eligible.
func alternativeLocatorsStrategy() Strategy {
	return Strategy{
		Name:     "alternative-locators",
		Priority: 10,
		Trigger:  func(hc *Context) bool { return true },
		Try: func(ctx context.Context, hc *Context, e *Engine) (Result, error) {
			e.resolver.InvalidateHandle(hc.TargetDescription)
			res, err := e.resolver.Resolve(ctx, hc.Page, hc.TargetDescription, nil)
			if err != nil {
				return Result{}, err
			}
			return Result{Handle: res.Handle, Confidence: res.Confidence}, nil
		},
	}
}

// scrollIntoViewStrategy handles the common "element exists but is
// outside the viewport" case. Priority 9.
func scrollIntoViewStrategy() Strategy {
	return Strategy{
		Name:     "scroll-into-view",
		Priority: 9,
		Trigger: func(hc *Context) bool {
			return hc.PreviousHandle != nil && hc.FailureKind != FailureDetached
		},
		Try: func(ctx context.Context, hc *Context, e *Engine) (Result, error) {
			if err := hc.Page.ScrollIntoView(ctx, *hc.PreviousHandle); err != nil {
				return Result{}, err
			}
			if err := hc.Page.WaitVisible(ctx, *hc.PreviousHandle, e.opts.HealingTimeout); err != nil {
				return Result{}, err
			}
			return Result{Handle: *hc.PreviousHandle, Confidence: 0.90}, nil
		},
	}
}

// waitForVisibleStrategy handles a reported visibility/stability cause
// directly. Priority 8.
func waitForVisibleStrategy() Strategy {
	return Strategy{
		Name:     "wait-for-visible",
		Priority: 8,
		Trigger: func(hc *Context) bool {
			return hc.PreviousHandle != nil && hc.FailureKind == FailureNotVisible
		},
		Try: func(ctx context.Context, hc *Context, e *Engine) (Result, error) {
			if err := hc.Page.WaitVisible(ctx, *hc.PreviousHandle, e.opts.HealingTimeout); err != nil {
				return Result{}, err
			}
			return Result{Handle: *hc.PreviousHandle, Confidence: 0.85}, nil
		},
	}
}

// dismissHints identifies the attribute/value pairs that mark a
// dismiss control for an overlay or modal dialog.
var dismissHints = []struct{ attr, value string }{
	{"aria-label", "close"},
	{"aria-label", "dismiss"},
}

// removeOverlayStrategy looks for a close/dismiss control when the
// pointer was intercepted by an overlay, then retries resolution.
// Priority 7.
func removeOverlayStrategy() Strategy {
	return Strategy{
		Name:     "remove-overlay",
		Priority: 7,
		Trigger: func(hc *Context) bool {
			return hc.FailureKind == FailureIntercepted
		},
		Try: func(ctx context.Context, hc *Context, e *Engine) (Result, error) {
			nodes, err := hc.Page.QueryAccessible(ctx, "", "")
			if err != nil {
				return Result{}, err
			}
			dismissed := false
			for _, n := range nodes {
				for _, hint := range dismissHints {
					if v, ok := n.Attributes[hint.attr]; ok && strings.Contains(strings.ToLower(v), hint.value) {
						if err := hc.Page.Click(ctx, n.Handle, pageClickOptions()); err == nil {
							dismissed = true
						}
						break
					}
				}
				if dismissed {
					break
				}
			}
			if !dismissed {
				// Fall back to ESC at page scope.
				if err := hc.Page.PressKey(ctx, nil, []string{"Escape"}); err != nil {
					return Result{}, err
				}
			}
			e.resolver.InvalidateHandle(hc.TargetDescription)
			res, err := e.resolver.Resolve(ctx, hc.Page, hc.TargetDescription, nil)
			if err != nil {
				return Result{}, err
			}
			return Result{Handle: res.Handle, Confidence: res.Confidence}, nil
		},
	}
}

// patternCatalogue maps a recognisable UI pattern name to the
// accessibility roles that canonically carry it, per spec.md §4.3's
// "catalogue of UI patterns (login form, search box, dialog, table,
// breadcrumb, tooltip, ...)".
var patternCatalogue = map[string][]string{
	"search box": {"searchbox", "search"},
	"dialog":     {"dialog", "alertdialog"},
	"table":      {"table", "grid"},
	"tooltip":    {"tooltip"},
	"navigation": {"navigation"},
}

// patternBasedSearchStrategy matches the page against the pattern
// catalogue and resolves to the matching region's canonical target when
// the original failure was a not-found. Priority 6.
func patternBasedSearchStrategy() Strategy {
	return Strategy{
		Name:     "pattern-based-search",
		Priority: 6,
		Trigger: func(hc *Context) bool {
			return hc.FailureKind == FailureNotFound
		},
		Try: func(ctx context.Context, hc *Context, e *Engine) (Result, error) {
			sig := features.ParseTargetDescription(hc.TargetDescription)
			var candidateRoles []string
			for _, roles := range patternCatalogue {
				candidateRoles = append(candidateRoles, roles...)
			}
			var best *types.ElementHandle
			bestScore := 0
			for _, role := range candidateRoles {
				nodes, err := hc.Page.QueryAccessible(ctx, role, "")
				if err != nil || len(nodes) == 0 {
					continue
				}
				for i := range nodes {
					score := overlapScore(sig.NameTokens, nodes[i].AccessibleName)
					if score > bestScore {
						bestScore = score
						h := nodes[i].Handle
						best = &h
					}
				}
			}
			if best == nil {
				return Result{}, fmt.Errorf("pattern-based-search: no catalogued region matched %q", hc.TargetDescription)
			}
			return Result{Handle: *best, Confidence: 0.72}, nil
		},
	}
}

func overlapScore(tokens []string, text string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, t := range tokens {
		if t != "" && strings.Contains(lower, t) {
			score++
		}
	}
	return score
}

// visualSimilarityStrategy re-runs feature-similarity scoring over the
// full page with a lowered confidence threshold, per spec.md §4.3.
// Priority 5.
func visualSimilarityStrategy() Strategy {
	const interactiveSelector = `a,button,input,select,textarea,[role],[onclick],[tabindex]`
	return Strategy{
		Name:     "visual-similarity",
		Priority: 5,
		Trigger: func(hc *Context) bool {
			return hc.FailureKind == FailureNotFound
		},
		Try: func(ctx context.Context, hc *Context, e *Engine) (Result, error) {
			sig := features.ParseTargetDescription(hc.TargetDescription)
			handles, err := hc.Page.QueryCSS(ctx, interactiveSelector)
			if err != nil {
				return Result{}, err
			}
			type scored struct {
				handle types.ElementHandle
				score  float64
			}
			var all []scored
			for _, h := range handles {
				feat, err := hc.Page.ExtractFeatures(ctx, h)
				if err != nil {
					continue
				}
				sc := features.Score(sig, feat, e.opts.ResolverWeights)
				all = append(all, scored{h, sc.Total})
			}
			if len(all) == 0 {
				return Result{}, fmt.Errorf("visual-similarity: no candidates on page")
			}
			sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
			lowered := e.opts.ConfidenceThreshold - 0.1
			if all[0].score <= lowered {
				return Result{}, fmt.Errorf("visual-similarity: best score %.2f below lowered threshold %.2f", all[0].score, lowered)
			}
			return Result{Handle: all[0].handle, Confidence: all[0].score}, nil
		},
	}
}

// forceClickStrategy is the last resort: bypass actionability checks and
// click anyway. Only eligible for click intents. Priority 1.
func forceClickStrategy() Strategy {
	return Strategy{
		Name:     "force-click",
		Priority: 1,
		Trigger: func(hc *Context) bool {
			return hc.PreviousHandle != nil && hc.IntentKind == types.KindClick
		},
		Try: func(ctx context.Context, hc *Context, e *Engine) (Result, error) {
			opts := pageClickOptions()
			opts.Force = true
			if err := hc.Page.Click(ctx, *hc.PreviousHandle, opts); err != nil {
				return Result{}, err
			}
			// Confidence is a diagnostics label only: force-click already
			// bypassed actionability checks and clicked for real, so its
			// success is judged by err == nil (BypassConfidenceGate), not
			// by clearing AI_CONFIDENCE_THRESHOLD like the other rungs.
			return Result{Handle: *hc.PreviousHandle, Confidence: 0.40}, nil
		},
		BypassConfidenceGate: true,
	}
}

func pageClickOptions() page.ClickOptions {
	return page.ClickOptions{Button: "left", ClickCount: 1}
}
