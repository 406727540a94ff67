package healing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"aistep/internal/learning"
	"aistep/internal/resolver"
	"aistep/internal/types"
)

// Options tunes the engine's budgets and the resolver weights its
// visual-similarity strategy reuses, per spec.md §4.3/§9.
type Options struct {
	HealingTimeout      time.Duration // per-strategy attempt budget, default 5s
	MaxAttempts         int           // total strategies tried per heal call, default 3
	ConfidenceThreshold float64       // default 0.70, shared with the resolver
	ReorderMargin       float64       // learned ordering must beat static by this to be used
	Window              int           // sliding window size for learned reordering, default 50
	ResolverWeights     types.SimilarityWeights
}

// DefaultOptions returns spec.md §4.3/§9's stated defaults.
func DefaultOptions() Options {
	return Options{
		HealingTimeout:      5 * time.Second,
		MaxAttempts:         3,
		ConfidenceThreshold: 0.70,
		ReorderMargin:       0.15,
		Window:              50,
		ResolverWeights:     types.DefaultSimilarityWeights(),
	}
}

// Engine runs the ranked strategy ladder. It depends on the Element
// Resolver (for alternative-locators/remove-overlay re-resolution) and
// the LearningStore (for outcome recording and learned reordering), per
// spec.md §2's leaves-first dependency order.
type Engine struct {
	opts       Options
	resolver   *resolver.Resolver
	learning   *learning.Store
	strategies []Strategy // static ladder, ascending priority is NOT assumed; sorted at use time
}

// New constructs a healing Engine over the default strategy ladder.
func New(opts Options, res *resolver.Resolver, store *learning.Store) *Engine {
	if opts.MaxAttempts == 0 {
		opts = DefaultOptions()
	}
	return &Engine{opts: opts, resolver: res, learning: store, strategies: defaultLadder()}
}

// HealOutcome is the engine's successful return value.
type HealOutcome struct {
	Handle     types.ElementHandle
	Strategy   string
	Confidence float64
	Attempts   int
}

// Heal runs the strategy ladder against Context, per spec.md §4.3. It
// returns the original error unchanged (wrapped for attempt count) if
// every eligible strategy, up to the attempt budget, fails to produce a
// confident replacement.
func (e *Engine) Heal(ctx context.Context, hc *Context) (HealOutcome, error) {
	ordered := e.orderedStrategies(hc)

	attempts := 0
	for _, s := range ordered {
		if attempts >= e.opts.MaxAttempts {
			break
		}
		if !s.Trigger(hc) {
			continue
		}
		attempts++

		attemptCtx, cancel := context.WithTimeout(ctx, e.opts.HealingTimeout)
		start := time.Now()
		result, err := s.Try(attemptCtx, hc, e)
		cancel()
		duration := time.Since(start)

		success := err == nil && (s.BypassConfidenceGate || result.Confidence >= e.opts.ConfidenceThreshold)
		e.recordAttempt(s.Name, hc, success, result.Confidence, duration)

		if success {
			return HealOutcome{
				Handle:     result.Handle,
				Strategy:   s.Name,
				Confidence: result.Confidence,
				Attempts:   attempts,
			}, nil
		}
	}

	if hc.OriginalErr != nil {
		return HealOutcome{}, fmt.Errorf("healing exhausted after %d attempt(s): %w", attempts, hc.OriginalErr)
	}
	return HealOutcome{}, fmt.Errorf("healing exhausted after %d attempt(s)", attempts)
}

func (e *Engine) recordAttempt(strategy string, hc *Context, success bool, confidence float64, duration time.Duration) {
	if e.learning == nil {
		return
	}
	outcome := types.OutcomeErr
	if success {
		outcome = types.OutcomeOK
	}
	_ = e.learning.Record(types.OutcomeRecord{
		InstructionText:    fmt.Sprintf("heal %q", hc.TargetDescription),
		IntentKind:         hc.IntentKind,
		ElementDescription: hc.TargetDescription,
		StrategyUsed:       strategy,
		Outcome:            outcome,
		Confidence:         confidence,
		DurationMs:         duration.Milliseconds(),
		FailureKind:        string(hc.FailureKind),
		ElementKind:        hc.ElementKind,
	})
}

// orderedStrategies applies spec.md §4.3's learning feedback: if an
// effectiveness-based ordering for this (elementKind, failureKind) pair
// beats the static order by e.opts.ReorderMargin over the sliding window,
// use it; otherwise fall back to the static priority ladder (lower
// numeric priority tried first is inverted here since the spec table
// lists "priority" with 10 = highest/first).
func (e *Engine) orderedStrategies(hc *Context) []Strategy {
	static := make([]Strategy, len(e.strategies))
	copy(static, e.strategies)
	sort.SliceStable(static, func(i, j int) bool { return static[i].Priority > static[j].Priority })

	if e.learning == nil {
		return static
	}

	learned := e.learning.EffectivenessForPair(hc.ElementKind, string(hc.FailureKind), e.opts.Window)
	if !beatsStatic(learned, static, e.opts.ReorderMargin) {
		return static
	}

	byName := make(map[string]Strategy, len(static))
	for _, s := range static {
		byName[s.Name] = s
	}
	reordered := make([]Strategy, 0, len(static))
	seen := make(map[string]bool, len(static))
	for _, eff := range learned {
		if s, ok := byName[eff.Strategy]; ok && !seen[eff.Strategy] {
			reordered = append(reordered, s)
			seen[eff.Strategy] = true
		}
	}
	for _, s := range static {
		if !seen[s.Name] {
			reordered = append(reordered, s)
			seen[s.Name] = true
		}
	}
	return reordered
}

// beatsStatic reports whether the learned top strategy's success rate
// clears the static ladder's first applicable strategy's success rate
// (from the same effectiveness list) by the configured margin, and has
// enough attempts in-window to be meaningful (at least a handful, not a
// single lucky try).
func beatsStatic(learned []types.StrategyEffectiveness, static []Strategy, margin float64) bool {
	if len(learned) == 0 || learned[0].Attempts < 5 {
		return false
	}
	byStrategy := make(map[string]types.StrategyEffectiveness, len(learned))
	for _, eff := range learned {
		byStrategy[eff.Strategy] = eff
	}
	var staticTop types.StrategyEffectiveness
	for _, s := range static {
		if eff, ok := byStrategy[s.Name]; ok {
			staticTop = eff
			break
		}
	}
	if learned[0].Strategy == staticTop.Strategy {
		return false
	}
	return learned[0].SuccessRate()-staticTop.SuccessRate() >= margin
}
