// Package learning implements the LearningStore of spec.md §3: an
// append-only log of outcome records plus derived aggregates (per-locator
// fragility, per-strategy effectiveness, per-pattern frequency). It is a
// leaf component — nothing in this package depends on the resolver,
// executor, or healing engine; they depend on it.
package learning

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"aistep/internal/mangle"
	"aistep/internal/types"
)

// Store is the process-lifetime LearningStore. Safe for concurrent use;
// per spec.md §5's shared-resource policy it is append-only within a
// worker and its aggregates are recomputed on read under the read lock,
// so a writer waits for in-progress reads to finish.
type Store struct {
	mu      sync.RWMutex
	records []types.OutcomeRecord
	engine  *mangle.Engine
	seq     int
}

// New constructs an empty LearningStore with its declarative schema loaded.
func New() (*Store, error) {
	eng := mangle.NewEngine(mangle.DefaultConfig())
	if err := eng.LoadSchemaString(schema); err != nil {
		return nil, fmt.Errorf("learning: load schema: %w", err)
	}
	return &Store{engine: eng}, nil
}

// Record appends one outcome, per spec.md §3's field list. It is
// idempotent-safe to call from multiple steps of the same scenario; the
// log is never rewritten, only appended to.
func (s *Store) Record(rec types.OutcomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("outcome-%d", s.seq)
	}
	if rec.TimestampUTC.IsZero() {
		rec.TimestampUTC = time.Now().UTC()
	}
	s.records = append(s.records, rec)

	return s.engine.AddFact("outcome",
		rec.ID,
		rec.ElementDescription,
		string(rec.IntentKind),
		string(rec.Outcome),
		rec.StrategyUsed,
		rec.TimestampUTC.UnixMilli(),
	)
}

// Records returns a defensive copy of the full append-only log.
func (s *Store) Records() []types.OutcomeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.OutcomeRecord, len(s.records))
	copy(out, s.records)
	return out
}

// HealProneLocators returns every locator the declarative `heal_prone`
// rule has derived (i.e. at least one recorded outcome against it used a
// registered healing strategy).
func (s *Store) HealProneLocators() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	facts := s.engine.EvaluateRule("heal_prone")
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		if len(f.Args) != 1 {
			continue
		}
		if locator, ok := f.Args[0].(string); ok {
			out = append(out, locator)
		}
	}
	return out, nil
}

// fSaturating maps a non-negative count to [0,1), approaching 1 as the
// count grows, per spec.md §3's `f(healCount)` ordering term.
func fSaturating(n int) float64 {
	return 1 - 1/(1+float64(n))
}

// Fragility computes the composite fragility score for one locator, per
// spec.md §3's formula:
// composite = clip(0.4·f(healCount) + 0.3·failureRate + 0.2·instability + 0.3·recencyPenalty, 0, 1)
func (s *Store) Fragility(locator string) types.FragilityScore {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matching []types.OutcomeRecord
	for _, r := range s.records {
		if r.ElementDescription == locator {
			matching = append(matching, r)
		}
	}
	if len(matching) == 0 {
		return types.FragilityScore{Locator: locator}
	}

	healCount, failures := 0, 0
	strategiesSeen := map[string]bool{}
	for _, r := range matching {
		if r.StrategyUsed != "" {
			healCount++
			strategiesSeen[r.StrategyUsed] = true
		}
		if r.Outcome == types.OutcomeErr {
			failures++
		}
	}
	failureRate := float64(failures) / float64(len(matching))
	instability := clip01(float64(len(strategiesSeen)) / 8.0) // 8 strategy names in the schema's healed facts

	recencyPenalty := recencyFailureRate(matching)

	composite := clip01(0.4*fSaturating(healCount) + 0.3*failureRate + 0.2*instability + 0.3*recencyPenalty)

	return types.FragilityScore{
		Locator:            locator,
		HealCount:          healCount,
		FailureRate:        failureRate,
		LocatorInstability: instability,
		RecencyPenalty:     recencyPenalty,
		Composite:          composite,
	}
}

// recencyFailureRate weighs the most recent half of a locator's history
// more heavily: failure rate over the newer half, falling back to the
// overall rate when there are too few records to split meaningfully.
func recencyFailureRate(matching []types.OutcomeRecord) float64 {
	if len(matching) < 4 {
		return overallFailureRate(matching)
	}
	half := matching[len(matching)/2:]
	return overallFailureRate(half)
}

func overallFailureRate(recs []types.OutcomeRecord) float64 {
	if len(recs) == 0 {
		return 0
	}
	failures := 0
	for _, r := range recs {
		if r.Outcome == types.OutcomeErr {
			failures++
		}
	}
	return float64(failures) / float64(len(recs))
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Effectiveness computes the attempts/successes/avgConfidence aggregate
// for one healing strategy across the full log.
func (s *Store) Effectiveness(strategy string) types.StrategyEffectiveness {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return effectivenessOver(s.records, strategy)
}

func effectivenessOver(recs []types.OutcomeRecord, strategy string) types.StrategyEffectiveness {
	eff := types.StrategyEffectiveness{Strategy: strategy}
	var confidenceSum float64
	for _, r := range recs {
		if r.StrategyUsed != strategy {
			continue
		}
		eff.Attempts++
		confidenceSum += r.Confidence
		if r.Outcome == types.OutcomeOK {
			eff.Successes++
		}
	}
	if eff.Attempts > 0 {
		eff.AvgConfidence = confidenceSum / float64(eff.Attempts)
	}
	return eff
}

// EffectivenessForPair computes per-strategy effectiveness restricted to
// the most recent `window` outcomes matching (elementKind, failureKind),
// per spec.md §4.3's "sliding window (default 50 attempts)" reordering
// input. Results are sorted by success rate descending.
func (s *Store) EffectivenessForPair(elementKind, failureKind string, window int) []types.StrategyEffectiveness {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matching []types.OutcomeRecord
	for _, r := range s.records {
		if r.ElementKind == elementKind && r.FailureKind == failureKind && r.StrategyUsed != "" {
			matching = append(matching, r)
		}
	}
	if window > 0 && len(matching) > window {
		matching = matching[len(matching)-window:]
	}

	byStrategy := map[string]bool{}
	for _, r := range matching {
		byStrategy[r.StrategyUsed] = true
	}
	out := make([]types.StrategyEffectiveness, 0, len(byStrategy))
	for strategy := range byStrategy {
		out = append(out, effectivenessOver(matching, strategy))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SuccessRate() > out[j].SuccessRate()
	})
	return out
}

// PatternFrequency returns how many outcomes were recorded per intent
// kind, the per-pattern frequency aggregate of spec.md §3.
func (s *Store) PatternFrequency() map[types.IntentKind]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[types.IntentKind]int)
	for _, r := range s.records {
		out[r.IntentKind]++
	}
	return out
}
