package learning_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"aistep/internal/learning"
	"aistep/internal/types"
)

func record(locator, kind, strategy string, outcome types.OutcomeStatus, confidence float64, elementKind, failureKind string) types.OutcomeRecord {
	return types.OutcomeRecord{
		InstructionText:    "click " + locator,
		IntentKind:         types.IntentKind(kind),
		ElementDescription: locator,
		StrategyUsed:       strategy,
		Outcome:            outcome,
		Confidence:         confidence,
		ElementKind:        elementKind,
		FailureKind:        failureKind,
	}
}

func TestRecord_AssignsIDAndTimestamp(t *testing.T) {
	s, err := learning.New()
	require.NoError(t, err)

	require.NoError(t, s.Record(record("the Login button", "action.click", "", types.OutcomeOK, 1.0, "button", "")))
	recs := s.Records()
	require.Len(t, recs, 1)
	require.NotEmpty(t, recs[0].ID)
	require.False(t, recs[0].TimestampUTC.IsZero())
}

func TestHealProneLocators_OnlyIncludesHealedLocators(t *testing.T) {
	s, err := learning.New()
	require.NoError(t, err)

	require.NoError(t, s.Record(record("button A", "action.click", "", types.OutcomeOK, 1.0, "button", "")))
	require.NoError(t, s.Record(record("button B", "action.click", "scroll-into-view", types.OutcomeOK, 0.9, "button", "not-visible")))

	locators, err := s.HealProneLocators()
	require.NoError(t, err)
	require.Contains(t, locators, "button B")
	require.NotContains(t, locators, "button A")
}

func TestFragility_HigherForRepeatedlyHealedLocator(t *testing.T) {
	s, err := learning.New()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(record("flaky menu", "action.click", "alternative-locators", types.OutcomeErr, 0.5, "menu", "not-found")))
	}
	require.NoError(t, s.Record(record("stable button", "action.click", "", types.OutcomeOK, 1.0, "button", "")))

	flaky := s.Fragility("flaky menu")
	stable := s.Fragility("stable button")

	require.Greater(t, flaky.Composite, stable.Composite)
	require.Equal(t, types.FragilityCritical, flaky.Class())
	require.Equal(t, types.FragilityLow, stable.Class())
}

func TestEffectiveness_AggregatesAttemptsAndSuccesses(t *testing.T) {
	s, err := learning.New()
	require.NoError(t, err)

	require.NoError(t, s.Record(record("a", "action.click", "scroll-into-view", types.OutcomeOK, 0.9, "button", "not-visible")))
	require.NoError(t, s.Record(record("b", "action.click", "scroll-into-view", types.OutcomeErr, 0.4, "button", "not-visible")))
	require.NoError(t, s.Record(record("c", "action.click", "scroll-into-view", types.OutcomeOK, 0.8, "button", "not-visible")))

	eff := s.Effectiveness("scroll-into-view")
	require.Equal(t, 3, eff.Attempts)
	require.Equal(t, 2, eff.Successes)
	require.InDelta(t, 2.0/3.0, eff.SuccessRate(), 0.001)
}

func TestEffectivenessForPair_RespectsSlidingWindowAndFiltersByKind(t *testing.T) {
	s, err := learning.New()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Record(record("old", "action.click", "force-click", types.OutcomeErr, 0.2, "button", "intercepted")))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Record(record("new", "action.click", "remove-overlay", types.OutcomeOK, 0.9, "button", "intercepted")))
	}
	// A different element kind should not pollute the pair's window.
	require.NoError(t, s.Record(record("other", "action.click", "force-click", types.OutcomeOK, 1.0, "link", "intercepted")))

	eff := s.EffectivenessForPair("button", "intercepted", 3)
	require.Len(t, eff, 1)
	require.Equal(t, "remove-overlay", eff[0].Strategy)
}

func TestPatternFrequency_CountsPerIntentKind(t *testing.T) {
	s, err := learning.New()
	require.NoError(t, err)

	require.NoError(t, s.Record(record("x", "action.click", "", types.OutcomeOK, 1.0, "button", "")))
	require.NoError(t, s.Record(record("y", "action.click", "", types.OutcomeOK, 1.0, "button", "")))
	require.NoError(t, s.Record(record("z", "action.type", "", types.OutcomeOK, 1.0, "textbox", "")))

	freq := s.PatternFrequency()
	require.Equal(t, 2, freq[types.IntentKind("action.click")])
	require.Equal(t, 1, freq[types.IntentKind("action.type")])
}
