package healing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"aistep/internal/healing"
	"aistep/internal/learning"
	"aistep/internal/page"
	"aistep/internal/resolver"
	"aistep/internal/types"
)

// fakePage implements page.Page by embedding a nil interface, overriding
// only the methods a given test's strategies actually exercise.
type fakePage struct {
	page.Page
	accessible []page.AccessibleNode
}

func (f *fakePage) QueryAccessible(ctx context.Context, role, name string) ([]page.AccessibleNode, error) {
	if role == "" {
		return f.accessible, nil
	}
	var out []page.AccessibleNode
	for _, n := range f.accessible {
		if n.Role == role {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakePage) QueryCSS(ctx context.Context, selector string) ([]types.ElementHandle, error) {
	return nil, nil
}

func (f *fakePage) Click(ctx context.Context, handle types.ElementHandle, opts page.ClickOptions) error {
	return nil
}

func TestClassifyFailure_MapsActionErrorKinds(t *testing.T) {
	kind, ok := healing.ClassifyFailure(&types.ActionError{Kind: types.ActionIntercepted})
	require.True(t, ok)
	require.Equal(t, healing.FailureIntercepted, kind)

	_, ok = healing.ClassifyFailure(&types.AssertionFailedError{})
	require.False(t, ok)
}

func TestHeal_AlternativeLocatorsSucceedsOnReresolve(t *testing.T) {
	p := &fakePage{
		accessible: []page.AccessibleNode{
			{Handle: types.ElementHandle{ID: "btn-1"}, Role: "button", AccessibleName: "Login"},
		},
	}
	res := resolver.New(resolver.DefaultOptions())
	store, err := learning.New()
	require.NoError(t, err)

	eng := healing.New(healing.DefaultOptions(), res, store)
	hc := &healing.Context{
		TargetDescription: "the Login button",
		IntentKind:        types.KindClick,
		ElementKind:       "button",
		FailureKind:       healing.FailureNotFound,
		Page:              p,
	}

	out, err := eng.Heal(context.Background(), hc)
	require.NoError(t, err)
	require.Equal(t, "btn-1", out.Handle.ID)
	require.Equal(t, "alternative-locators", out.Strategy)
	require.GreaterOrEqual(t, out.Attempts, 1)
}

func TestHeal_AllStrategiesExhaustedReturnsOriginalError(t *testing.T) {
	p := &fakePage{}
	res := resolver.New(resolver.DefaultOptions())
	store, err := learning.New()
	require.NoError(t, err)

	eng := healing.New(healing.DefaultOptions(), res, store)
	originalErr := &types.ActionError{Kind: types.ActionNotFound, Target: "the Nonexistent widget"}
	hc := &healing.Context{
		TargetDescription: "the Nonexistent widget",
		IntentKind:        types.KindClick,
		FailureKind:       healing.FailureNotFound,
		OriginalErr:       originalErr,
		Page:              p,
	}

	_, err = eng.Heal(context.Background(), hc)
	require.Error(t, err)
	require.ErrorIs(t, err, originalErr)
}

func TestHeal_RecordsOutcomesIntoLearningStore(t *testing.T) {
	p := &fakePage{
		accessible: []page.AccessibleNode{
			{Handle: types.ElementHandle{ID: "btn-1"}, Role: "button", AccessibleName: "Login"},
		},
	}
	res := resolver.New(resolver.DefaultOptions())
	store, err := learning.New()
	require.NoError(t, err)

	eng := healing.New(healing.DefaultOptions(), res, store)
	hc := &healing.Context{
		TargetDescription: "the Login button",
		IntentKind:        types.KindClick,
		ElementKind:       "button",
		FailureKind:       healing.FailureNotFound,
		Page:              p,
	}
	_, err = eng.Heal(context.Background(), hc)
	require.NoError(t, err)

	recs := store.Records()
	require.NotEmpty(t, recs)
	require.Equal(t, "alternative-locators", recs[0].StrategyUsed)
	require.Equal(t, types.OutcomeOK, recs[0].Outcome)
}

// TestHeal_ForceClickSucceedsBelowConfidenceThreshold guards against the
// uniform confidence gate being applied to force-click: its Result always
// carries a below-threshold confidence (it's a diagnostics label, not a
// match-quality score), so only err == nil should decide success here.
func TestHeal_ForceClickSucceedsBelowConfidenceThreshold(t *testing.T) {
	p := &fakePage{} // no accessible candidates: alternative-locators can't resolve anything
	res := resolver.New(resolver.DefaultOptions())
	store, err := learning.New()
	require.NoError(t, err)

	eng := healing.New(healing.DefaultOptions(), res, store)
	require.Greater(t, healing.DefaultOptions().ConfidenceThreshold, 0.40)

	prev := types.ElementHandle{ID: "btn-stale"}
	hc := &healing.Context{
		TargetDescription: "the Submit button",
		IntentKind:        types.KindClick,
		ElementKind:       "button",
		FailureKind:       healing.FailureDetached,
		PreviousHandle:    &prev,
		Page:              p,
	}

	out, err := eng.Heal(context.Background(), hc)
	require.NoError(t, err)
	require.Equal(t, "force-click", out.Strategy)
	require.Equal(t, "btn-stale", out.Handle.ID)
	require.Less(t, out.Confidence, healing.DefaultOptions().ConfidenceThreshold)

	recs := store.Records()
	require.NotEmpty(t, recs)
	require.Equal(t, "force-click", recs[len(recs)-1].StrategyUsed)
	require.Equal(t, types.OutcomeOK, recs[len(recs)-1].Outcome)
}
