package executor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aistep/internal/executor"
	"aistep/internal/healing"
	"aistep/internal/learning"
	"aistep/internal/page"
	"aistep/internal/resolver"
	"aistep/internal/types"
	"aistep/internal/varstore"
)

// fakePage implements page.Page by embedding a nil interface, overriding
// only the methods a given test's steps actually exercise — the same
// pattern internal/healing's tests use.
type fakePage struct {
	page.Page
	accessible []page.AccessibleNode
	clicked    []types.ElementHandle
	url        string
}

func (f *fakePage) QueryAccessible(ctx context.Context, role, name string) ([]page.AccessibleNode, error) {
	return f.accessible, nil
}

func (f *fakePage) QueryCSS(ctx context.Context, selector string) ([]types.ElementHandle, error) {
	return nil, nil
}

func (f *fakePage) ExtractFeatures(ctx context.Context, handle types.ElementHandle) (types.ElementFeatures, error) {
	return types.ElementFeatures{Text: types.TextFeatures{VisibleText: "Login"}}, nil
}

func (f *fakePage) Click(ctx context.Context, handle types.ElementHandle, opts page.ClickOptions) error {
	f.clicked = append(f.clicked, handle)
	return nil
}

func (f *fakePage) URL(ctx context.Context) (string, error) { return f.url, nil }

func newExecutor(t *testing.T) (*executor.Executor, *resolver.Resolver, *learning.Store) {
	t.Helper()
	res := resolver.New(resolver.DefaultOptions())
	store, err := learning.New()
	require.NoError(t, err)
	heal := healing.New(healing.DefaultOptions(), res, store)
	opts := executor.DefaultOptions()
	opts.AssertionRetryBudget = 200 * time.Millisecond
	return executor.New(opts, res, heal), res, store
}

func TestExecute_ClickResolvesAndDispatches(t *testing.T) {
	p := &fakePage{accessible: []page.AccessibleNode{
		{Handle: types.ElementHandle{ID: "btn-1"}, Role: "button", AccessibleName: "Login"},
	}}
	e, _, store := newExecutor(t)
	rc := &executor.RuntimeContext{Page: p, Scenario: varstore.NewScenarioContext(varstore.NewFeatureContext()), Learning: store}

	out := e.Execute(context.Background(), types.Intent{Kind: types.KindClick, TargetDescription: "the Login button"}, rc)

	require.Equal(t, types.OutcomeOK, out.Status)
	require.Len(t, p.clicked, 1)
}

func TestExecute_CheckExistsNeverFailsOnAbsence(t *testing.T) {
	p := &fakePage{}
	e, _, store := newExecutor(t)
	scenario := varstore.NewScenarioContext(varstore.NewFeatureContext())
	rc := &executor.RuntimeContext{Page: p, Scenario: scenario, Learning: store}

	out := e.Execute(context.Background(), types.Intent{
		Kind:              types.KindCheckExists,
		TargetDescription: "the missing banner",
		StoreAs:            "bannerExists",
	}, rc)

	require.Equal(t, types.OutcomeOK, out.Status)
	v, ok := scenario.Get("bannerExists")
	require.True(t, ok)
	require.False(t, v.Bool)
}

func TestExecute_VerifyTextSucceedsWithinBudget(t *testing.T) {
	p := &fakePage{accessible: []page.AccessibleNode{
		{Handle: types.ElementHandle{ID: "h1"}, Role: "heading", AccessibleName: "Login"},
	}}
	e, _, store := newExecutor(t)
	rc := &executor.RuntimeContext{Page: p, Scenario: varstore.NewScenarioContext(varstore.NewFeatureContext()), Learning: store}

	out := e.Execute(context.Background(), types.Intent{
		Kind:              types.KindVerifyText,
		TargetDescription: "the heading",
		Value:             types.StringValue("Login"),
	}, rc)

	require.Equal(t, types.OutcomeOK, out.Status)
}

func TestExecute_GetURLStoresValue(t *testing.T) {
	p := &fakePage{url: "https://example.test/?tab=2"}
	e, _, store := newExecutor(t)
	scenario := varstore.NewScenarioContext(varstore.NewFeatureContext())
	rc := &executor.RuntimeContext{Page: p, Scenario: scenario, Learning: store}

	out := e.Execute(context.Background(), types.Intent{Kind: types.KindGetURL, StoreAs: "currentURL"}, rc)

	require.Equal(t, types.OutcomeOK, out.Status)
	v, ok := scenario.Get("currentURL")
	require.True(t, ok)
	require.Equal(t, "https://example.test/?tab=2", v.Str)
}
