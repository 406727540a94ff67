package worker_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"aistep/internal/grammar"
	"aistep/internal/page"
	"aistep/internal/types"
	"aistep/internal/worker"
)

// fakePage implements page.Page by embedding a nil interface and
// overriding only what a given test's steps exercise, the same pattern
// internal/executor's own tests use.
type fakePage struct {
	page.Page
	url        string
	accessible []page.AccessibleNode
	clicked    []types.ElementHandle
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

func (f *fakePage) ResetForReuse(ctx context.Context) error { return nil }

func (f *fakePage) Close(ctx context.Context) error { return nil }

func newTestPool(t *testing.T, opts worker.Options, pageFactory worker.PageFactory) *worker.Pool {
	t.Helper()
	parser := grammar.NewParser(grammar.NewDefaultRegistry())
	return worker.New(opts, worker.Capabilities{NewPage: pageFactory}, parser, nil)
}

func TestPool_RunSingleScenarioClicksAndStores(t *testing.T) {
	fp := &fakePage{accessible: []page.AccessibleNode{
		{Handle: types.ElementHandle{ID: "btn-1"}, Role: "button", AccessibleName: "Login"},
	}, url: "https://example.test/home"}

	opts := worker.DefaultOptions()
	p := newTestPool(t, opts, func(ctx context.Context) (page.Page, error) { return fp, nil })

	scenario := worker.Scenario{
		Name: "logs in",
		Tags: []string{"@ui"},
		Steps: []worker.GherkinStep{
			{Keyword: "When", Text: `AI "Click the Login button"`},
			{Keyword: "Then", Text: `AI "get the current url" and store as "landingURL"`},
		},
	}

	summary, err := p.Run(context.Background(), []worker.Scenario{scenario})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Passed)
	require.Equal(t, 0, summary.Failed)
	require.Len(t, fp.clicked, 1)
}

func TestPool_RunFailingScenarioIsReported(t *testing.T) {
	fp := &fakePage{}
	opts := worker.DefaultOptions()
	p := newTestPool(t, opts, func(ctx context.Context) (page.Page, error) { return fp, nil })

	scenario := worker.Scenario{
		Name: "clicks a missing button",
		Tags: []string{"@ui"},
		Steps: []worker.GherkinStep{
			{Keyword: "When", Text: `AI "Click the Missing button"`},
		},
	}

	summary, err := p.Run(context.Background(), []worker.Scenario{scenario})
	require.NoError(t, err)
	require.Equal(t, 0, summary.Passed)
	require.Equal(t, 1, summary.Failed)
}

func TestPool_ConventionalStepsAreSkippedByCore(t *testing.T) {
	opts := worker.DefaultOptions()
	p := newTestPool(t, opts, nil)

	scenario := worker.Scenario{
		Name: "pure gherkin, no AI steps",
		Tags: []string{"@api"},
		Steps: []worker.GherkinStep{
			{Keyword: "Given", Text: "I am logged in"},
		},
	}

	summary, err := p.Run(context.Background(), []worker.Scenario{scenario})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Passed)
	require.Empty(t, summary.Results[0].Steps)
}

func TestPool_ConditionalStepShortCircuits(t *testing.T) {
	fp := &fakePage{accessible: []page.AccessibleNode{
		{Handle: types.ElementHandle{ID: "btn-1"}, Role: "button", AccessibleName: "Login"},
	}}
	opts := worker.DefaultOptions()
	p := newTestPool(t, opts, func(ctx context.Context) (page.Page, error) { return fp, nil })

	scenario := worker.Scenario{
		Name: "skips when the guard variable is unset",
		Tags: []string{"@ui"},
		Steps: []worker.GherkinStep{
			{Keyword: "When", Text: `AI "Click the Login button" if "featureFlag" is "on"`},
		},
	}

	summary, err := p.Run(context.Background(), []worker.Scenario{scenario})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Passed)
	require.Len(t, summary.Results[0].Steps, 1)
	require.True(t, summary.Results[0].Steps[0].Skipped)
	require.Empty(t, fp.clicked)
}
