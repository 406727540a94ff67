package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"aistep/internal/page"
	"aistep/internal/resolver"
	"aistep/internal/types"
)

// fakePage implements page.Page by embedding a nil interface and
// overriding only the methods the resolver ladder actually calls; any
// other method would panic if invoked, which a passing test never does.
type fakePage struct {
	page.Page
	accessible []page.AccessibleNode
	cssResults []types.ElementHandle
	features   map[string]types.ElementFeatures
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
	return f.cssResults, nil
}

func (f *fakePage) ExtractFeatures(ctx context.Context, handle types.ElementHandle) (types.ElementFeatures, error) {
	return f.features[handle.ID], nil
}

func TestResolve_ExactAccessibleNameWins(t *testing.T) {
	p := &fakePage{
		accessible: []page.AccessibleNode{
			{Handle: types.ElementHandle{ID: "btn-1"}, Role: "button", AccessibleName: "Login"},
		},
	}
	r := resolver.New(resolver.DefaultOptions())
	result, err := r.Resolve(context.Background(), p, "the Login button", nil)
	require.NoError(t, err)
	require.Equal(t, "btn-1", result.Handle.ID)
	require.Equal(t, types.MethodExactName, result.Method)
	require.Equal(t, 1.0, result.Confidence)
}

func TestResolve_FallsThroughToRoleTextWhenNameDiffers(t *testing.T) {
	p := &fakePage{
		accessible: []page.AccessibleNode{
			{Handle: types.ElementHandle{ID: "btn-submit"}, Role: "button", AccessibleName: "Submit Form"},
		},
	}
	r := resolver.New(resolver.DefaultOptions())
	result, err := r.Resolve(context.Background(), p, "the Submit button", nil)
	require.NoError(t, err)
	require.Equal(t, "btn-submit", result.Handle.ID)
	require.Equal(t, types.MethodRoleText, result.Method)
}

func TestResolve_NotFoundWhenNothingMatches(t *testing.T) {
	p := &fakePage{}
	r := resolver.New(resolver.DefaultOptions())
	_, err := r.Resolve(context.Background(), p, "the Nonexistent widget", nil)
	var resolveErr *types.ResolveError
	require.ErrorAs(t, err, &resolveErr)
	require.Equal(t, types.ResolveNotFound, resolveErr.Reason)
}

func TestResolve_OrdinalDisambiguatesTiedCandidates(t *testing.T) {
	p := &fakePage{
		accessible: []page.AccessibleNode{
			{Handle: types.ElementHandle{ID: "row-1-delete"}, Role: "button", AccessibleName: "Delete"},
			{Handle: types.ElementHandle{ID: "row-2-delete"}, Role: "button", AccessibleName: "Delete"},
		},
	}
	r := resolver.New(resolver.DefaultOptions())
	result, err := r.Resolve(context.Background(), p, "the second Delete button", nil)
	require.NoError(t, err)
	require.Equal(t, "row-2-delete", result.Handle.ID)
}

func TestResolve_CacheHitSkipsLadder(t *testing.T) {
	p := &fakePage{
		accessible: []page.AccessibleNode{
			{Handle: types.ElementHandle{ID: "btn-1"}, Role: "button", AccessibleName: "Login"},
		},
	}
	r := resolver.New(resolver.DefaultOptions())
	first, err := r.Resolve(context.Background(), p, "the Login button", nil)
	require.NoError(t, err)

	p.accessible = nil // ladder would now find nothing
	second, err := r.Resolve(context.Background(), p, "the Login button", nil)
	require.NoError(t, err)
	require.Equal(t, first.Handle.ID, second.Handle.ID)
}

func TestResolve_InvalidateOnNavigationClearsCache(t *testing.T) {
	p := &fakePage{
		accessible: []page.AccessibleNode{
			{Handle: types.ElementHandle{ID: "btn-1"}, Role: "button", AccessibleName: "Login"},
		},
	}
	r := resolver.New(resolver.DefaultOptions())
	_, err := r.Resolve(context.Background(), p, "the Login button", nil)
	require.NoError(t, err)

	r.InvalidateOnNavigation()
	p.accessible = nil
	_, err = r.Resolve(context.Background(), p, "the Login button", nil)
	var resolveErr *types.ResolveError
	require.ErrorAs(t, err, &resolveErr)
}
