package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"aistep/internal/features"
	"aistep/internal/page"
	"aistep/internal/types"
)

type ladderFakePage struct {
	page.Page
	accessible []page.AccessibleNode
}

func (f *ladderFakePage) QueryAccessible(ctx context.Context, role, name string) ([]page.AccessibleNode, error) {
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

func TestTextMatchScore_GradesByCoverageInsteadOfBoolean(t *testing.T) {
	require.Equal(t, 1.0, textMatchScore("Save", "save"))
	require.Equal(t, 0.0, textMatchScore("Save", "save draft"))
	require.Equal(t, 0.0, textMatchScore("", "save"))

	exact := textMatchScore("Save", "Save")
	loose := textMatchScore("Save Draft As Template", "Save")
	require.Greater(t, exact, loose)
	require.Greater(t, loose, 0.0)
}

func TestGradedConfidence_HigherQualityScoresHigher(t *testing.T) {
	require.InDelta(t, 0.88, gradedConfidence(0.88, 1.0), 1e-9)
	require.Less(t, gradedConfidence(0.88, 0.5), gradedConfidence(0.88, 1.0))
	require.Greater(t, gradedConfidence(0.88, 0.5), 0.88-confidenceBand)
}

// TestRungRoleText_PrefersCloserNameMatch guards the review finding that
// every candidate qualifying for rung 2 reported the identical 0.88
// confidence, forcing a spurious tie between a close match and a loose
// one. "Save" is a far better match for "the Save button" than "Save and
// Exit Without Saving" is, and that must now show up as a real
// confidence gap.
func TestRungRoleText_PrefersCloserNameMatch(t *testing.T) {
	p := &ladderFakePage{
		accessible: []page.AccessibleNode{
			{Handle: types.ElementHandle{ID: "btn-close"}, Role: "button", AccessibleName: "Save"},
			{Handle: types.ElementHandle{ID: "btn-loose"}, Role: "button", AccessibleName: "Save and Exit Without Saving"},
		},
	}
	r := New(DefaultOptions())
	sig := features.ParseTargetDescription("the Save button")

	cands, err := r.rungRoleText(context.Background(), p, sig, "Save button")
	require.NoError(t, err)
	require.Len(t, cands, 2)

	var closeConf, looseConf float64
	for _, c := range cands {
		switch c.handle.ID {
		case "btn-close":
			closeConf = c.confidence
		case "btn-loose":
			looseConf = c.confidence
		}
	}
	require.Greater(t, closeConf, looseConf)
}
