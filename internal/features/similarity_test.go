package features_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"aistep/internal/features"
	"aistep/internal/types"
)

func TestParseTargetDescription_ExtractsRoleAndName(t *testing.T) {
	sig := features.ParseTargetDescription("the Login button")
	require.Equal(t, "button", sig.ExpectedRole)
	require.Equal(t, []string{"login"}, sig.NameTokens)
}

func TestParseTargetDescription_NoRoleKeyword(t *testing.T) {
	sig := features.ParseTargetDescription("Welcome message")
	require.Equal(t, "", sig.ExpectedRole)
	require.Equal(t, []string{"welcome", "message"}, sig.NameTokens)
}

func TestScore_ExactTextAndRoleMatchScoresHigh(t *testing.T) {
	target := features.ParseTargetDescription("the Login button")
	feat := types.ElementFeatures{
		Text:       types.TextFeatures{VisibleText: "Login"},
		Structural: types.StructuralFeatures{Tag: "button", Role: "button"},
		Visual:     types.VisualFeatures{InViewport: true, Width: 80, Height: 30, OpacityPct: 100},
	}
	score := features.Score(target, feat, types.DefaultSimilarityWeights())
	require.Greater(t, score.Total, 0.65)
}

func TestScore_WrongRolePenalisesStructural(t *testing.T) {
	target := features.ParseTargetDescription("the Login button")
	button := types.ElementFeatures{
		Text:       types.TextFeatures{VisibleText: "Login"},
		Structural: types.StructuralFeatures{Tag: "button", Role: "button"},
		Visual:     types.VisualFeatures{InViewport: true, Width: 80, Height: 30, OpacityPct: 100},
	}
	link := types.ElementFeatures{
		Text:       types.TextFeatures{VisibleText: "Login"},
		Structural: types.StructuralFeatures{Tag: "a", Role: "link"},
		Visual:     types.VisualFeatures{InViewport: true, Width: 80, Height: 30, OpacityPct: 100},
	}
	weights := types.DefaultSimilarityWeights()
	buttonScore := features.Score(target, button, weights)
	linkScore := features.Score(target, link, weights)
	require.Greater(t, buttonScore.Total, linkScore.Total)
}

func TestScore_OutOfViewportElementScoresLowerOnVisual(t *testing.T) {
	target := features.ParseTargetDescription("the Login button")
	onscreen := types.VisualFeatures{InViewport: true, Width: 80, Height: 30, OpacityPct: 100}
	offscreen := types.VisualFeatures{InViewport: false, Width: 80, Height: 30, OpacityPct: 100}
	feat := types.ElementFeatures{
		Text:       types.TextFeatures{VisibleText: "Login"},
		Structural: types.StructuralFeatures{Tag: "button", Role: "button"},
	}
	feat.Visual = onscreen
	visible := features.Score(target, feat, types.DefaultSimilarityWeights())
	feat.Visual = offscreen
	hidden := features.Score(target, feat, types.DefaultSimilarityWeights())
	require.Greater(t, visible.Total, hidden.Total)
}

func TestScore_TableHeaderContextMatch(t *testing.T) {
	target := features.ParseTargetDescription("the Trigger Name cell")
	feat := types.ElementFeatures{
		Context: types.ContextFeatures{TableHeader: "Trigger Name"},
	}
	score := features.Score(target, feat, types.DefaultSimilarityWeights())
	require.Greater(t, score.Context, 0.5)
}
