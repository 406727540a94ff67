package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"aistep/internal/grammar"
	"aistep/internal/types"
)

func newParser(t *testing.T) *grammar.Parser {
	t.Helper()
	return grammar.NewParser(grammar.NewDefaultRegistry())
}

func TestParse_ClickButton(t *testing.T) {
	p := newParser(t)
	intent, err := p.Parse(`Click the Login button`)
	require.NoError(t, err)
	require.Equal(t, types.KindClick, intent.Kind)
	require.Equal(t, "the Login button", intent.TargetDescription)
}

func TestParse_TypeIntoField(t *testing.T) {
	p := newParser(t)
	intent, err := p.Parse(`Type 'alice' in the Username field`)
	require.NoError(t, err)
	require.Equal(t, types.KindType, intent.Kind)
	require.Equal(t, "alice", intent.Value.Str)
	require.Equal(t, "the Username field", intent.TargetDescription)
}

func TestParse_PressEnter(t *testing.T) {
	p := newParser(t)
	intent, err := p.Parse(`Press Enter`)
	require.NoError(t, err)
	require.Equal(t, types.KindPressKey, intent.Kind)
	require.Equal(t, []string{"Enter"}, intent.Value.Combo)
}

func TestParse_PressKeyComboCanonicalization(t *testing.T) {
	p := newParser(t)
	intent, err := p.Parse(`Press Ctrl+Shift+Delete`)
	require.NoError(t, err)
	require.Equal(t, types.KindPressKey, intent.Kind)
	require.Equal(t, []string{"Control", "Shift", "Delete"}, intent.Value.Combo)
}

func TestParse_SelectFromDropdown(t *testing.T) {
	p := newParser(t)
	intent, err := p.Parse(`Select "Option A" from the Country dropdown`)
	require.NoError(t, err)
	require.Equal(t, types.KindSelect, intent.Kind)
	require.Equal(t, "Option A", intent.Value.Str)
	require.Equal(t, "the Country dropdown", intent.TargetDescription)
}

// "select" with no trailing "from" is not the choose-from-dropdown
// construct: Pass 1 fails to match the select rule, and Pass 2's synonym
// table collapses the bare verb to "click" before a second match attempt.
func TestParse_SelectWithoutFromCollapsesToClick(t *testing.T) {
	p := newParser(t)
	intent, err := p.Parse(`Select the submit button`)
	require.NoError(t, err)
	require.Equal(t, types.KindClick, intent.Kind)
	require.Equal(t, "the submit button", intent.TargetDescription)
}

func TestParse_VerifyVisible(t *testing.T) {
	p := newParser(t)
	intent, err := p.Parse(`Verify the Home heading is displayed`)
	require.NoError(t, err)
	require.Equal(t, types.KindVerifyVisible, intent.Kind)
	require.Equal(t, "the Home heading", intent.TargetDescription)
}

func TestParse_VerifyTableCell(t *testing.T) {
	p := newParser(t)
	intent, err := p.Parse(`Verify row 1 column 'Trigger Name' of the Job Triggers table is 'DataSyncJobTrigger'`)
	require.NoError(t, err)
	require.Equal(t, types.KindVerifyTableCell, intent.Kind)
	require.Equal(t, "the Job Triggers table", intent.TargetDescription)
	require.Equal(t, "DataSyncJobTrigger", intent.Value.Str)
	require.Equal(t, 1, intent.Options.Int("row", -1))
	require.Equal(t, "Trigger Name", intent.Options.String("column", ""))
}

func TestParse_APICallIsModuleDetectionRelevant(t *testing.T) {
	p := newParser(t)
	intent, err := p.Parse(`Call API GET "/users/1"`)
	require.NoError(t, err)
	require.Equal(t, types.KindAPICall, intent.Kind)
	require.Equal(t, "/users/1", intent.Value.Str)
	require.Equal(t, "GET", intent.Options.String("method", ""))
	require.True(t, types.IsPageLevel(intent.Kind))
}

func TestParse_VerifyAPIResponseStatus(t *testing.T) {
	p := newParser(t)
	intent, err := p.Parse(`Verify API response status is 200`)
	require.NoError(t, err)
	require.Equal(t, types.KindVerifyAPIResponse, intent.Kind)
	require.Equal(t, "status", intent.Options.String("field", ""))
	require.Equal(t, "200", intent.Value.Str)
}

func TestParse_EmptyInstructionIsParseError(t *testing.T) {
	p := newParser(t)
	_, err := p.Parse(``)
	var parseErr *types.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, types.ParseNoMatch, parseErr.Reason)
}

func TestParse_UnrecognisedInstructionIsParseError(t *testing.T) {
	p := newParser(t)
	_, err := p.Parse(`Frobnicate the whatsit`)
	var parseErr *types.ParseError
	require.ErrorAs(t, err, &parseErr)
}

// A matching rule whose captured range fails its own invariant (lo > hi)
// is itself a parse error, per spec.md §4.1 — but the failure must not
// short-circuit the scan before trying any lower-priority matcher.
func TestParse_GenerateRandomIntInvalidRangeIsParseError(t *testing.T) {
	p := newParser(t)
	_, err := p.Parse(`Generate randomInt(10,5)`)
	var parseErr *types.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParse_GenerateRandomIntValidRange(t *testing.T) {
	p := newParser(t)
	intent, err := p.Parse(`Generate randomInt(5,10)`)
	require.NoError(t, err)
	require.Equal(t, types.KindGenerateData, intent.Kind)
	require.Equal(t, 5, intent.Options.Int("lo", -1))
	require.Equal(t, 10, intent.Options.Int("hi", -1))
}

func TestParse_WaitSecondsConvertsToMilliseconds(t *testing.T) {
	p := newParser(t)
	intent, err := p.Parse(`Wait 2 seconds`)
	require.NoError(t, err)
	require.Equal(t, types.KindWaitSeconds, intent.Kind)
	require.Equal(t, 2000, intent.Value.Int)
}

func TestParse_WaitUntilURLContains(t *testing.T) {
	p := newParser(t)
	intent, err := p.Parse(`Wait until the url contains "/dashboard"`)
	require.NoError(t, err)
	require.Equal(t, types.KindWaitURLChange, intent.Kind)
	require.Equal(t, "contains", intent.Options.String("predicate", ""))
	require.Equal(t, "/dashboard", intent.Value.Str)
}

func TestParse_IsDeterministic(t *testing.T) {
	p := newParser(t)
	a, errA := p.Parse(`Click the Login button`)
	b, errB := p.Parse(`Click the Login button`)
	require.NoError(t, errA)
	require.NoError(t, errB)
	require.Equal(t, a, b)
}

func TestParseStepText_FullWireFormat(t *testing.T) {
	step, ok := grammar.ParseStepText(`AI "Click the Login button" and store as "clickResult" with value "ignored" if "flag" is "on"`)
	require.True(t, ok)
	require.Equal(t, "Click the Login button", step.Instruction)
	require.Equal(t, "clickResult", step.StoreAs)
	require.True(t, step.HasExplicitValue)
	require.Equal(t, "ignored", step.ExplicitValue)
	require.True(t, step.HasCondition)
	require.True(t, step.ConditionHolds("on"))
	require.False(t, step.ConditionHolds("off"))
}

func TestParseStepText_NonAIStepReturnsFalse(t *testing.T) {
	_, ok := grammar.ParseStepText(`Given the user is on the home page`)
	require.False(t, ok)
}

func TestApplyClauses_QueryWithoutStoreAsIsParseError(t *testing.T) {
	p := newParser(t)
	intent, err := p.Parse(`Get the text of the Status label`)
	require.NoError(t, err)
	require.Equal(t, types.KindGetText, intent.Kind)

	_, err = grammar.ApplyClauses(intent, grammar.Step{Instruction: "Get the text of the Status label"})
	var parseErr *types.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestApplyClauses_QueryWithStoreAsSucceeds(t *testing.T) {
	p := newParser(t)
	intent, err := p.Parse(`Get the text of the Status label`)
	require.NoError(t, err)

	out, err := grammar.ApplyClauses(intent, grammar.Step{Instruction: "irrelevant", StoreAs: "status"})
	require.NoError(t, err)
	require.Equal(t, "status", out.StoreAs)
}
