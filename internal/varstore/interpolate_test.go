package varstore

import (
	"os"
	"testing"

	"aistep/internal/types"
	"github.com/stretchr/testify/require"
)

func TestInterpolate_ScenarioAndAliases(t *testing.T) {
	sc := NewScenarioContext(nil)
	sc.Set("username", StringValue("alice"))

	in := &Interpolator{Scenario: sc}

	for _, text := range []string{
		`Type '{scenario:username}' in the Username field`,
		`Type '{{username}}' in the Username field`,
		`Type '$username' in the Username field`,
	} {
		got, err := in.Interpolate(text)
		require.NoError(t, err)
		require.Contains(t, got, "alice")
	}
}

func TestInterpolate_Feature(t *testing.T) {
	fc := NewFeatureContext()
	fc.Set("env_name", StringValue("staging"))
	sc := NewScenarioContext(fc)
	in := &Interpolator{Scenario: sc}

	got, err := in.Interpolate(`Navigate to 'https://{feature:env_name}.example.test'`)
	require.NoError(t, err)
	require.Equal(t, `Navigate to 'https://staging.example.test'`, got)
}

func TestInterpolate_Env(t *testing.T) {
	os.Setenv("AISTEP_TEST_ENV_VAR", "from-env")
	defer os.Unsetenv("AISTEP_TEST_ENV_VAR")

	in := &Interpolator{Scenario: NewScenarioContext(nil)}
	got, err := in.Interpolate(`AI "Verify the title is '{env:AISTEP_TEST_ENV_VAR}'"`)
	require.NoError(t, err)
	require.Contains(t, got, "from-env")
}

func TestInterpolate_Unresolved(t *testing.T) {
	in := &Interpolator{Scenario: NewScenarioContext(nil)}
	_, err := in.Interpolate(`Type '{scenario:missing}' in the field`)
	require.Error(t, err)
	var verr *types.VariableUnresolvedError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "scenario", verr.Scope)
	require.Equal(t, "missing", verr.Key)
}

func TestScenarioContext_ResetIsolatesScenarios(t *testing.T) {
	sc := NewScenarioContext(nil)
	sc.Set("x", StringValue("first"))
	sc.Reset()
	_, ok := sc.Get("x")
	require.False(t, ok, "variable set by a prior scenario must not be readable after reset")
}

func TestOutline_Expand(t *testing.T) {
	got := ExpandOutline(`Type '<user>' in the Username field`, map[string]string{"user": "bob"})
	require.Equal(t, `Type 'bob' in the Username field`, got)
}
