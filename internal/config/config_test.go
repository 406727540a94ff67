package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"aistep/internal/config"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, 0.70, cfg.Resolver.ConfidenceThreshold)
	require.Equal(t, 0.05, cfg.Resolver.TieTolerance)
	require.Equal(t, 3, cfg.Healing.MaxAttempts)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resolver:\n  confidence_threshold: 0.85\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 0.85, cfg.Resolver.ConfidenceThreshold)
	require.Equal(t, 0.05, cfg.Resolver.TieTolerance, "fields absent from the file keep their default")
}

func TestApplyEnvOverrides_BrowserAlwaysLaunch(t *testing.T) {
	t.Setenv("BROWSER_ALWAYS_LAUNCH", "true")
	t.Setenv("AI_MAX_HEALING_ATTEMPTS", "5")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.True(t, cfg.Loader.AlwaysLaunchBrowser)
	require.Equal(t, 5, cfg.Healing.MaxAttempts)
}

func TestSave_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := config.DefaultConfig()
	cfg.Worker.Count = 4
	require.NoError(t, cfg.Save(path))

	reloaded, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, reloaded.Worker.Count)
}

func TestDurationHelpers_FallBackOnUnparseable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Executor.StepBudget = "not-a-duration"
	require.Equal(t, 60_000, int(cfg.StepBudget().Milliseconds()))
}
