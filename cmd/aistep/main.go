// Package main implements the aistep CLI — the reference orchestrator
// that wires the grammar parser, element resolver, self-healing engine
// and action executor into a runnable worker pool over the rodpage,
// restyhttp and sqlitedb reference adapters.
//
// # File Index
//
//   - main.go        - Entry point, rootCmd, global flags, init()
//   - cmd_run.go     - runCmd, runScenarios()
//   - cmd_doctor.go  - doctorCmd, runDoctor()
//   - cmd_config.go  - configCmd, configShowCmd
//   - scenario.go    - JSON scenario-fixture loader (stand-in producer
//     for the external Gherkin parser spec.md §6 places out of scope)
//   - styles.go      - lipgloss summary styling
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"aistep/internal/config"
	"aistep/internal/logging"
)

var (
	configPath string
	verbose    bool
	workerN    int

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "aistep",
	Short: "aistep - natural-language AI Step Engine for BDD browser automation",
	Long: `aistep turns a plain-English Gherkin step (AI "Click the Login button")
into a deterministic, executed browser/HTTP/DB action, with resilient
element resolution and self-healing when selectors drift.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := zapCfg.Build()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		logger = l
		logging.Init(logger)

		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if workerN > 0 {
			loaded.Worker.Count = workerN
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "aistep.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().IntVarP(&workerN, "workers", "w", 0, "Override configured worker count (0 = use config)")

	rootCmd.AddCommand(runCmd, doctorCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
