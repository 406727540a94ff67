package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"aistep/internal/adapters/restyhttp"
	"aistep/internal/adapters/rodpage"
	"aistep/internal/adapters/sqlitedb"
	"aistep/internal/executor"
	"aistep/internal/grammar"
	"aistep/internal/healing"
	"aistep/internal/loader"
	"aistep/internal/page"
	"aistep/internal/resolver"
	"aistep/internal/types"
	"aistep/internal/worker"
)

var scenariosPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run scenarios from a scenario fixture file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScenarios(cmd.Context())
	},
}

func init() {
	runCmd.Flags().StringVarP(&scenariosPath, "scenarios", "s", "scenarios.json", "Path to the scenario fixture file")
}

func runScenarios(ctx context.Context) error {
	scenarios, err := loadScenarios(scenariosPath)
	if err != nil {
		return err
	}

	db, err := sqlitedb.Open(cfg.Adapters.DBPath)
	if err != nil {
		return fmt.Errorf("open db adapter: %w", err)
	}
	defer db.Close()

	httpClient := restyhttp.New(cfg.Adapters.HTTPBaseURL, cfg.HTTPTimeout())

	pageFactory := func(ctx context.Context) (page.Page, error) {
		opts := rodpage.DefaultOptions()
		opts.Headless = cfg.Adapters.BrowserHeadless
		return rodpage.New(ctx, opts)
	}

	opts := worker.Options{
		Count:             cfg.Worker.Count,
		BrowserReuse:      cfg.Worker.BrowserReuse,
		FailFast:          cfg.Worker.FailFast,
		ContinueOnFailure: cfg.Executor.ContinueOnFailure,
		Loader: loader.Options{
			Mode:                loader.Mode(cfg.Loader.Mode),
			DefaultSubsystem:    loader.Subsystem(cfg.Loader.DefaultSubsystem),
			AlwaysLaunchBrowser: cfg.Loader.AlwaysLaunchBrowser,
		},
		Resolver: resolver.Options{
			ConfidenceThreshold: cfg.Resolver.ConfidenceThreshold,
			TieTolerance:        cfg.Resolver.TieTolerance,
			Weights:             cfg.Resolver.SimilarityWeights,
		},
		Healing: healing.Options{
			HealingTimeout:      cfg.HealingTimeout(),
			MaxAttempts:         cfg.Healing.MaxAttempts,
			ConfidenceThreshold: cfg.Resolver.ConfidenceThreshold,
			ReorderMargin:       cfg.Healing.ReorderMargin,
			Window:              cfg.Healing.ReorderWindow,
			ResolverWeights:     cfg.Resolver.SimilarityWeights,
		},
		Executor: executor.Options{
			AssertionRetryBudget: cfg.AssertionRetryBudget(),
			StepBudget:           cfg.StepBudget(),
			MaxWaitMs:            cfg.Executor.MaxWaitMs,
			ScreenshotMode:       executor.ScreenshotMode(cfg.Executor.ScreenshotMode),
			NetworkLogLines:      cfg.Executor.NetworkLogLines,
			ConsoleLogLines:      cfg.Executor.ConsoleLogLines,
		},
	}

	pool := worker.New(opts, worker.Capabilities{
		NewPage: pageFactory,
		HTTP:    httpClient,
		DB:      db,
	}, grammar.NewParser(grammar.NewDefaultRegistry()), configLookup)

	summary, err := pool.Run(ctx, scenarios)
	printSummary(summary)
	if err != nil {
		return fmt.Errorf("pool aborted: %w", err)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d scenario(s) failed", summary.Failed)
	}
	return nil
}

func configLookup(key string) (string, bool) {
	switch key {
	case "http_base_url":
		return cfg.Adapters.HTTPBaseURL, true
	case "db_path":
		return cfg.Adapters.DBPath, true
	default:
		return "", false
	}
}

func printSummary(summary worker.Summary) {
	fmt.Println(headStyle.Render("aistep run summary"))
	for _, r := range summary.Results {
		label := fmt.Sprintf("  %s", r.Name)
		switch {
		case r.Skipped:
			fmt.Println(skipStyle.Render(label + " [skipped]"))
		case r.Status == types.OutcomeOK:
			fmt.Println(passStyle.Render(label + " [passed]") + mutedStyle.Render(fmt.Sprintf(" (%s)", r.Duration.Round(time.Millisecond))))
		default:
			fmt.Println(failStyle.Render(label+" [failed]") + mutedStyle.Render(fmt.Sprintf(": %v", r.Err)))
		}
	}
	fmt.Printf("%s %d  %s %d  %s %d\n",
		passStyle.Render("passed"), summary.Passed,
		failStyle.Render("failed"), summary.Failed,
		skipStyle.Render("skipped"), summary.Skipped)
}
