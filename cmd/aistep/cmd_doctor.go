package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"aistep/internal/adapters/rodpage"
	"aistep/internal/adapters/sqlitedb"
)

var doctorCheckBrowser bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the configured adapters are reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor(cmd.Context())
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorCheckBrowser, "browser", false, "Also launch a headless browser to confirm rod/Chromium is reachable")
}

type check struct {
	name string
	err  error
}

func runDoctor(ctx context.Context) error {
	fmt.Println(headStyle.Render("aistep doctor"))
	checks := []check{checkConfig(), checkDB()}
	if doctorCheckBrowser {
		checks = append(checks, checkBrowser(ctx))
	}

	failed := 0
	for _, c := range checks {
		if c.err != nil {
			failed++
			fmt.Println(failStyle.Render("  FAIL ") + c.name + mutedStyle.Render(": "+c.err.Error()))
			continue
		}
		fmt.Println(passStyle.Render("  OK   ") + c.name)
	}
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func checkConfig() check {
	if cfg == nil {
		return check{name: "config loaded", err: fmt.Errorf("config was not loaded")}
	}
	return check{name: fmt.Sprintf("config loaded (workers=%d, screenshot=%s)", cfg.Worker.Count, cfg.Executor.ScreenshotMode)}
}

func checkDB() check {
	db, err := sqlitedb.Open(cfg.Adapters.DBPath)
	if err != nil {
		return check{name: fmt.Sprintf("sqlite adapter (%s)", cfg.Adapters.DBPath), err: err}
	}
	defer db.Close()
	if _, err := db.Query(context.Background(), "SELECT 1"); err != nil {
		return check{name: fmt.Sprintf("sqlite adapter (%s)", cfg.Adapters.DBPath), err: err}
	}
	return check{name: fmt.Sprintf("sqlite adapter (%s)", cfg.Adapters.DBPath)}
}

func checkBrowser(ctx context.Context) check {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	opts := rodpage.DefaultOptions()
	opts.Headless = true
	p, err := rodpage.New(ctx, opts)
	if err != nil {
		return check{name: "headless browser launch", err: err}
	}
	defer p.Close(context.Background())
	return check{name: "headless browser launch"}
}
