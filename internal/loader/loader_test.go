package loader_test

import (
	"testing"

	"aistep/internal/loader"
)

func TestDetect_ExplicitTagIsAuthoritative(t *testing.T) {
	plan := loader.Detect(loader.DefaultOptions(), []string{"@api"}, []string{
		`AI "click the Login button"`, // pattern would say browser, tag wins
	})
	if !plan.Requires(loader.SubsystemHTTP) {
		t.Fatalf("expected http subsystem from @api tag")
	}
	if plan.Requires(loader.SubsystemBrowser) {
		t.Fatalf("explicit tag set must exclude pattern-only subsystems")
	}
}

func TestDetect_FallsBackToPatternsWithNoTags(t *testing.T) {
	plan := loader.Detect(loader.DefaultOptions(), nil, []string{
		`AI "call the api endpoint and store as response"`,
		`AI "verify the table row count is 3"`,
	})
	if !plan.Requires(loader.SubsystemHTTP) {
		t.Fatalf("expected http subsystem from api pattern")
	}
	if !plan.Requires(loader.SubsystemDB) {
		t.Fatalf("expected db subsystem from table-row-count pattern")
	}
	if plan.Requires(loader.SubsystemBrowser) {
		t.Fatalf("no browser-shaped step text present")
	}
}

func TestDetect_DefaultsToBrowserWhenNothingMatches(t *testing.T) {
	plan := loader.Detect(loader.DefaultOptions(), nil, []string{`AI "do something unrecognised"`})
	if !plan.Requires(loader.SubsystemBrowser) {
		t.Fatalf("expected configured default subsystem on zero matches")
	}
}

func TestDetect_AlwaysLaunchBrowserOverride(t *testing.T) {
	opts := loader.DefaultOptions()
	opts.AlwaysLaunchBrowser = true
	plan := loader.Detect(opts, []string{"@api"}, nil)
	if !plan.Requires(loader.SubsystemBrowser) {
		t.Fatalf("BROWSER_ALWAYS_LAUNCH must force the browser subsystem regardless of tags")
	}
	if !plan.Requires(loader.SubsystemHTTP) {
		t.Fatalf("override must not drop the explicitly tagged subsystem")
	}
}

func TestDetect_ExplicitModeIgnoresPatterns(t *testing.T) {
	plan := loader.Detect(loader.Options{Mode: loader.ModeExplicit}, nil, []string{
		`AI "click the Login button"`,
	})
	if len(plan.Subsystems) != 0 {
		t.Fatalf("explicit mode with no tags must produce an empty plan, got %v", plan.Subsystems)
	}
}

func TestDetect_AutoModeIgnoresTags(t *testing.T) {
	plan := loader.Detect(loader.Options{Mode: loader.ModeAuto, DefaultSubsystem: loader.SubsystemBrowser}, []string{"@api"}, []string{
		`AI "click the Login button"`,
	})
	if plan.Requires(loader.SubsystemHTTP) {
		t.Fatalf("auto mode must ignore tags entirely")
	}
	if !plan.Requires(loader.SubsystemBrowser) {
		t.Fatalf("expected browser subsystem from click pattern")
	}
}
