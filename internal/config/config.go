// Package config loads and hot-reloads the engine's configuration: every
// named tunable from spec.md §3/§4/§5/§9 (confidence threshold, tie
// tolerance, healing budgets, assertion retry budget, step timeout,
// screenshot mode, selective-loader mode) plus worker/concurrency and
// adapter connection settings, following the teacher's
// internal/config/config.go DefaultConfig/Load/Save/applyEnvOverrides shape.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"aistep/internal/loader"
	"aistep/internal/types"
)

// Config holds every engine-wide tunable.
type Config struct {
	Resolver   ResolverConfig   `yaml:"resolver"`
	Healing    HealingConfig    `yaml:"healing"`
	Executor   ExecutorConfig   `yaml:"executor"`
	Loader     LoaderConfig     `yaml:"loader"`
	Worker     WorkerConfig     `yaml:"worker"`
	Logging    LoggingConfig    `yaml:"logging"`
	Adapters   AdaptersConfig   `yaml:"adapters"`
}

// ResolverConfig mirrors spec.md §3/§4.2's weights/threshold/tolerance.
type ResolverConfig struct {
	SimilarityWeights   types.SimilarityWeights `yaml:"similarity_weights"`
	ConfidenceThreshold float64                 `yaml:"confidence_threshold"` // default 0.70
	TieTolerance        float64                 `yaml:"tie_tolerance"`       // default 0.05
}

// HealingConfig mirrors spec.md §4.3's strategy budgets.
type HealingConfig struct {
	AttemptBudget        string `yaml:"attempt_budget"`         // default "5s"
	HealingTimeout       string `yaml:"healing_timeout"`        // wait-for-visible budget, default "5s"
	MaxAttempts          int    `yaml:"max_attempts"`           // default 3
	ReorderWindow        int    `yaml:"reorder_window"`         // default 50
	ReorderMargin        float64 `yaml:"reorder_margin"`        // default 0.1 (10% effectiveness edge to reorder)
}

// ExecutorConfig mirrors spec.md §4.4's budgets and capture policy.
type ExecutorConfig struct {
	AssertionRetryBudget string `yaml:"assertion_retry_budget"` // default "5s"
	StepBudget           string `yaml:"step_budget"`            // default "60s"
	MaxWaitMs            int    `yaml:"max_wait_ms"`            // default 600000
	ScreenshotMode       string `yaml:"screenshot_mode"`        // off|on-failure|always
	NetworkLogLines      int    `yaml:"network_log_lines"`      // default 5
	ConsoleLogLines      int    `yaml:"console_log_lines"`      // default 5
	ContinueOnFailure    bool   `yaml:"continue_on_failure"`
}

// LoaderConfig mirrors spec.md §4.5's mode/default/override.
type LoaderConfig struct {
	Mode                string `yaml:"mode"` // explicit|auto|hybrid
	DefaultSubsystem    string `yaml:"default_subsystem"`
	AlwaysLaunchBrowser bool   `yaml:"always_launch_browser"` // BROWSER_ALWAYS_LAUNCH
}

// WorkerConfig mirrors spec.md §5's parallel worker model.
type WorkerConfig struct {
	Count            int  `yaml:"count"`
	BrowserReuse     bool `yaml:"browser_reuse"`
	FailFast         bool `yaml:"fail_fast"`
	RetryFailedOnNewWorker bool `yaml:"retry_failed_on_new_worker"`
}

// LoggingConfig selects zap's output shape.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // console|json
}

// AdaptersConfig holds connection settings for the reference capability
// adapters (spec.md §6's HTTP/DB capabilities are opaque to the core;
// these fields only configure this repo's own reference bindings).
type AdaptersConfig struct {
	HTTPBaseURL    string `yaml:"http_base_url"`
	HTTPTimeout    string `yaml:"http_timeout"`
	DBPath         string `yaml:"db_path"`
	BrowserHeadless bool  `yaml:"browser_headless"`
}

// DefaultConfig returns spec.md's stated defaults throughout.
func DefaultConfig() *Config {
	return &Config{
		Resolver: ResolverConfig{
			SimilarityWeights:   types.DefaultSimilarityWeights(),
			ConfidenceThreshold: 0.70,
			TieTolerance:        0.05,
		},
		Healing: HealingConfig{
			AttemptBudget:  "5s",
			HealingTimeout: "5s",
			MaxAttempts:    3,
			ReorderWindow:  50,
			ReorderMargin:  0.1,
		},
		Executor: ExecutorConfig{
			AssertionRetryBudget: "5s",
			StepBudget:           "60s",
			MaxWaitMs:            600000,
			ScreenshotMode:       "on-failure",
			NetworkLogLines:      5,
			ConsoleLogLines:      5,
		},
		Loader: LoaderConfig{
			Mode:             string(loader.ModeHybrid),
			DefaultSubsystem: string(loader.SubsystemBrowser),
		},
		Worker: WorkerConfig{
			Count:        1,
			BrowserReuse: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Adapters: AdaptersConfig{
			HTTPTimeout: "30s",
			DBPath:      "data/aistep.db",
		},
	}
}

// Load reads path as YAML over the defaults, then applies environment
// overrides. A missing file is not an error — it yields pure defaults
// plus overrides, the teacher's own Load behaviour.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes c as YAML to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnvOverrides lets deployment environments override file config
// without editing it, per the teacher's own env-override convention.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AI_CONFIDENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Resolver.ConfidenceThreshold = f
		}
	}
	if v := os.Getenv("AI_TIE_TOLERANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Resolver.TieTolerance = f
		}
	}
	if v := os.Getenv("AI_HEALING_TIMEOUT"); v != "" {
		c.Healing.HealingTimeout = v
	}
	if v := os.Getenv("AI_MAX_HEALING_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Healing.MaxAttempts = n
		}
	}
	if v := os.Getenv("BROWSER_ALWAYS_LAUNCH"); v != "" {
		c.Loader.AlwaysLaunchBrowser = v == "1" || v == "true"
	}
	if v := os.Getenv("AI_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Worker.Count = n
		}
	}
	if v := os.Getenv("AI_DB_PATH"); v != "" {
		c.Adapters.DBPath = v
	}
	if v := os.Getenv("AI_HTTP_BASE_URL"); v != "" {
		c.Adapters.HTTPBaseURL = v
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func (c *Config) AssertionRetryBudget() time.Duration {
	return parseDuration(c.Executor.AssertionRetryBudget, 5*time.Second)
}

func (c *Config) StepBudget() time.Duration {
	return parseDuration(c.Executor.StepBudget, 60*time.Second)
}

func (c *Config) HealingAttemptBudget() time.Duration {
	return parseDuration(c.Healing.AttemptBudget, 5*time.Second)
}

func (c *Config) HealingTimeout() time.Duration {
	return parseDuration(c.Healing.HealingTimeout, 5*time.Second)
}

func (c *Config) HTTPTimeout() time.Duration {
	return parseDuration(c.Adapters.HTTPTimeout, 30*time.Second)
}

// Watcher hot-reloads a config file on change, per SPEC_FULL.md's ambient
// config-stack expansion (the teacher ships no fsnotify watcher itself,
// but carries fsnotify as a dependency; this is that dependency's home).
type Watcher struct {
	path string
	w    *fsnotify.Watcher
	mu   sync.RWMutex
	cur  *Config
}

// NewWatcher loads path once, then watches it for changes.
func NewWatcher(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start config watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}
	watcher := &Watcher{path: path, w: fw, cur: cfg}
	go watcher.loop()
	return watcher, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if cfg, err := Load(w.path); err == nil {
				w.mu.Lock()
				w.cur = cfg
				w.mu.Unlock()
			}
		case _, ok := <-w.w.Errors:
			if !ok {
				return
			}
		}
	}
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cur
}

// Close stops the underlying filesystem watch.
func (w *Watcher) Close() error { return w.w.Close() }
