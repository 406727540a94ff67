package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"aistep/internal/dbcap"
	"aistep/internal/executor"
	"aistep/internal/grammar"
	"aistep/internal/healing"
	"aistep/internal/httpcap"
	"aistep/internal/learning"
	"aistep/internal/loader"
	"aistep/internal/logging"
	"aistep/internal/page"
	"aistep/internal/resolver"
	"aistep/internal/types"
	"aistep/internal/varstore"
)

// PageFactory launches (or connects to) a fresh page capability for one
// worker. Called at most once per worker when browser reuse is on;
// once per scenario that needs a browser when it is off.
type PageFactory func(ctx context.Context) (page.Page, error)

// Capabilities are the external collaborators a Pool wires into every
// worker's RuntimeContext, per spec.md §6.
type Capabilities struct {
	NewPage PageFactory
	HTTP    httpcap.Capability
	DB      dbcap.Capability
}

// Options tunes the pool, mirroring config.WorkerConfig plus the
// budgets each per-worker collaborator needs.
type Options struct {
	Count             int
	BrowserCapacity   int // concurrent live browsers allowed; 0 = Count
	BrowserReuse      bool
	FailFast          bool
	ContinueOnFailure bool // keep running a scenario's remaining steps after a step fails
	Loader            loader.Options
	Resolver          resolver.Options
	Healing           healing.Options
	Executor          executor.Options
}

// DefaultOptions mirrors config.DefaultConfig's worker/loader/resolver/
// healing/executor defaults.
func DefaultOptions() Options {
	return Options{
		Count:        1,
		BrowserReuse: true,
		Loader:       loader.DefaultOptions(),
		Resolver:     resolver.DefaultOptions(),
		Healing:      healing.DefaultOptions(),
		Executor:     executor.DefaultOptions(),
	}
}

// StepResult is one executed (or skipped) AI step within a scenario.
type StepResult struct {
	Instruction string
	Skipped     bool
	Outcome     executor.Outcome
}

// ScenarioResult is the pool's per-scenario verdict, per spec.md §6's
// "failed count, passed count, skipped count" exit surface.
type ScenarioResult struct {
	Name     string
	WorkerID int
	Status   types.OutcomeStatus
	Skipped  bool
	Err      error
	Steps    []StepResult
	Duration time.Duration
}

// Summary aggregates every scenario's verdict plus each worker's
// LearningStore, merged per spec.md §5: "ordered by recorded timestamp
// with worker-id as a tiebreaker".
type Summary struct {
	Results []ScenarioResult
	Passed  int
	Failed  int
	Skipped int
	Records []types.OutcomeRecord
}

// Pool runs scenarios across Options.Count persistent workers, each a
// single-threaded cooperative loop per spec.md §5 ("within a worker,
// the core is single-threaded cooperative").
type Pool struct {
	opts         Options
	caps         Capabilities
	parser       *grammar.Parser
	configLookup varstore.ConfigLookup
	browserSem   *semaphore.Weighted
	log          *zap.Logger
}

// New constructs a Pool. parser is shared read-only across workers
// (grammar.Registry is mutex-guarded); configLookup resolves
// {config:KEY} interpolation references and may be nil.
func New(opts Options, caps Capabilities, parser *grammar.Parser, configLookup varstore.ConfigLookup) *Pool {
	if opts.Count < 1 {
		opts.Count = 1
	}
	capacity := opts.BrowserCapacity
	if capacity < 1 {
		capacity = opts.Count
	}
	return &Pool{
		opts:         opts,
		caps:         caps,
		parser:       parser,
		configLookup: configLookup,
		browserSem:   semaphore.NewWeighted(int64(capacity)),
		log:          logging.Named(logging.CategoryWorker),
	}
}

type indexedScenario struct {
	index int
	sc    Scenario
}

// Run executes every scenario and returns the aggregate Summary. It
// returns a non-nil error only when Options.FailFast aborted the run;
// individual scenario failures are always reflected in the Summary, not
// the error.
func (p *Pool) Run(ctx context.Context, scenarios []Scenario) (Summary, error) {
	results := make([]ScenarioResult, len(scenarios))
	for i, sc := range scenarios {
		results[i] = ScenarioResult{Name: sc.Name, Skipped: true}
	}

	jobs := make(chan indexedScenario)
	var mu sync.Mutex
	var stores []*learning.Store

	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < p.opts.Count; w++ {
		workerID := w
		g.Go(func() error {
			store, err := learning.New()
			if err != nil {
				return fmt.Errorf("worker %d: new learning store: %w", workerID, err)
			}
			mu.Lock()
			stores = append(stores, store)
			mu.Unlock()
			return p.runWorker(gctx, workerID, store, jobs, results, &mu)
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for i, sc := range scenarios {
			select {
			case jobs <- indexedScenario{index: i, sc: sc}:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	runErr := g.Wait()
	summary := buildSummary(results, stores)
	return summary, runErr
}

// runWorker is the single-threaded cooperative loop of spec.md §5: it
// pulls scenarios off the shared queue strictly sequentially, lazily
// constructing (and, per BrowserReuse, keeping) its own page capability.
func (p *Pool) runWorker(ctx context.Context, workerID int, store *learning.Store, jobs <-chan indexedScenario, results []ScenarioResult, mu *sync.Mutex) error {
	res := resolver.New(p.opts.Resolver)
	heal := healing.New(p.opts.Healing, res, store)
	exec := executor.New(p.opts.Executor, res, heal)

	var pg page.Page
	var browserHeld bool
	defer func() {
		if pg != nil {
			_ = pg.Close(context.Background())
		}
		if browserHeld {
			p.browserSem.Release(1)
		}
	}()

	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return nil
			}
			result := p.runScenario(ctx, workerID, job.sc, exec, res, store, &pg, &browserHeld)
			mu.Lock()
			results[job.index] = result
			mu.Unlock()
			if p.opts.FailFast && result.Status == types.OutcomeErr {
				return result.Err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (p *Pool) runScenario(ctx context.Context, workerID int, sc Scenario, exec *executor.Executor, res *resolver.Resolver, store *learning.Store, pg *page.Page, browserHeld *bool) ScenarioResult {
	start := time.Now()
	result := ScenarioResult{Name: sc.Name, WorkerID: workerID, Status: types.OutcomeOK}

	stepTexts := make([]string, len(sc.Steps))
	for i, s := range sc.Steps {
		stepTexts[i] = s.Text
	}
	plan := loader.Detect(p.opts.Loader, sc.Tags, stepTexts)

	rc := &executor.RuntimeContext{
		Learning:    store,
		Diagnostics: noopSink{},
	}
	if plan.Requires(loader.SubsystemHTTP) {
		rc.HTTP = p.caps.HTTP
	}
	if plan.Requires(loader.SubsystemDB) {
		rc.DB = p.caps.DB
	}
	if plan.Requires(loader.SubsystemBrowser) {
		if err := p.ensurePage(ctx, pg, browserHeld); err != nil {
			result.Status = types.OutcomeErr
			result.Err = err
			result.Duration = time.Since(start)
			return result
		}
		rc.Page = *pg
		res.InvalidateOnNavigation()
	}

	feature := varstore.NewFeatureContext()
	scenarioCtx := varstore.NewScenarioContext(feature)
	rc.Scenario = scenarioCtx
	interp := &varstore.Interpolator{Scenario: scenarioCtx, Config: p.configLookup}

	failed := false
	for _, step := range sc.Steps {
		if !step.IsAI() {
			continue
		}
		sr := p.runStep(ctx, step, interp, scenarioCtx, exec, rc)
		result.Steps = append(result.Steps, sr)
		if sr.Skipped {
			continue
		}
		if sr.Outcome.Status == types.OutcomeErr {
			failed = true
			if !p.opts.ContinueOnFailure {
				break
			}
		}
	}

	if !p.opts.BrowserReuse && pg != nil && *pg != nil {
		_ = (*pg).Close(ctx)
		*pg = nil
		if *browserHeld {
			p.browserSem.Release(1)
			*browserHeld = false
		}
	} else if pg != nil && *pg != nil {
		if err := (*pg).ResetForReuse(ctx); err != nil {
			p.log.Warn("reset for reuse failed, tainting browser context", zap.Error(err), zap.String("scenario", sc.Name))
			_ = (*pg).Close(ctx)
			*pg = nil
			if *browserHeld {
				p.browserSem.Release(1)
				*browserHeld = false
			}
		}
	}

	if failed {
		result.Status = types.OutcomeErr
	}
	result.Duration = time.Since(start)
	return result
}

func (p *Pool) runStep(ctx context.Context, step GherkinStep, interp *varstore.Interpolator, scenarioCtx *varstore.ScenarioContext, exec *executor.Executor, rc *executor.RuntimeContext) StepResult {
	line, err := interp.Interpolate(step.Text)
	if err != nil {
		return StepResult{Instruction: step.Text, Outcome: executor.Outcome{Status: types.OutcomeErr, Err: err}}
	}

	wireStep, ok := grammar.ParseStepText(line)
	if !ok {
		err := &types.ParseError{Reason: types.ParseNoMatch, Instruction: line}
		return StepResult{Instruction: line, Outcome: executor.Outcome{Status: types.OutcomeErr, Err: err}}
	}

	if wireStep.HasCondition {
		var resolved string
		if v, ok := scenarioCtx.Get(wireStep.CondVar); ok {
			resolved = v.String()
		}
		if !wireStep.ConditionHolds(resolved) {
			return StepResult{Instruction: wireStep.Instruction, Skipped: true}
		}
	}

	intent, err := p.parser.Parse(wireStep.Instruction)
	if err != nil {
		return StepResult{Instruction: wireStep.Instruction, Outcome: executor.Outcome{Status: types.OutcomeErr, Err: err}}
	}
	intent, err = grammar.ApplyClauses(intent, wireStep)
	if err != nil {
		return StepResult{Instruction: wireStep.Instruction, Outcome: executor.Outcome{Status: types.OutcomeErr, Err: err}}
	}

	return StepResult{Instruction: wireStep.Instruction, Outcome: exec.Execute(ctx, intent, rc)}
}

// ensurePage lazily constructs (and, for the pool's browser-capacity
// limit, acquires) the worker's page capability the first time a
// scenario needs the browser subsystem.
func (p *Pool) ensurePage(ctx context.Context, pg *page.Page, browserHeld *bool) error {
	if *pg != nil {
		return nil
	}
	if p.caps.NewPage == nil {
		return &types.IntegrationError{Collaborator: "browser", Cause: fmt.Errorf("no page capability factory configured")}
	}
	if !*browserHeld {
		if err := p.browserSem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("acquire browser capacity: %w", err)
		}
		*browserHeld = true
	}
	newPg, err := p.caps.NewPage(ctx)
	if err != nil {
		p.browserSem.Release(1)
		*browserHeld = false
		return fmt.Errorf("launch page: %w", err)
	}
	*pg = newPg
	return nil
}

type noopSink struct{}

func (noopSink) Record(types.Diagnostic) {}

func buildSummary(results []ScenarioResult, stores []*learning.Store) Summary {
	summary := Summary{Results: results}
	for _, r := range results {
		switch {
		case r.Skipped:
			summary.Skipped++
		case r.Status == types.OutcomeOK:
			summary.Passed++
		default:
			summary.Failed++
		}
	}
	var all []types.OutcomeRecord
	for _, s := range stores {
		if s == nil {
			continue
		}
		all = append(all, s.Records()...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].TimestampUTC.Equal(all[j].TimestampUTC) {
			return all[i].TimestampUTC.Before(all[j].TimestampUTC)
		}
		return all[i].ID < all[j].ID
	})
	summary.Records = all
	return summary
}
