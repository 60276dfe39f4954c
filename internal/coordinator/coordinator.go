// Package coordinator is the Run Coordinator: the external interface
// boundary that allocates run ids, starts fresh runs, resumes recoverable
// ones, and reports status. It is the only package external callers (a
// CLI, or some other process embedding this module) are expected to use
// directly.
package coordinator

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"

	"github.com/ArtemOtr/taskflow/internal/binder"
	"github.com/ArtemOtr/taskflow/internal/cache"
	"github.com/ArtemOtr/taskflow/internal/dag"
	"github.com/ArtemOtr/taskflow/internal/events"
	"github.com/ArtemOtr/taskflow/internal/executor"
	"github.com/ArtemOtr/taskflow/internal/logger"
	"github.com/ArtemOtr/taskflow/internal/metrics"
	"github.com/ArtemOtr/taskflow/internal/packager"
	"github.com/ArtemOtr/taskflow/internal/registry"
	"github.com/ArtemOtr/taskflow/internal/results"
	"github.com/ArtemOtr/taskflow/internal/scheduler"
	"github.com/ArtemOtr/taskflow/internal/store"
	"github.com/ArtemOtr/taskflow/internal/taskerr"
)

// RunResult is returned once a run finishes, successfully or not.
type RunResult struct {
	RunID      string
	ArtifactZip string
	Results    map[string]map[string]any
	Err        error
}

// Coordinator is the Go equivalent of the original's Quart HTTP
// entrypoint minus the HTTP transport itself: transport (an HTTP API, a
// CLI, a messaging bot) is an external collaborator layered on top of
// this type, never implemented here.
type Coordinator struct {
	Registry    *registry.Registry
	Store       store.Store
	Cache       cache.Cache
	Events      events.Publisher
	Metrics     *metrics.Collector
	RunDir      string
	Concurrency int

	mu   sync.Mutex
	runs map[string]*results.Map
}

// New builds a Coordinator. Registry and Store are required; the rest
// have usable zero-value defaults (no cache, a no-op event publisher, no
// metrics, concurrency 1).
func New(reg *registry.Registry, st store.Store) *Coordinator {
	return &Coordinator{
		Registry:    reg,
		Store:       st,
		Events:      events.Noop{},
		Concurrency: 1,
		runs:        make(map[string]*results.Map),
	}
}

// Submit validates cfg, allocates a fresh run id, and executes the DAG to
// completion before returning.
func (c *Coordinator) Submit(ctx context.Context, cfg dag.Config) (RunResult, error) {
	if err := dag.Validate(cfg, c.Registry.Exists); err != nil {
		return RunResult{}, err
	}
	cfg = cfg.WithDefaults()

	runID, err := c.allocateRunID(ctx)
	if err != nil {
		return RunResult{}, err
	}

	if err := c.Store.InitPartition(ctx, runID); err != nil {
		return RunResult{}, err
	}

	return c.execute(ctx, runID, cfg, nil)
}

// Resume re-executes runID from whatever state the store already has for
// it, skipping tasks already recorded as completed. cfg must be the same
// DAG definition the original run was submitted with; the spec treats
// config drift across a resume as caller error, not something this
// package detects.
func (c *Coordinator) Resume(ctx context.Context, runID string, cfg dag.Config) (RunResult, error) {
	if err := dag.Validate(cfg, c.Registry.Exists); err != nil {
		return RunResult{}, err
	}
	cfg = cfg.WithDefaults()

	states, err := c.Store.Load(ctx, runID)
	if err != nil {
		return RunResult{}, taskerr.Storef(err, "load run %s for resume", runID)
	}
	if len(states) == 0 {
		return RunResult{}, taskerr.Configf("run %s has no recorded state to resume", runID)
	}

	recovered := results.NewMap()
	for _, s := range states {
		if s.Status == store.StatusCompleted {
			recovered.Set(s.TaskID, s.Result)
		}
	}

	return c.execute(ctx, runID, cfg, recovered)
}

// Status returns the recorded task states for runID, for an external
// caller polling progress.
func (c *Coordinator) Status(ctx context.Context, runID string) ([]store.TaskState, error) {
	return c.Store.Load(ctx, runID)
}

func (c *Coordinator) execute(ctx context.Context, runID string, cfg dag.Config, recovered *results.Map) (RunResult, error) {
	ctx = logger.WithRun(ctx, runID)

	res := recovered
	if res == nil {
		res = results.NewMap()
	}
	c.trackRun(runID, res)
	defer c.untrackRun(runID)

	if err := c.seedParams(ctx, runID, cfg); err != nil {
		return RunResult{RunID: runID}, err
	}

	ex := &executor.Executor{
		Registry: c.Registry,
		Store:    c.Store,
		Results:  res,
		Cache:    c.Cache,
		Events:   c.Events,
		Metrics:  c.Metrics,
		RunDir:   c.RunDir,
	}
	sched := &scheduler.Scheduler{Executor: ex, Concurrency: c.Concurrency}

	c.publish(ctx, events.RunStarted, runID)
	runErr := sched.Run(ctx, runID, cfg, res)
	if runErr != nil {
		c.publish(ctx, events.RunFailed, runID)
		return RunResult{RunID: runID, Results: res.Snapshot(), Err: runErr}, runErr
	}
	c.publish(ctx, events.RunCompleted, runID)

	if c.RunDir != "" {
		zipPath, err := packager.New(c.RunDir).Package(ctx, runID, cfg, res)
		if err != nil {
			return RunResult{RunID: runID, Results: res.Snapshot()}, err
		}
		if err := c.Store.CleanupPartition(ctx, runID); err != nil {
			logger.Warn(ctx, "failed to clean up run partition after packaging", "run_id", runID, "err", err)
		}
		return RunResult{RunID: runID, ArtifactZip: zipPath, Results: res.Snapshot()}, nil
	}

	return RunResult{RunID: runID, Results: res.Snapshot()}, nil
}

// seedParams writes each task's precomputed parameter map - the
// operation's defaults merged with independent_params - to the params
// column before the run starts, for any task that does not already have
// a recorded state. A resumed run's already-recorded tasks keep whatever
// params they were last saved with; the Task Executor loads its basis
// from this column at the start of each task execution instead of being
// handed an in-memory map.
func (c *Coordinator) seedParams(ctx context.Context, runID string, cfg dag.Config) error {
	for _, t := range cfg.Tasks {
		_, found, err := c.Store.LoadTask(ctx, runID, t.ID)
		if err != nil {
			return taskerr.Storef(err, "check existing state for task %s", t.ID)
		}
		if found {
			continue
		}

		params, err := binder.Precompute(t, c.Registry.DefaultParameters)
		if err != nil {
			return err
		}
		if err := c.Store.Save(ctx, store.TaskState{
			RunID: runID, TaskID: t.ID, Status: store.StatusPending, Params: params,
		}); err != nil {
			return taskerr.Storef(err, "seed params for task %s", t.ID)
		}
	}
	return nil
}

// allocateRunID samples a random run id and retries on collision,
// matching the original's dag_id = random.randint(1_000_000, 9_999_999)
// loop that rerolls while a directory of that name already exists.
func (c *Coordinator) allocateRunID(ctx context.Context) (string, error) {
	for {
		n, err := rand.Int(rand.Reader, big.NewInt(9000000))
		if err != nil {
			return "", fmt.Errorf("coordinator: generate run id: %w", err)
		}
		candidate := fmt.Sprintf("dag%d", n.Int64()+1000000)

		if c.RunDir != "" {
			if _, err := os.Stat(filepath.Join(c.RunDir, candidate)); err == nil {
				continue
			}
		}

		existing, err := c.Store.Load(ctx, candidate)
		if err != nil {
			return "", taskerr.Storef(err, "check run id collision")
		}
		if len(existing) == 0 {
			return candidate, nil
		}
	}
}

func (c *Coordinator) trackRun(runID string, res *results.Map) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[runID] = res
}

func (c *Coordinator) untrackRun(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.runs, runID)
}

func (c *Coordinator) publish(ctx context.Context, kind events.Kind, runID string) {
	if c.Events == nil {
		return
	}
	if err := c.Events.Publish(ctx, events.Event{Kind: kind, RunID: runID}); err != nil {
		logger.Warn(ctx, "failed to publish run event", "kind", kind, "err", err)
	}
}
