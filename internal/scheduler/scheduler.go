package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ArtemOtr/taskflow/internal/dag"
	"github.com/ArtemOtr/taskflow/internal/executor"
	"github.com/ArtemOtr/taskflow/internal/logger"
	"github.com/ArtemOtr/taskflow/internal/results"
	"github.com/ArtemOtr/taskflow/internal/taskerr"
)

// Scheduler dispatches a DAG's tasks with bounded concurrency, picking up
// newly-ready tasks as their dependencies complete.
type Scheduler struct {
	Executor    *executor.Executor
	Concurrency int
}

// Run executes every task in cfg, starting from whatever is already
// ready in res (on a fresh run, res is empty; on a resumed run, res is
// pre-populated with the results of previously-completed tasks).
//
// A task that exhausts its retries is not fatal to the run: it is
// recorded as failed and the scheduler keeps dispatching the rest of the
// DAG, exactly like any dependent of that task simply never becoming
// ready. Run only returns an error for a run-level failure -
// configuration or state-store trouble - that leaves the DAG in no
// state worth continuing from.
func (s *Scheduler) Run(ctx context.Context, runID string, cfg dag.Config, res *results.Map) error {
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	var mu sync.Mutex
	dispatched := make(map[string]struct{}, len(cfg.Tasks))
	for _, t := range cfg.Tasks {
		if res.Has(t.ID) {
			dispatched[t.ID] = struct{}{}
		}
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(cfg.Tasks))

	var dispatch func()
	dispatch = func() {
		mu.Lock()
		runnable := ready(cfg, res, dispatched)
		for _, t := range runnable {
			dispatched[t.ID] = struct{}{}
		}
		mu.Unlock()

		for _, t := range runnable {
			task := t
			wg.Add(1)
			go func() {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				logger.Info(ctx, "dispatching task", "task_id", task.ID)
				if err := s.Executor.ExecuteTask(ctx, runID, task, cfg); err != nil {
					if isFatal(err) {
						errCh <- fmt.Errorf("task %s: %w", task.ID, err)
						return
					}
					logger.Warn(ctx, "task failed permanently, continuing with remaining DAG",
						"task_id", task.ID, "err", err)
					return
				}
				// recursive dispatch: this task's completion may have
				// made its dependents ready.
				dispatch()
			}()
		}
	}

	dispatch()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isFatal reports whether err should abort the entire run rather than be
// treated as one task's terminal failure. Configuration and state-store
// errors are run-level; everything an operation itself can raise is
// scoped to that task.
func isFatal(err error) bool {
	return errors.Is(err, taskerr.ErrConfig) || errors.Is(err, taskerr.ErrStore)
}
