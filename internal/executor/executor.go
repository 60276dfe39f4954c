// Package executor is the Task Executor: runs one task's operation to
// completion or exhaustion, persisting state before and after every
// attempt and relocating a well-known output file path the way the
// original's _execute_single_task does.
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ArtemOtr/taskflow/internal/backoff"
	"github.com/ArtemOtr/taskflow/internal/binder"
	"github.com/ArtemOtr/taskflow/internal/cache"
	"github.com/ArtemOtr/taskflow/internal/dag"
	"github.com/ArtemOtr/taskflow/internal/events"
	"github.com/ArtemOtr/taskflow/internal/logger"
	"github.com/ArtemOtr/taskflow/internal/metrics"
	"github.com/ArtemOtr/taskflow/internal/registry"
	"github.com/ArtemOtr/taskflow/internal/results"
	"github.com/ArtemOtr/taskflow/internal/store"
	"github.com/ArtemOtr/taskflow/internal/taskerr"
)

// outputFileKey is the reserved result key the original implementation
// treats specially: if an operation's result contains it, the referenced
// file is relocated into the run's artifact directory.
const outputFileKey = "output_file_path"

// Executor runs tasks against a shared registry, store, and results map.
type Executor struct {
	Registry *registry.Registry
	Store    store.Store
	Results  *results.Map
	Cache    cache.Cache
	Events   events.Publisher
	Metrics  *metrics.Collector

	// RunDir is the directory output_file_path files are relocated into
	// after a successful attempt, mirroring the original's per-run
	// working directory.
	RunDir string
}

// ExecuteTask runs task to completion (success or retries exhausted),
// persisting a state row before and after every attempt. The returned
// error is non-nil only once the task has failed for the final time.
//
// The parameter basis for each attempt comes from the state store, not
// from an in-memory map handed down by the Scheduler: ExecuteTask loads
// whatever was last recorded under (runID, task.ID) and falls back to a
// fresh binder.Precompute against the registry when nothing has been
// recorded yet (a task executed without the Run Coordinator's partition
// init having run first, as in a unit test). The basis is loaded once per
// ExecuteTask call; every attempt layers dependent_params resolution on
// top of it and writes the full result back to the params column before
// the operation runs.
func (e *Executor) ExecuteTask(ctx context.Context, runID string, task dag.TaskDescriptor, cfg dag.Config) error {
	ctx = logger.WithTask(ctx, task.ID)

	op, ok := e.Registry.Lookup(task.Operation)
	if !ok {
		return taskerr.Configf("task %s: operation %q not registered", task.ID, task.Operation)
	}

	basis, err := e.paramBasis(ctx, runID, task)
	if err != nil {
		return err
	}

	retrier := backoff.NewRetrier(&backoff.ConstantPolicy{
		Interval:   time.Duration(cfg.RetryDelay) * time.Second,
		MaxRetries: cfg.MaxRetries,
	})

	var lastErr error
	for attempt := 0; ; attempt++ {
		attemptCtx := logger.WithContext(ctx, logger.FromContext(ctx).With("attempt_id", uuid.NewString()))

		params, resolveErr := binder.Resolve(task, basis, e.Results)
		paramsToSave := params
		if resolveErr != nil {
			// dependent_params could not be resolved this attempt; persist
			// the known basis rather than overwrite it with nothing.
			paramsToSave = basis
		}

		if err := e.saveState(attemptCtx, runID, task.ID, store.StatusRunning, attempt+1, paramsToSave, nil, ""); err != nil {
			return err
		}
		e.publish(attemptCtx, events.TaskStarted, runID, task.ID, nil)
		if e.Metrics != nil {
			e.Metrics.TasksInFlight.Inc()
		}

		if resolveErr != nil {
			lastErr = resolveErr
		} else {
			lastErr = e.attempt(attemptCtx, runID, task, op, params, attempt+1)
		}

		if e.Metrics != nil {
			e.Metrics.TasksInFlight.Dec()
		}

		if lastErr == nil {
			return nil
		}

		if err := e.saveState(attemptCtx, runID, task.ID, store.StatusFailed, attempt+1, paramsToSave, nil, lastErr.Error()); err != nil {
			return err
		}

		if !taskerr.Retryable(lastErr) {
			e.publish(attemptCtx, events.TaskFailed, runID, task.ID, map[string]any{"error": lastErr.Error()})
			return lastErr
		}

		if waitErr := retrier.Next(ctx); waitErr != nil {
			if e.Metrics != nil {
				e.Metrics.TaskFailures.WithLabelValues(task.Operation).Inc()
			}
			e.publish(ctx, events.TaskFailed, runID, task.ID, map[string]any{"error": lastErr.Error()})
			return lastErr
		}

		logger.Warn(attemptCtx, "task attempt failed, will retry", "attempt", attempt, "err", lastErr)
		if e.Metrics != nil {
			e.Metrics.TaskRetries.WithLabelValues(task.Operation).Inc()
		}
	}
}

// paramBasis loads the precomputed (defaults merged with
// independent_params) parameter map the Run Coordinator wrote to the
// params column at partition init. If nothing is recorded yet it
// computes and persists it itself, which keeps ExecuteTask usable
// against a bare Executor+Store in tests that skip the Coordinator.
func (e *Executor) paramBasis(ctx context.Context, runID string, task dag.TaskDescriptor) (map[string]any, error) {
	existing, found, err := e.Store.LoadTask(ctx, runID, task.ID)
	if err != nil {
		return nil, taskerr.Storef(err, "load params for task %s", task.ID)
	}
	if found && existing.Params != nil {
		return existing.Params, nil
	}

	basis, err := binder.Precompute(task, e.Registry.DefaultParameters)
	if err != nil {
		return nil, err
	}
	if err := e.saveState(ctx, runID, task.ID, store.StatusPending, 0, basis, nil, ""); err != nil {
		return nil, err
	}
	return basis, nil
}

// attempt runs a single invocation of op, handling caching and result
// persistence/relocation on success. attempts is the number of attempts
// made so far, including this one.
func (e *Executor) attempt(ctx context.Context, runID string, task dag.TaskDescriptor, op registry.Operation, params map[string]any, attempts int) error {
	start := time.Now()

	var cacheKey string
	if task.Cacheable && e.Cache != nil {
		key, err := cache.Key(task.Operation, params)
		if err == nil {
			cacheKey = key
			if cached, ok, err := e.Cache.Get(ctx, key); err == nil && ok {
				if e.Metrics != nil {
					e.Metrics.CacheHits.Inc()
				}
				return e.onSuccess(ctx, runID, task, params, cached, start, attempts)
			} else if e.Metrics != nil {
				e.Metrics.CacheMisses.Inc()
			}
		}
	}

	result, err := op.Invoke(ctx, params)
	if err != nil {
		if e.Metrics != nil {
			e.Metrics.ObserveAttempt(task.Operation, "error", time.Since(start))
		}
		return taskerr.OperationFailedf(err, task.ID)
	}

	if cacheKey != "" {
		_ = e.Cache.Set(ctx, cacheKey, result)
	}

	return e.onSuccess(ctx, runID, task, params, result, start, attempts)
}

func (e *Executor) onSuccess(ctx context.Context, runID string, task dag.TaskDescriptor, params, result map[string]any, start time.Time, attempts int) error {
	relocated, err := e.relocateOutput(runID, task.ID, result)
	if err != nil {
		return taskerr.OperationFailedf(err, task.ID)
	}

	e.Results.Set(task.ID, relocated)
	if err := e.saveState(ctx, runID, task.ID, store.StatusCompleted, attempts, params, relocated, ""); err != nil {
		return err
	}
	if e.Metrics != nil {
		e.Metrics.ObserveAttempt(task.Operation, "completed", time.Since(start))
	}
	e.publish(ctx, events.TaskCompleted, runID, task.ID, nil)
	return nil
}

// relocateOutput moves a result's output_file_path file, if present, into
// the run's directory and rewrites the result to point at the new
// location, matching the original's file-move step after a successful
// operation call.
func (e *Executor) relocateOutput(runID, taskID string, result map[string]any) (map[string]any, error) {
	path, ok := result[outputFileKey].(string)
	if !ok || path == "" || e.RunDir == "" {
		return result, nil
	}

	dest := filepath.Join(e.RunDir, runID, fmt.Sprintf("%s_%s", taskID, filepath.Base(path)))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("relocate output: %w", err)
	}
	if err := os.Rename(path, dest); err != nil {
		return nil, fmt.Errorf("relocate output: %w", err)
	}

	out := make(map[string]any, len(result))
	for k, v := range result {
		out[k] = v
	}
	out[outputFileKey] = dest
	return out, nil
}

func (e *Executor) saveState(ctx context.Context, runID, taskID string, status store.Status, attempt int, params, result map[string]any, errMsg string) error {
	if err := e.Store.Save(ctx, store.TaskState{
		RunID:     runID,
		TaskID:    taskID,
		Status:    status,
		Attempt:   attempt,
		Params:    params,
		Result:    result,
		Error:     errMsg,
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		return taskerr.Storef(err, "save state for task %s", taskID)
	}
	return nil
}

func (e *Executor) publish(ctx context.Context, kind events.Kind, runID, taskID string, detail map[string]any) {
	if e.Events == nil {
		return
	}
	if err := e.Events.Publish(ctx, events.Event{Kind: kind, RunID: runID, TaskID: taskID, Detail: detail}); err != nil {
		logger.Warn(ctx, "failed to publish event", "kind", kind, "err", err)
	}
}
