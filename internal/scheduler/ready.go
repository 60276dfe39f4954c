// Package scheduler is the DAG Scheduler: it determines which tasks are
// ready to run and dispatches them with bounded concurrency, recursively
// picking up newly-ready tasks as their dependencies complete - the same
// control flow as the original's _find_ready_tasks / _execute_tasks /
// _execute_single_task recursion, expressed as one continuous loop
// instead of two separate passes.
package scheduler

import (
	"github.com/ArtemOtr/taskflow/internal/dag"
	"github.com/ArtemOtr/taskflow/internal/results"
)

// ready reports which tasks in cfg have every dependency present in res
// and have not already been dispatched, matching _find_ready_tasks: a
// task is ready once all of its dependencies have a recorded result.
func ready(cfg dag.Config, res *results.Map, dispatched map[string]struct{}) []dag.TaskDescriptor {
	var out []dag.TaskDescriptor
	for _, t := range cfg.Tasks {
		if _, already := dispatched[t.ID]; already {
			continue
		}
		if allDepsSatisfied(t, res) {
			out = append(out, t)
		}
	}
	return out
}

func allDepsSatisfied(t dag.TaskDescriptor, res *results.Map) bool {
	for _, dep := range t.Dependencies {
		if !res.Has(dep) {
			return false
		}
	}
	return true
}
