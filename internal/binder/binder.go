// Package binder is the Parameter Binder: it merges a task's declared
// parameters with its operation's defaults ahead of the run, then resolves
// dependent_params references against completed results at attempt time,
// mirroring the original's _get_funcs_param default-merging plus its
// dependent-parameter substitution step in _execute_single_task.
package binder

import (
	"fmt"
	"strings"

	"github.com/ArtemOtr/taskflow/internal/dag"
	"github.com/ArtemOtr/taskflow/internal/results"
	"github.com/ArtemOtr/taskflow/internal/taskerr"
)

// Defaults looks up an operation's default parameter values, the shape
// internal/registry.Registry.DefaultParameters satisfies.
type Defaults func(operation string) (map[string]any, error)

// Precompute merges independent_params over the operation's defaults,
// independent_params taking precedence, ahead of any run. This portion
// never depends on other tasks' results so it only needs to run once.
func Precompute(task dag.TaskDescriptor, defaults Defaults) (map[string]any, error) {
	base, err := defaults(task.Operation)
	if err != nil {
		return nil, taskerr.Configf("task %s: %s", task.ID, err)
	}

	params := make(map[string]any, len(base)+len(task.IndependentParams))
	for k, v := range base {
		params[k] = v
	}
	for k, v := range task.IndependentParams {
		params[k] = v
	}
	return params, nil
}

// Resolve layers dependent_params onto a precomputed parameter map,
// reading each reference's task result out of res. References use the
// three-segment "<task_id>.<ignored>.<result_key>" form validated by
// dag.Validate: the first segment names the dependency, the middle
// segment is free-form (the original carried a field-path label there
// that was never actually used for lookup), and the third segment is
// the flat key read out of the dependency's result mapping.
func Resolve(task dag.TaskDescriptor, precomputed map[string]any, res *results.Map) (map[string]any, error) {
	params := make(map[string]any, len(precomputed)+len(task.DependentParams))
	for k, v := range precomputed {
		params[k] = v
	}

	for param, ref := range task.DependentParams {
		depTaskID, resultKey, err := splitRef(ref)
		if err != nil {
			return nil, taskerr.Configf("task %s: %s", task.ID, err)
		}

		depResult, ok := res.Get(depTaskID)
		if !ok {
			return nil, taskerr.MissingDependencyValuef("task %s: dependency %s has no recorded result", task.ID, depTaskID)
		}

		value, ok := depResult[resultKey]
		if !ok {
			return nil, taskerr.MissingResultKeyf("task %s: result key %q not found in %s's result", task.ID, resultKey, depTaskID)
		}
		params[param] = value
	}

	return params, nil
}

// splitRef parses a dependent_params reference into its source task id
// and flat result key, discarding the ignored middle segment.
func splitRef(ref string) (taskID, resultKey string, err error) {
	parts := strings.SplitN(ref, ".", 3)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("malformed dependent param reference %q, want \"task_id.<ignored>.result_key\"", ref)
	}
	return parts[0], parts[2], nil
}
