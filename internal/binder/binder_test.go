package binder

import (
	"testing"

	"github.com/ArtemOtr/taskflow/internal/dag"
	"github.com/ArtemOtr/taskflow/internal/results"
	"github.com/ArtemOtr/taskflow/internal/taskerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultsFor(operation string) (map[string]any, error) {
	if operation == "sleep" {
		return map[string]any{"seconds": 1.0}, nil
	}
	return map[string]any{}, nil
}

func TestPrecompute_MergesOverDefaults(t *testing.T) {
	task := dag.TaskDescriptor{
		ID:                "t1",
		Operation:         "sleep",
		IndependentParams: map[string]any{"seconds": 5.0},
	}
	params, err := Precompute(task, defaultsFor)
	require.NoError(t, err)
	assert.Equal(t, 5.0, params["seconds"])
}

func TestPrecompute_UnknownOperation(t *testing.T) {
	task := dag.TaskDescriptor{ID: "t1", Operation: "ghost"}
	_, err := Precompute(task, func(string) (map[string]any, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, err, taskerr.ErrConfig)
}

func TestResolve_SimpleReference(t *testing.T) {
	res := results.NewMap()
	res.Set("fetch", map[string]any{"output_file_path": "/tmp/out.json"})

	task := dag.TaskDescriptor{
		ID:              "t2",
		DependentParams: map[string]string{"input_path": "fetch.result.output_file_path"},
	}
	params, err := Resolve(task, map[string]any{}, res)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out.json", params["input_path"])
}

func TestResolve_IgnoresMiddleSegment(t *testing.T) {
	res := results.NewMap()
	res.Set("fetch", map[string]any{"status": "ok"})

	task := dag.TaskDescriptor{
		ID:              "t2",
		DependentParams: map[string]string{"status": "fetch.whatever-goes-here.status"},
	}
	params, err := Resolve(task, map[string]any{}, res)
	require.NoError(t, err)
	assert.Equal(t, "ok", params["status"])
}

func TestResolve_MalformedReference(t *testing.T) {
	res := results.NewMap()
	task := dag.TaskDescriptor{
		ID:              "t2",
		DependentParams: map[string]string{"x": "fetch.key"},
	}
	_, err := Resolve(task, map[string]any{}, res)
	assert.ErrorIs(t, err, taskerr.ErrConfig)
}

func TestResolve_MissingDependency(t *testing.T) {
	res := results.NewMap()
	task := dag.TaskDescriptor{
		ID:              "t2",
		DependentParams: map[string]string{"x": "fetch.mid.key"},
	}
	_, err := Resolve(task, map[string]any{}, res)
	assert.ErrorIs(t, err, taskerr.ErrMissingDependencyValue)
}

func TestResolve_MissingResultKey(t *testing.T) {
	res := results.NewMap()
	res.Set("fetch", map[string]any{"other": "value"})
	task := dag.TaskDescriptor{
		ID:              "t2",
		DependentParams: map[string]string{"x": "fetch.mid.missing"},
	}
	_, err := Resolve(task, map[string]any{}, res)
	assert.ErrorIs(t, err, taskerr.ErrMissingResultKey)
}
