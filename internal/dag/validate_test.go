package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysKnown(string) bool { return true }

func TestValidate_OK(t *testing.T) {
	cfg := Config{
		DAGName: "demo",
		Tasks: []TaskDescriptor{
			{ID: "fetch", Operation: "httpfetch"},
			{ID: "transform", Operation: "transform", Dependencies: []string{"fetch"},
				DependentParams: map[string]string{"input_path": "fetch.result.output_file_path"}},
		},
	}
	require.NoError(t, Validate(cfg, alwaysKnown))
}

func TestValidate_MissingDAGName(t *testing.T) {
	cfg := Config{Tasks: []TaskDescriptor{{ID: "a", Operation: "sleep"}}}
	assert.ErrorContains(t, Validate(cfg, alwaysKnown), "dag_name")
}

func TestValidate_NoTasks(t *testing.T) {
	cfg := Config{DAGName: "demo"}
	assert.ErrorContains(t, Validate(cfg, alwaysKnown), "at least one task")
}

func TestValidate_DuplicateID(t *testing.T) {
	cfg := Config{
		DAGName: "demo",
		Tasks: []TaskDescriptor{
			{ID: "a", Operation: "sleep"},
			{ID: "a", Operation: "sleep"},
		},
	}
	assert.ErrorContains(t, Validate(cfg, alwaysKnown), "duplicate")
}

func TestValidate_UnsafeID(t *testing.T) {
	cfg := Config{
		DAGName: "demo",
		Tasks:   []TaskDescriptor{{ID: "a b", Operation: "sleep"}},
	}
	assert.ErrorContains(t, Validate(cfg, alwaysKnown), "unsafe")
}

func TestValidate_UnknownOperation(t *testing.T) {
	cfg := Config{
		DAGName: "demo",
		Tasks:   []TaskDescriptor{{ID: "a", Operation: "nope"}},
	}
	assert.ErrorContains(t, Validate(cfg, func(string) bool { return false }), "unknown operation")
}

func TestValidate_UnknownDependency(t *testing.T) {
	cfg := Config{
		DAGName: "demo",
		Tasks: []TaskDescriptor{
			{ID: "a", Operation: "sleep", Dependencies: []string{"ghost"}},
		},
	}
	assert.ErrorContains(t, Validate(cfg, alwaysKnown), "does not exist")
}

func TestValidate_BadDependentParamRef(t *testing.T) {
	cfg := Config{
		DAGName: "demo",
		Tasks: []TaskDescriptor{
			{ID: "a", Operation: "sleep"},
			{ID: "b", Operation: "sleep", Dependencies: []string{"a"},
				DependentParams: map[string]string{"x": "noop"}},
		},
	}
	assert.ErrorContains(t, Validate(cfg, alwaysKnown), "malformed reference")
}

func TestValidate_DependentParamUnknownTask(t *testing.T) {
	cfg := Config{
		DAGName: "demo",
		Tasks: []TaskDescriptor{
			{ID: "a", Operation: "sleep"},
			{ID: "b", Operation: "sleep", Dependencies: []string{"a"},
				DependentParams: map[string]string{"x": "ghost.mid.key"}},
		},
	}
	assert.ErrorContains(t, Validate(cfg, alwaysKnown), "unknown task")
}

func TestValidate_Cycle(t *testing.T) {
	cfg := Config{
		DAGName: "demo",
		Tasks: []TaskDescriptor{
			{ID: "a", Operation: "sleep", Dependencies: []string{"b"}},
			{ID: "b", Operation: "sleep", Dependencies: []string{"a"}},
		},
	}
	assert.ErrorContains(t, Validate(cfg, alwaysKnown), "cycle")
}

func TestValidate_SelfCycle(t *testing.T) {
	cfg := Config{
		DAGName: "demo",
		Tasks: []TaskDescriptor{
			{ID: "a", Operation: "sleep", Dependencies: []string{"a"}},
		},
	}
	assert.ErrorContains(t, Validate(cfg, alwaysKnown), "cycle")
}
