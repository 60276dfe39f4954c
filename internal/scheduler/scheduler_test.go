package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/ArtemOtr/taskflow/internal/dag"
	"github.com/ArtemOtr/taskflow/internal/executor"
	"github.com/ArtemOtr/taskflow/internal/registry"
	"github.com/ArtemOtr/taskflow/internal/results"
	"github.com/ArtemOtr/taskflow/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]store.TaskState
}

func newMemStore() *memStore { return &memStore{data: map[string]store.TaskState{}} }
func (m *memStore) key(runID, taskID string) string { return runID + "/" + taskID }

func (m *memStore) InitPartition(context.Context, string) error    { return nil }
func (m *memStore) CleanupPartition(context.Context, string) error { return nil }
func (m *memStore) Save(_ context.Context, s store.TaskState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[m.key(s.RunID, s.TaskID)] = s
	return nil
}
func (m *memStore) Load(_ context.Context, runID string) ([]store.TaskState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.TaskState
	for _, s := range m.data {
		if s.RunID == runID {
			out = append(out, s)
		}
	}
	return out, nil
}
func (m *memStore) LoadTask(_ context.Context, runID, taskID string) (store.TaskState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[m.key(runID, taskID)]
	return s, ok, nil
}
func (m *memStore) Close() error { return nil }

type echoOp struct{ name string }

func (e echoOp) Name() string             { return e.name }
func (e echoOp) Defaults() map[string]any { return map[string]any{} }
func (e echoOp) Invoke(_ context.Context, params map[string]any) (map[string]any, error) {
	return map[string]any{"ran": e.name}, nil
}

func TestScheduler_RunsInDependencyOrder(t *testing.T) {
	reg := registry.New()
	reg.Register(echoOp{name: "op"})

	cfg := dag.Config{
		DAGName:    "demo",
		MaxRetries: 1,
		Tasks: []dag.TaskDescriptor{
			{ID: "a", Operation: "op"},
			{ID: "b", Operation: "op", Dependencies: []string{"a"}},
			{ID: "c", Operation: "op", Dependencies: []string{"b"}},
		},
	}

	res := results.NewMap()
	ex := &executor.Executor{Registry: reg, Store: newMemStore(), Results: res}
	s := &Scheduler{Executor: ex, Concurrency: 2}

	err := s.Run(context.Background(), "run1", cfg, res)
	require.NoError(t, err)

	assert.True(t, res.Has("a"))
	assert.True(t, res.Has("b"))
	assert.True(t, res.Has("c"))
}

func TestScheduler_RunsIndependentTasksConcurrently(t *testing.T) {
	reg := registry.New()
	reg.Register(echoOp{name: "op"})

	cfg := dag.Config{
		DAGName: "demo",
		Tasks: []dag.TaskDescriptor{
			{ID: "a", Operation: "op"},
			{ID: "b", Operation: "op"},
			{ID: "c", Operation: "op"},
		},
	}

	res := results.NewMap()
	ex := &executor.Executor{Registry: reg, Store: newMemStore(), Results: res}
	s := &Scheduler{Executor: ex, Concurrency: 3}

	err := s.Run(context.Background(), "run1", cfg, res)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Len())
}

func TestScheduler_TaskFailureDoesNotAbortRun(t *testing.T) {
	reg := registry.New()
	reg.Register(failingOp{})

	cfg := dag.Config{
		DAGName:    "demo",
		MaxRetries: 1,
		RetryDelay: 0,
		Tasks: []dag.TaskDescriptor{
			{ID: "a", Operation: "fail"},
		},
	}

	res := results.NewMap()
	ex := &executor.Executor{Registry: reg, Store: newMemStore(), Results: res}
	s := &Scheduler{Executor: ex, Concurrency: 1}

	err := s.Run(context.Background(), "run1", cfg, res)
	require.NoError(t, err, "an exhausted task must not fail the whole run")
	assert.False(t, res.Has("a"))
}

func TestScheduler_DiamondContinuesPastBranchFailure(t *testing.T) {
	reg := registry.New()
	reg.Register(echoOp{name: "op"})
	reg.Register(failingOp{})

	cfg := dag.Config{
		DAGName:    "demo",
		MaxRetries: 1,
		RetryDelay: 0,
		Tasks: []dag.TaskDescriptor{
			{ID: "root", Operation: "op"},
			{ID: "failing", Operation: "fail", Dependencies: []string{"root"}},
			{ID: "sibling", Operation: "op", Dependencies: []string{"root"}},
		},
	}

	res := results.NewMap()
	ex := &executor.Executor{Registry: reg, Store: newMemStore(), Results: res}
	s := &Scheduler{Executor: ex, Concurrency: 2}

	err := s.Run(context.Background(), "run1", cfg, res)
	require.NoError(t, err)
	assert.True(t, res.Has("root"))
	assert.True(t, res.Has("sibling"), "sibling branch must still complete and be packageable")
	assert.False(t, res.Has("failing"))
}

func TestScheduler_FatalConfigErrorAbortsRun(t *testing.T) {
	reg := registry.New() // "ghost" is deliberately left unregistered

	cfg := dag.Config{
		DAGName:    "demo",
		MaxRetries: 1,
		RetryDelay: 0,
		Tasks: []dag.TaskDescriptor{
			{ID: "a", Operation: "ghost"},
		},
	}

	res := results.NewMap()
	ex := &executor.Executor{Registry: reg, Store: newMemStore(), Results: res}
	s := &Scheduler{Executor: ex, Concurrency: 1}

	err := s.Run(context.Background(), "run1", cfg, res)
	assert.Error(t, err, "an unregistered operation is a configuration error and must abort the run")
}

func TestScheduler_ResumesFromPrepopulatedResults(t *testing.T) {
	reg := registry.New()
	reg.Register(echoOp{name: "op"})

	cfg := dag.Config{
		DAGName: "demo",
		Tasks: []dag.TaskDescriptor{
			{ID: "a", Operation: "op"},
			{ID: "b", Operation: "op", Dependencies: []string{"a"}},
		},
	}

	res := results.NewMap()
	res.Set("a", map[string]any{"ran": "op"}) // simulate recovery hydration
	ex := &executor.Executor{Registry: reg, Store: newMemStore(), Results: res}
	s := &Scheduler{Executor: ex, Concurrency: 1}

	err := s.Run(context.Background(), "run1", cfg, res)
	require.NoError(t, err)
	assert.True(t, res.Has("b"))
}

type failingOp struct{}

func (failingOp) Name() string             { return "fail" }
func (failingOp) Defaults() map[string]any { return map[string]any{} }
func (failingOp) Invoke(context.Context, map[string]any) (map[string]any, error) {
	return nil, assert.AnError
}
