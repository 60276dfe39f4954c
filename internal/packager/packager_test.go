package packager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ArtemOtr/taskflow/internal/dag"
	"github.com/ArtemOtr/taskflow/internal/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackager_Package(t *testing.T) {
	dir := t.TempDir()
	p := New(dir)

	cfg := dag.Config{
		DAGName: "demo",
		Tasks:   []dag.TaskDescriptor{{ID: "a", Operation: "sleep"}},
	}
	res := results.NewMap()
	res.Set("a", map[string]any{"sleep_succesfull": true})

	zipPath, err := p.Package(context.Background(), "run1", cfg, res)
	require.NoError(t, err)

	_, err = os.Stat(zipPath)
	require.NoError(t, err)

	configPath := filepath.Join(dir, "run1", "config.json")
	_, err = os.Stat(configPath)
	require.NoError(t, err)

	resultsPath := filepath.Join(dir, "run1", "results.json")
	_, err = os.Stat(resultsPath)
	require.NoError(t, err)
}

func TestPackager_StampsRunIDAsDAGID(t *testing.T) {
	dir := t.TempDir()
	p := New(dir)

	cfg := dag.Config{DAGName: "demo", Tasks: []dag.TaskDescriptor{{ID: "a", Operation: "sleep"}}}
	res := results.NewMap()

	_, err := p.Package(context.Background(), "run-xyz", cfg, res)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "run-xyz", "config.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "run-xyz")
}
