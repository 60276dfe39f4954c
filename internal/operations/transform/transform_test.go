package transform

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictToString(t *testing.T) {
	out, err := DictToString{}.Invoke(context.Background(), map[string]any{
		"data": map[string]any{"a": 1},
	})
	require.NoError(t, err)
	assert.Contains(t, out["string"], "a")
}

func TestDictToString_MissingData(t *testing.T) {
	_, err := DictToString{}.Invoke(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestJSONToString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"x": 1}`), 0o644))

	out, err := JSONToString{}.Invoke(context.Background(), map[string]any{"data": path})
	require.NoError(t, err)
	assert.Contains(t, out["string"], "x")
}

func TestJSONToString_MissingFile(t *testing.T) {
	_, err := JSONToString{}.Invoke(context.Background(), map[string]any{"data": "/does/not/exist.json"})
	assert.Error(t, err)
}
