package dag

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_UnmarshalJSON_RetryDelayOmittedDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(`{"dag_name":"demo","tasks":[]}`), &cfg))
	assert.Equal(t, DefaultRetryDelay, cfg.RetryDelay)
}

func TestConfig_UnmarshalJSON_RetryDelayExplicitZeroIsHonored(t *testing.T) {
	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(`{"dag_name":"demo","tasks":[],"retry_delay":0}`), &cfg))
	assert.Equal(t, 0, cfg.RetryDelay)
}

func TestConfig_UnmarshalJSON_RetryDelayExplicitValue(t *testing.T) {
	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(`{"dag_name":"demo","tasks":[],"retry_delay":7}`), &cfg))
	assert.Equal(t, 7, cfg.RetryDelay)
}

func TestConfig_Clone_PreservesExplicitZeroRetryDelay(t *testing.T) {
	cfg := Config{DAGName: "demo", RetryDelay: 0, Tasks: []TaskDescriptor{{ID: "a", Operation: "sleep"}}}
	clone, err := cfg.Clone()
	require.NoError(t, err)
	assert.Equal(t, 0, clone.RetryDelay)
}

func TestConfig_WithDefaults_LeavesExplicitZeroRetryDelayAlone(t *testing.T) {
	cfg := Config{DAGName: "demo", RetryDelay: 0}.WithDefaults()
	assert.Equal(t, 0, cfg.RetryDelay)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
}
