// Package dag holds the declarative DAG configuration data model: the
// task graph a run is started from, and the validation that must pass
// before the Run Coordinator allocates a run id.
package dag

import "encoding/json"

// rawConfig mirrors Config field-for-field but lets UnmarshalJSON tell an
// omitted retry_delay apart from an explicit zero, which Go's zero value
// for int cannot do on its own.
type rawConfig struct {
	DAGName    string           `json:"dag_name"`
	MaxRetries int              `json:"max_retries,omitempty"`
	RetryDelay *int             `json:"retry_delay"`
	Tasks      []TaskDescriptor `json:"tasks"`
	DAGID      string           `json:"dag_id,omitempty"`
}

// DefaultMaxRetries and DefaultRetryDelay are applied when a Config omits
// the corresponding field, per the external interface in the spec.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 3 // seconds
)

// Config is the declarative input describing one DAG run.
type Config struct {
	DAGName    string           `json:"dag_name"`
	MaxRetries int              `json:"max_retries,omitempty"`
	RetryDelay int              `json:"retry_delay"`
	Tasks      []TaskDescriptor `json:"tasks"`

	// DAGID is stamped in by the Artifact Packager onto the copy of the
	// config it writes to config.json; it is never set on the caller's
	// input config.
	DAGID string `json:"dag_id,omitempty"`
}

// TaskDescriptor declares one node of the DAG.
type TaskDescriptor struct {
	ID                string            `json:"id"`
	Operation         string            `json:"operation"`
	Dependencies      []string          `json:"dependencies,omitempty"`
	IndependentParams map[string]any    `json:"independent_params,omitempty"`
	DependentParams   map[string]string `json:"dependent_params,omitempty"`

	// Cacheable opts the task into the result cache (SPEC_FULL addition).
	// Default false preserves the original spec's semantics exactly.
	Cacheable bool `json:"cacheable,omitempty"`
}

// WithDefaults returns a copy of cfg with MaxRetries/RetryDelay filled in
// when absent. For configs decoded from JSON, UnmarshalJSON has already
// resolved an omitted retry_delay to DefaultRetryDelay; this additionally
// covers configs built directly in Go (tests, programmatic callers) where
// a negative value stands in for "not set".
func (c Config) WithDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

// UnmarshalJSON defaults retry_delay to DefaultRetryDelay only when the
// field is absent from the input, distinguishing that case from an
// explicit "retry_delay": 0, which must be honored as zero backoff.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.DAGName = raw.DAGName
	c.MaxRetries = raw.MaxRetries
	c.Tasks = raw.Tasks
	c.DAGID = raw.DAGID
	if raw.RetryDelay != nil {
		c.RetryDelay = *raw.RetryDelay
	} else {
		c.RetryDelay = DefaultRetryDelay
	}
	return nil
}

// MarshalJSON always emits retry_delay explicitly, even when zero, so
// that a round trip through Clone (or any other marshal/unmarshal pair)
// never reinterprets an explicit zero as "absent".
func (c Config) MarshalJSON() ([]byte, error) {
	delay := c.RetryDelay
	return json.Marshal(rawConfig{
		DAGName:    c.DAGName,
		MaxRetries: c.MaxRetries,
		RetryDelay: &delay,
		Tasks:      c.Tasks,
		DAGID:      c.DAGID,
	})
}

// Clone deep-copies the config by round-tripping through JSON, which is
// sufficient here since every field is JSON-serializable by construction.
func (c Config) Clone() (Config, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return Config{}, err
	}
	var out Config
	if err := json.Unmarshal(raw, &out); err != nil {
		return Config{}, err
	}
	return out, nil
}

// TaskByID returns the task index for quick lookup.
func (c Config) TaskByID() map[string]TaskDescriptor {
	m := make(map[string]TaskDescriptor, len(c.Tasks))
	for _, t := range c.Tasks {
		m[t.ID] = t
	}
	return m
}
