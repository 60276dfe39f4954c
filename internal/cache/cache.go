// Package cache implements the optional result cache: when a task is
// marked cacheable, its result is keyed by a hash of its operation and
// resolved parameters so a repeat invocation across runs can be skipped.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Cache is the result cache port. A miss is reported by ok=false, not an
// error; errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) (result map[string]any, ok bool, err error)
	Set(ctx context.Context, key string, result map[string]any) error
	Close() error
}

// Key derives a stable cache key from an operation name and its resolved
// parameters, the way
// anhnv24810310060-source-SWARM-INTELLIGENCE-NETWORK's generateCacheKey
// hashes a task's JSON-marshaled definition.
func Key(operation string, params map[string]any) (string, error) {
	normalized := normalize(params)
	raw, err := json.Marshal(struct {
		Operation string         `json:"operation"`
		Params    map[string]any `json:"params"`
	}{Operation: operation, Params: normalized})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// normalize produces a key-sorted-by-construction copy so that
// json.Marshal (which already sorts map keys) yields a deterministic
// byte stream regardless of how params was built.
func normalize(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{}
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(params))
	for _, k := range keys {
		out[k] = params[k]
	}
	return out
}
