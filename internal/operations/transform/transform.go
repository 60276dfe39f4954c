// Package transform implements the dict_to_string and json_to_string
// operations: turn a value into its readable string form.
package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// DictToStringName is the operation name for converting an in-memory
// value to its fmt "%v" string representation.
const DictToStringName = "dict_to_string"

// JSONToStringName is the operation name for reading a JSON file and
// converting its contents to a string representation.
const JSONToStringName = "json_to_string"

// DictToString implements registry.Operation over params["data"] directly.
type DictToString struct{}

func (DictToString) Name() string             { return DictToStringName }
func (DictToString) Defaults() map[string]any { return map[string]any{} }

func (DictToString) Invoke(_ context.Context, params map[string]any) (map[string]any, error) {
	data, ok := params["data"]
	if !ok {
		return nil, fmt.Errorf("transform: data is required")
	}
	return map[string]any{"string": fmt.Sprintf("%v", data)}, nil
}

// JSONToString implements registry.Operation by reading the JSON file at
// params["data"] and stringifying its decoded contents.
type JSONToString struct{}

func (JSONToString) Name() string             { return JSONToStringName }
func (JSONToString) Defaults() map[string]any { return map[string]any{} }

func (JSONToString) Invoke(_ context.Context, params map[string]any) (map[string]any, error) {
	path, _ := params["data"].(string)
	if path == "" {
		return nil, fmt.Errorf("transform: data must be a path to a JSON file")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("transform: read %s: %w", path, err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("transform: decode %s: %w", path, err)
	}

	return map[string]any{"string": fmt.Sprintf("%v", decoded)}, nil
}
