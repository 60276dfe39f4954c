package dag

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ArtemOtr/taskflow/internal/taskerr"
)

// idPattern enforces I5: task ids must be safe to use as a partition label
// in the state store (lowercase-tolerant alphanumeric plus - and _).
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// OperationExists is satisfied by the operation registry's Exists method.
// Defined here (rather than importing internal/registry) to keep dag free
// of a dependency on the registry package; the coordinator wires the two
// together at call time.
type OperationExists func(name string) bool

// Validate enforces invariants I1-I5 against cfg before a run is allowed
// to start. knownOp is nil-safe: when nil, operation-existence (I3) is
// skipped, which callers use when validating a config in isolation of any
// particular registry (e.g. in tests).
func Validate(cfg Config, knownOp OperationExists) error {
	if cfg.DAGName == "" {
		return taskerr.Configf("dag_name is required")
	}
	if len(cfg.Tasks) == 0 {
		return taskerr.Configf("dag must declare at least one task")
	}

	seen := make(map[string]struct{}, len(cfg.Tasks))
	for _, t := range cfg.Tasks {
		if t.ID == "" {
			return taskerr.Configf("task id must not be empty")
		}
		if !idPattern.MatchString(t.ID) {
			return taskerr.Configf("task id %q contains characters unsafe for storage", t.ID)
		}
		if _, dup := seen[t.ID]; dup {
			return taskerr.Configf("duplicate task id %q", t.ID) // I4
		}
		seen[t.ID] = struct{}{}

		if t.Operation == "" {
			return taskerr.Configf("task %q: operation is required", t.ID)
		}
		if knownOp != nil && !knownOp(t.Operation) {
			return taskerr.Configf("task %q: unknown operation %q", t.ID, t.Operation) // I3
		}
	}

	index := cfg.TaskByID()
	for _, t := range cfg.Tasks {
		for _, dep := range t.Dependencies {
			if _, ok := index[dep]; !ok {
				return taskerr.Configf("task %q: dependency %q does not exist", t.ID, dep)
			}
		}
		for param, ref := range t.DependentParams {
			depTask, _, err := parseDependentRef(ref)
			if err != nil {
				return taskerr.Configf("task %q: param %q: %s", t.ID, param, err)
			}
			if _, ok := index[depTask]; !ok {
				return taskerr.Configf("task %q: param %q references unknown task %q", t.ID, param, depTask) // I2
			}
		}
	}

	if cyclePath, ok := findCycle(cfg); ok {
		return taskerr.Configf("dependency cycle detected: %s", strings.Join(cyclePath, " -> ")) // I1
	}

	return nil
}

// parseDependentRef splits a "task_id.<ignored>.result_key"
// dependent_params reference, matching the three-segment convention the
// binder resolves against: the middle segment carries no meaning and is
// discarded, only the first and third are used.
func parseDependentRef(ref string) (taskID, resultKey string, err error) {
	parts := strings.SplitN(ref, ".", 3)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("malformed reference %q, want \"task_id.<ignored>.result_key\"", ref)
	}
	return parts[0], parts[2], nil
}

// findCycle runs a depth-first search with coloring to find any cycle in
// the dependency graph, returning the cycle as a slice of task ids for the
// error message.
func findCycle(cfg Config) ([]string, bool) {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(cfg.Tasks))
	index := cfg.TaskByID()
	var path []string

	var visit func(id string) ([]string, bool)
	visit = func(id string) ([]string, bool) {
		color[id] = gray
		path = append(path, id)

		for _, dep := range index[id].Dependencies {
			switch color[dep] {
			case gray:
				return append(append([]string{}, path...), dep), true
			case white:
				if cyc, found := visit(dep); found {
					return cyc, true
				}
			}
		}

		path = path[:len(path)-1]
		color[id] = black
		return nil, false
	}

	for _, t := range cfg.Tasks {
		if color[t.ID] == white {
			if cyc, found := visit(t.ID); found {
				return cyc, true
			}
		}
	}
	return nil, false
}
