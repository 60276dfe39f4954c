// Package taskerr defines the error taxonomy from the orchestrator's error
// handling design: configuration errors that abort a run before it starts,
// attempt-level errors that are subject to retry, and fatal errors that
// propagate out of a running task.
package taskerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig covers missing/invalid fields, unknown operation names,
	// cyclic dependencies, and malformed dependency references. Raised
	// before any task executes; the run never starts.
	ErrConfig = errors.New("configuration error")

	// ErrMissingDependencyValue is raised during parameter resolution when
	// a dependent_params reference names a task with no recorded result.
	ErrMissingDependencyValue = errors.New("missing dependency value")

	// ErrMissingResultKey is raised during parameter resolution when a
	// dependent_params reference names a result key absent from the
	// referenced task's result mapping.
	ErrMissingResultKey = errors.New("missing result key")

	// ErrOperationFailed wraps any error returned by an operation callable.
	ErrOperationFailed = errors.New("operation failed")

	// ErrStore covers persistence failures. Fatal to the run.
	ErrStore = errors.New("state store error")

	// ErrPackaging covers artifact packaging failures.
	ErrPackaging = errors.New("packaging error")
)

// Configf wraps ErrConfig with a formatted detail message.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// MissingDependencyValuef wraps ErrMissingDependencyValue.
func MissingDependencyValuef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMissingDependencyValue, fmt.Sprintf(format, args...))
}

// MissingResultKeyf wraps ErrMissingResultKey.
func MissingResultKeyf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMissingResultKey, fmt.Sprintf(format, args...))
}

// OperationFailedf wraps ErrOperationFailed, preserving the underlying cause.
func OperationFailedf(cause error, taskID string) error {
	return fmt.Errorf("%w: task %s: %w", ErrOperationFailed, taskID, cause)
}

// Storef wraps ErrStore, preserving the underlying cause.
func Storef(cause error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, fmt.Sprintf(format, args...), cause)
}

// Packagingf wraps ErrPackaging, preserving the underlying cause.
func Packagingf(cause error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", ErrPackaging, fmt.Sprintf(format, args...), cause)
}

// Retryable reports whether an error is one of the attempt-level kinds
// that the Task Executor's retry loop should catch and retry, as opposed
// to a run-level error that must propagate to the Coordinator.
func Retryable(err error) bool {
	return errors.Is(err, ErrMissingDependencyValue) ||
		errors.Is(err, ErrMissingResultKey) ||
		errors.Is(err, ErrOperationFailed)
}
