// Package sleep implements the async_sleep operation: wait for a fixed
// duration, honoring context cancellation.
package sleep

import (
	"context"
	"time"
)

// Name is the operation identifier registered in the Operation Registry.
const Name = "async_sleep"

// Op implements registry.Operation.
type Op struct{}

func (Op) Name() string { return Name }

// Defaults matches the original's sleep_time=10 keyword default.
func (Op) Defaults() map[string]any {
	return map[string]any{"sleep_time": 10.0}
}

func (Op) Invoke(ctx context.Context, params map[string]any) (map[string]any, error) {
	seconds, _ := params["sleep_time"].(float64)
	if seconds <= 0 {
		return map[string]any{"sleep_succesfull": true}, nil
	}

	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-timer.C:
		return map[string]any{"sleep_succesfull": true}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
