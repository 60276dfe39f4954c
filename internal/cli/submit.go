package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ArtemOtr/taskflow/internal/coordinator"
	"github.com/ArtemOtr/taskflow/internal/dag"
	"github.com/spf13/cobra"
)

// Submit builds the "run" command: submit a DAG config file for
// execution and block until the run finishes.
func Submit(coord *coordinator.Coordinator) *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "run [flags] <config.json>",
			Short: "Submit a DAG config for execution",
			Args:  cobra.ExactArgs(1),
		},
		nil, runSubmit, coord,
	)
}

func runSubmit(ctx *Context, args []string) error {
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}

	result, err := ctx.Coordinator.Submit(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("run %s completed, artifact: %s\n", result.RunID, result.ArtifactZip)
	return nil
}

func loadConfig(path string) (dag.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return dag.Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg dag.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return dag.Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
