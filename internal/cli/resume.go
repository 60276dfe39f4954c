package cli

import (
	"fmt"

	"github.com/ArtemOtr/taskflow/internal/coordinator"
	"github.com/spf13/cobra"
)

// Resume builds the "resume" command: re-execute a previously started
// run from its last recorded state.
func Resume(coord *coordinator.Coordinator) *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "resume [flags] <run-id> <config.json>",
			Short: "Resume a previously started DAG run",
			Args:  cobra.ExactArgs(2),
		},
		nil, runResume, coord,
	)
}

func runResume(ctx *Context, args []string) error {
	runID := args[0]
	cfg, err := loadConfig(args[1])
	if err != nil {
		return err
	}

	result, err := ctx.Coordinator.Resume(ctx, runID, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("run %s resumed and completed, artifact: %s\n", result.RunID, result.ArtifactZip)
	return nil
}
