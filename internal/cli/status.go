package cli

import (
	"encoding/json"
	"fmt"

	"github.com/ArtemOtr/taskflow/internal/coordinator"
	"github.com/spf13/cobra"
)

// Status builds the "status" command: report the recorded task states
// for a run id.
func Status(coord *coordinator.Coordinator) *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "status [flags] <run-id>",
			Short: "Show recorded task states for a DAG run",
			Args:  cobra.ExactArgs(1),
		},
		nil, runStatus, coord,
	)
}

func runStatus(ctx *Context, args []string) error {
	states, err := ctx.Coordinator.Status(ctx, args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		fmt.Println("no recorded state for this run id")
		return nil
	}

	raw, err := json.MarshalIndent(states, "", "    ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	fmt.Println(string(raw))
	return nil
}
