package cli

import (
	"fmt"

	"github.com/ArtemOtr/taskflow/internal/build"
	"github.com/ArtemOtr/taskflow/internal/coordinator"
	"github.com/spf13/cobra"
)

// Root builds the top-level "taskflow" command, wiring every subcommand
// to the same Coordinator instance.
func Root(coord *coordinator.Coordinator) *cobra.Command {
	root := &cobra.Command{
		Use:           build.AppName,
		Short:         "Run and track DAG-shaped task graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(Submit(coord), Resume(coord), Status(coord), Version())
	return root
}

// Version builds the "version" command.
func Version() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), build.Version)
			return err
		},
	}
}
