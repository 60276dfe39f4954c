// Package cli wires cobra commands to a coordinator.Coordinator, in the
// NewCommand/Context shape the teacher's own command files call into
// (internal/cli/retry.go, stop.go).
package cli

import (
	"context"
	"fmt"

	"github.com/ArtemOtr/taskflow/internal/coordinator"
	tflogger "github.com/ArtemOtr/taskflow/internal/logger"
	"github.com/spf13/cobra"
)

// commandLineFlag declares one cobra flag, bound onto a command by
// NewCommand before the run function sees it.
type commandLineFlag struct {
	name      string
	shorthand string
	defValue  string
	usage     string
}

// Context carries the dependencies a command's run function needs,
// threaded through context.Context the way the teacher's own Context
// satisfies context.Context for its logger helpers.
type Context struct {
	context.Context
	Command     *cobra.Command
	Coordinator *coordinator.Coordinator
}

// StringParam reads a string flag off the underlying command.
func (c *Context) StringParam(name string) (string, error) {
	return c.Command.Flags().GetString(name)
}

// IntParam reads an int flag off the underlying command.
func (c *Context) IntParam(name string) (int, error) {
	return c.Command.Flags().GetInt(name)
}

// runFunc is the shape every command's business logic takes.
type runFunc func(ctx *Context, args []string) error

// NewCommand attaches flags to cmd and wraps run so it receives a
// *Context built around the process's shared Coordinator.
func NewCommand(cmd *cobra.Command, flags []commandLineFlag, run runFunc, coord *coordinator.Coordinator) *cobra.Command {
	for _, f := range flags {
		cmd.Flags().StringP(f.name, f.shorthand, f.defValue, f.usage)
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := &Context{
			Context:     tflogger.WithContext(cmd.Context(), tflogger.FromContext(cmd.Context())),
			Command:     cmd,
			Coordinator: coord,
		}
		if err := run(ctx, args); err != nil {
			return fmt.Errorf("%s: %w", cmd.Name(), err)
		}
		return nil
	}
	return cmd
}
