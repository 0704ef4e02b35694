package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/output"
	"taskmgr/internal/service"
)

func init() {
	Register(&StatusCmd{})
}

// StatusCmd implements the status command.
type StatusCmd struct{}

func (c *StatusCmd) Name() string       { return "status" }
func (c *StatusCmd) Aliases() []string  { return []string{"mv"} }
func (c *StatusCmd) Synopsis() string   { return "Move a task to another status" }
func (c *StatusCmd) Usage() string      { return "taskmgr status <id> <TODO|IN_PROGRESS|DONE>" }
func (c *StatusCmd) NeedsService() bool { return true }

func (c *StatusCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: status required")
		return exitcode.UserError
	}
	status, err := service.ParseStatus(args[1])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	ctl := newController(ctx, svc)
	if err := ctl.Load(ctx); err != nil {
		return reportFailure(errOut, ctl, err)
	}

	task, ok := ctl.Find(id)
	if !ok {
		fmt.Fprintf(errOut, "error: task not found: %d\n", id)
		return exitcode.UserError
	}

	updated, err := ctl.ChangeStatus(ctx, task, status)
	if err != nil {
		return reportFailure(errOut, ctl, err)
	}

	if !cfg.Quiet {
		output.FormatTask(out, updated)
	}
	return exitcode.Success
}
