package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/output"
	"taskmgr/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	status      string
	due         string
}

// SetDescription sets the description (for testing).
func (c *AddCmd) SetDescription(d string) { c.description = d }

// SetStatus sets the initial status (for testing).
func (c *AddCmd) SetStatus(s string) { c.status = s }

// SetDue sets the due date (for testing).
func (c *AddCmd) SetDue(d string) { c.due = d }

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskmgr add [--description <text>] [--status <status>] [--due YYYY-MM-DD] <title...>"
}
func (c *AddCmd) NeedsService() bool { return true }

func (c *AddCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.description, "description", "d", "", "task description")
	fs.StringVarP(&c.status, "status", "s", string(service.StatusTodo), "TODO, IN_PROGRESS or DONE")
	fs.StringVar(&c.due, "due", "", "due date (YYYY-MM-DD)")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	draft := service.Draft{
		Title:       title,
		Description: c.description,
		Status:      service.StatusTodo,
	}
	if c.status != "" {
		status, err := service.ParseStatus(c.status)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		draft.Status = status
	}
	if c.due != "" {
		due, err := service.ParseDate(c.due)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		draft.DueDate = &due
	}

	ctl := newController(ctx, svc)
	task, err := ctl.Create(ctx, draft)
	if err != nil {
		return reportSubmitFailure(errOut, ctl, err)
	}

	if !cfg.Quiet {
		output.FormatTask(out, task)
	}
	return exitcode.Success
}
