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
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only the fields named by flags change,
// but the full record is submitted since updates replace every field.
type EditCmd struct {
	title       optString
	description optString
	status      optString
	due         optString
	clearDue    bool
}

// SetTitle sets the new title (for testing).
func (c *EditCmd) SetTitle(s string) { c.title.Set(s) }

// SetDescription sets the new description (for testing).
func (c *EditCmd) SetDescription(s string) { c.description.Set(s) }

// SetStatus sets the new status (for testing).
func (c *EditCmd) SetStatus(s string) { c.status.Set(s) }

// SetDue sets the new due date (for testing).
func (c *EditCmd) SetDue(s string) { c.due.Set(s) }

// SetClearDue removes the due date (for testing).
func (c *EditCmd) SetClearDue(v bool) { c.clearDue = v }

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "taskmgr edit [--title <text>] [--description <text>] [--status <status>] [--due YYYY-MM-DD | --no-due] <id>"
}
func (c *EditCmd) NeedsService() bool { return true }

func (c *EditCmd) RegisterFlags(fs *pflag.FlagSet) {
	*c = EditCmd{}
	fs.Var(&c.title, "title", "new title")
	fs.VarP(&c.description, "description", "d", "new description (empty clears it)")
	fs.VarP(&c.status, "status", "s", "new status: TODO, IN_PROGRESS or DONE")
	fs.Var(&c.due, "due", "new due date (YYYY-MM-DD)")
	fs.BoolVar(&c.clearDue, "no-due", false, "remove the due date")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if c.due.set && c.clearDue {
		fmt.Fprintln(errOut, "error: cannot use both --due and --no-due")
		return exitcode.UserError
	}
	if !c.title.set && !c.description.set && !c.status.set && !c.due.set && !c.clearDue {
		fmt.Fprintln(errOut, "error: nothing to change")
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
	ctl.StartEdit(task)

	draft, err := c.apply(task.ToDraft())
	if err != nil {
		ctl.CancelEdit()
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	updated, err := ctl.Update(ctx, id, draft)
	if err != nil {
		return reportSubmitFailure(errOut, ctl, err)
	}

	if !cfg.Quiet {
		output.FormatTask(out, updated)
	}
	return exitcode.Success
}

// apply merges the flags that were set into draft.
func (c *EditCmd) apply(draft service.Draft) (service.Draft, error) {
	if c.title.set {
		draft.Title = c.title.value
	}
	if c.description.set {
		draft.Description = c.description.value
	}
	if c.status.set {
		status, err := service.ParseStatus(c.status.value)
		if err != nil {
			return draft, err
		}
		draft.Status = status
	}
	if c.due.set {
		due, err := service.ParseDate(c.due.value)
		if err != nil {
			return draft, err
		}
		draft.DueDate = &due
	}
	if c.clearDue {
		draft.DueDate = nil
	}
	return draft, nil
}
