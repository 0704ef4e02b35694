// Package viewstate owns the in-memory task collection shown to the user and
// reconciles it with the results of remote calls.
//
// The Controller is the only write path for the collection. It never mutates
// state before a remote call resolves, and it splits failures in two: a
// validation failure from create or update is handed back to the caller
// untouched so the input that caused it can show per-field messages, while
// every other failure is recorded as a page-level banner.
package viewstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"taskmgr/internal/logging"
	"taskmgr/internal/service"
)

// LoadState tracks the collection's load cycle.
type LoadState int

const (
	Idle LoadState = iota
	Loading
	Loaded
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadFailed:
		return "load failed"
	default:
		return "idle"
	}
}

// DeletePrompt is the question put to the Confirmer before deleting.
const DeletePrompt = "Are you sure you want to delete this task?"

var (
	// ErrSubmitInFlight is returned when a create or update is attempted while
	// another one has not finished.
	ErrSubmitInFlight = errors.New("another submission is in progress")

	// ErrNotPersisted is returned when an operation needs a task identifier
	// and the task has none.
	ErrNotPersisted = errors.New("task has no identifier")
)

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// AlwaysConfirm approves every prompt.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) bool { return true })

// Controller holds the task collection and the page-level error banner.
// It is safe for concurrent use; the lock is never held across remote calls.
type Controller struct {
	svc service.Service
	log *slog.Logger

	loads singleflight.Group

	mu         sync.Mutex
	state      LoadState
	tasks      []service.Task
	editing    *service.Task
	banner     string
	submitting bool
}

// New creates a Controller in the Idle state.
func New(svc service.Service, log *slog.Logger) *Controller {
	if log == nil {
		log = logging.Discard()
	}
	return &Controller{svc: svc, log: log}
}

// Load fetches the full collection. On failure the collection is emptied and
// the banner is set. Concurrent calls share a single request.
func (c *Controller) Load(ctx context.Context) error {
	_, err, _ := c.loads.Do("load", func() (interface{}, error) {
		c.mu.Lock()
		c.state = Loading
		c.banner = ""
		c.mu.Unlock()

		tasks, err := c.svc.ListTasks(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.state = LoadFailed
			c.tasks = nil
			c.banner = failure("load tasks", err)
			c.log.Warn("load failed", "error", err)
			return nil, err
		}
		c.state = Loaded
		c.tasks = slices.Clone(tasks)
		c.log.Debug("tasks loaded", "count", len(tasks))
		return nil, nil
	})
	return err
}

// Create persists a draft and appends the result to the collection.
// A validation failure is returned without setting the banner.
func (c *Controller) Create(ctx context.Context, draft service.Draft) (service.Task, error) {
	if err := c.beginSubmit(); err != nil {
		return service.Task{}, err
	}
	defer c.endSubmit()

	task, err := c.svc.CreateTask(ctx, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.submitFailed("create task", err)
		return service.Task{}, err
	}
	c.tasks = append(c.tasks, task)
	c.log.Debug("task created", "id", task.ID)
	return task, nil
}

// Update replaces a task with draft. On success the entry keeps its position
// and the editing reference is cleared. A validation failure is returned
// without setting the banner.
func (c *Controller) Update(ctx context.Context, id int64, draft service.Draft) (service.Task, error) {
	if err := c.beginSubmit(); err != nil {
		return service.Task{}, err
	}
	defer c.endSubmit()

	task, err := c.svc.UpdateTask(ctx, id, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.submitFailed("update task", err)
		return service.Task{}, err
	}
	c.replace(id, task)
	c.editing = nil
	c.log.Debug("task updated", "id", id)
	return task, nil
}

// Delete removes a task after the confirmer approves. It reports whether the
// delete was issued and succeeded. A nil confirmer declines.
func (c *Controller) Delete(ctx context.Context, id int64, confirm Confirmer) (bool, error) {
	if confirm == nil || !confirm.Confirm(ctx, DeletePrompt) {
		return false, nil
	}

	c.mu.Lock()
	c.banner = ""
	c.mu.Unlock()

	err := c.svc.DeleteTask(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.banner = failure("delete task", err)
		c.log.Warn("delete failed", "id", id, "error", err)
		return false, err
	}
	c.tasks = slices.DeleteFunc(c.tasks, func(t service.Task) bool { return t.ID == id })
	c.log.Debug("task deleted", "id", id)
	return true, nil
}

// ChangeStatus submits task with only its status changed. Every failure,
// validation included, goes to the banner; the error is still returned.
func (c *Controller) ChangeStatus(ctx context.Context, task service.Task, status service.Status) (service.Task, error) {
	if !task.Persisted() {
		return service.Task{}, ErrNotPersisted
	}

	c.mu.Lock()
	c.banner = ""
	c.mu.Unlock()

	draft := task.ToDraft()
	draft.Status = status
	updated, err := c.svc.UpdateTask(ctx, task.ID, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.banner = failure("update task status", err)
		c.log.Warn("status change failed", "id", task.ID, "error", err)
		return service.Task{}, err
	}
	c.replace(task.ID, updated)
	return updated, nil
}

// StartEdit marks task as the one being edited.
func (c *Controller) StartEdit(task service.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := task
	c.editing = &t
}

// CancelEdit clears the editing reference.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = nil
}

// Editing returns the task being edited, if any.
func (c *Controller) Editing() (service.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing == nil {
		return service.Task{}, false
	}
	return *c.editing, true
}

// Tasks returns a copy of the collection.
func (c *Controller) Tasks() []service.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.tasks)
}

// Groups returns the collection bucketed by status.
func (c *Controller) Groups() service.StatusGroups {
	return service.GroupByStatus(c.Tasks())
}

// Find returns the task with the given identifier.
func (c *Controller) Find(id int64) (service.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// State returns the load state.
func (c *Controller) State() LoadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Banner returns the page-level error message, or "".
func (c *Controller) Banner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.banner
}

// DismissBanner clears the page-level error message.
func (c *Controller) DismissBanner() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.banner = ""
}

func (c *Controller) beginSubmit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrSubmitInFlight
	}
	c.submitting = true
	c.banner = ""
	return nil
}

func (c *Controller) endSubmit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
}

// submitFailed records a create/update failure. Caller holds mu.
func (c *Controller) submitFailed(action string, err error) {
	if service.Classify(err) == service.KindValidation {
		c.log.Debug("submission rejected", "action", action, "error", err)
		return
	}
	c.banner = failure(action, err)
	c.log.Warn("submission failed", "action", action, "error", err)
}

// replace swaps the entry with the given id in place. Caller holds mu.
func (c *Controller) replace(id int64, task service.Task) {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			c.tasks[i] = task
			return
		}
	}
}

func failure(action string, err error) string {
	return fmt.Sprintf("Failed to %s: %v", action, err)
}
