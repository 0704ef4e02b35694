// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"fmt"
	"strings"
)

// Field limits enforced by the task API.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Statuses lists every status in display order.
var Statuses = [...]Status{StatusTodo, StatusInProgress, StatusDone}

// NumStatuses is the number of declared statuses.
const NumStatuses = len(Statuses)

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	return s.Index() >= 0
}

// Index returns the position of s in Statuses, or -1 if s is unknown.
func (s Status) Index() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

// Label returns the human-readable name of s.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// ParseStatus parses a status name case-insensitively.
// Dashes are accepted in place of underscores ("in-progress").
func ParseStatus(s string) (Status, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	norm = strings.ReplaceAll(norm, " ", "_")
	st := Status(norm)
	if !st.Valid() {
		return "", fmt.Errorf("invalid status: %s", s)
	}
	return st, nil
}

// Draft is a task that has not been persisted yet. It is also the full
// record sent on update, since updates replace every field.
type Draft struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Status      Status `json:"status" yaml:"status"`
	DueDate     *Date  `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
}

// Normalize drops a zero due date, which is how an empty dueDate string decodes.
func (d *Draft) Normalize() {
	if d.DueDate != nil && d.DueDate.IsZero() {
		d.DueDate = nil
	}
}

// Task is a persisted task. ID is assigned by the server and never zero.
type Task struct {
	ID    int64 `json:"id" yaml:"id"`
	Draft `yaml:",inline"`
}

// Persisted reports whether the task carries a server-assigned identifier.
func (t Task) Persisted() bool {
	return t.ID != 0
}

// ToDraft returns the task's fields without the identifier.
func (t Task) ToDraft() Draft {
	d := t.Draft
	if t.DueDate != nil {
		due := *t.DueDate
		d.DueDate = &due
	}
	return d
}

// StatusGroups holds tasks bucketed by status, indexed by Status.Index.
type StatusGroups [NumStatuses][]Task

// GroupByStatus buckets tasks by status, preserving their relative order.
// Tasks with an unknown status are dropped.
func GroupByStatus(tasks []Task) StatusGroups {
	var groups StatusGroups
	for _, t := range tasks {
		if i := t.Status.Index(); i >= 0 {
			groups[i] = append(groups[i], t)
		}
	}
	return groups
}

// Get returns the tasks in the given status.
func (g StatusGroups) Get(s Status) []Task {
	i := s.Index()
	if i < 0 {
		return nil
	}
	return g[i]
}

// Each calls fn for every status in display order.
func (g StatusGroups) Each(fn func(Status, []Task)) {
	for i, s := range Statuses {
		fn(s, g[i])
	}
}
