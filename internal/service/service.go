// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for task backend operations.
// All HTTP calls go through this interface; commands and the view state
// controller never build requests directly.
//
// Non-2xx responses are returned as *RemoteError and failures to reach the
// server as *NetworkError.
type Service interface {
	// ListTasks returns every task in server order.
	ListTasks(ctx context.Context) ([]Task, error)

	// GetTask returns one task. Fails with a 404 RemoteError if absent.
	GetTask(ctx context.Context, id int64) (Task, error)

	// CreateTask persists a draft and returns it with its assigned ID.
	CreateTask(ctx context.Context, draft Draft) (Task, error)

	// UpdateTask replaces every field of the task with draft.
	// Unchanged fields must be included.
	UpdateTask(ctx context.Context, id int64, draft Draft) (Task, error)

	// DeleteTask removes a task. Fails with a 404 RemoteError if absent.
	DeleteTask(ctx context.Context, id int64) error
}
