// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"net/http"
	"sync"

	"taskmgr/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
// It answers with the same RemoteError shapes as the real API.
type FakeService struct {
	mu     sync.RWMutex
	tasks  []service.Task
	nextID int64

	// Calls counts invocations per method name.
	Calls map[string]int

	// LastUpdate is the draft passed to the most recent UpdateTask call.
	LastUpdate service.Draft

	// Error injection for testing
	ListTasksErr  error
	GetTaskErr    error
	CreateTaskErr error
	UpdateTaskErr error
	DeleteTaskErr error

	// Block, when non-nil, is received from before any mutation is applied.
	Block chan struct{}
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		nextID: 1,
		Calls:  make(map[string]int),
	}
}

// AddTask seeds a persisted task and returns it.
func (f *FakeService) AddTask(title string, status service.Status) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{ID: f.nextID, Draft: service.Draft{Title: title, Status: status}}
	f.nextID++
	f.tasks = append(f.tasks, t)
	return t
}

// Put seeds a task with a caller-chosen ID.
func (f *FakeService) Put(t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t)
	if t.ID >= f.nextID {
		f.nextID = t.ID + 1
	}
}

// Snapshot returns the stored tasks.
func (f *FakeService) Snapshot() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

// CallCount returns how many times method was called.
func (f *FakeService) CallCount(method string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.Calls[method]
}

// NotFound returns the RemoteError the API sends for an unknown ID.
func NotFound() *service.RemoteError {
	return service.NewRemoteError(http.StatusNotFound, "", map[string]any{"error": "Task not found"})
}

// Invalid returns a validation RemoteError with the given field messages.
func Invalid(fields map[string]string) *service.RemoteError {
	errs := make(map[string]any, len(fields))
	for k, v := range fields {
		errs[k] = v
	}
	return service.NewRemoteError(http.StatusBadRequest, "", map[string]any{"errors": errs})
}

func (f *FakeService) record(method string) {
	f.mu.Lock()
	f.Calls[method]++
	f.mu.Unlock()
	if f.Block != nil {
		<-f.Block
	}
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.record("ListTasks")
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	return f.Snapshot(), nil
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, id int64) (service.Task, error) {
	f.record("GetTask")
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return service.Task{}, NotFound()
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	t := service.Task{ID: f.nextID, Draft: draft}
	f.nextID++
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id int64, draft service.Draft) (service.Task, error) {
	f.record("UpdateTask")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastUpdate = draft

	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i] = service.Task{ID: id, Draft: draft}
			return f.tasks[i], nil
		}
	}
	return service.Task{}, NotFound()
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int64) error {
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return NotFound()
}
