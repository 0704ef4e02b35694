package devserver

import (
	"errors"
	"slices"
	"sync"

	"taskmgr/internal/service"
)

// ErrNotFound is returned for an id the store does not hold.
var ErrNotFound = errors.New("task not found")

// Store is an in-memory task store. Tasks keep insertion order and ids are
// assigned from an increasing counter starting at 1.
type Store struct {
	mu     sync.Mutex
	tasks  []service.Task
	lastID int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// List returns a copy of all tasks in insertion order.
func (s *Store) List() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]service.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get returns the task with the given id.
func (s *Store) Get(id int64) (service.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return service.Task{}, ErrNotFound
	}
	return s.tasks[i], nil
}

// Create stores d under a new id.
func (s *Store) Create(d service.Draft) service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	t := service.Task{ID: s.lastID, Draft: d}
	s.tasks = append(s.tasks, t)
	return t
}

// Update replaces every field of the task with the given id.
func (s *Store) Update(id int64, d service.Draft) (service.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return service.Task{}, ErrNotFound
	}
	s.tasks[i] = service.Task{ID: id, Draft: d}
	return s.tasks[i], nil
}

// Delete removes the task with the given id.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	return nil
}

func (s *Store) index(id int64) int {
	return slices.IndexFunc(s.tasks, func(t service.Task) bool { return t.ID == id })
}
