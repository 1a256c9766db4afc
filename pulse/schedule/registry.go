package schedule

import (
	"context"
	"sync"

	"github.com/teranos/atomspace/errors"
)

// Task is one piece of periodic work run on every tick.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// TaskRegistry holds the tasks a ticker runs, in registration order.
// It is safe for concurrent use; tasks may be added while the ticker runs.
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks []Task
}

// NewTaskRegistry creates an empty registry.
func NewTaskRegistry(tasks ...Task) (*TaskRegistry, error) {
	r := &TaskRegistry{}
	for _, t := range tasks {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a task. Names must be non-empty and unique.
func (r *TaskRegistry) Register(t Task) error {
	if t == nil {
		return errors.NewInvalidRequestError("nil task")
	}
	name := t.Name()
	if name == "" {
		return errors.NewInvalidRequestError("task has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tasks {
		if existing.Name() == name {
			return errors.WithHintf(errors.NewInvalidRequestError("task %s already registered", name),
				"unregister %s first to replace it", name)
		}
	}
	r.tasks = append(r.tasks, t)
	return nil
}

// Unregister removes the named task, reporting whether it was present.
func (r *TaskRegistry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.tasks {
		if t.Name() == name {
			r.tasks = append(r.tasks[:i:i], r.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the named task.
func (r *TaskRegistry) Get(name string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tasks {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Names lists the registered task names in run order.
func (r *TaskRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.tasks))
	for i, t := range r.tasks {
		out[i] = t.Name()
	}
	return out
}

// Tasks returns a copy of the registered tasks in run order.
func (r *TaskRegistry) Tasks() []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Task(nil), r.tasks...)
}

// Len is the number of registered tasks.
func (r *TaskRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
