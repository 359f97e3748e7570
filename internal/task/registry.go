package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"icc.tech/scheduled/internal/schederr"
)

// slot wraps a Task with its own lock so that a long-running task does not
// block registry reads or other tasks' execution.
type slot struct {
	mu   sync.Mutex
	task Task
}

// Registry maps name to owned task, guarded by one lock on the map. Each
// task slot is additionally independently lockable so Run can hold its own
// lock for the duration of execution without blocking registry reads.
type Registry struct {
	mu    sync.RWMutex
	slots map[string]*slot
}

// NewRegistry creates an empty task Registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[string]*slot)}
}

// Add inserts task. Returns false if the name is already present.
func (r *Registry) Add(t Task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[t.Name()]; ok {
		return false
	}
	r.slots[t.Name()] = &slot{task: t}
	return true
}

// Has reports whether name is present.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.slots[name]
	return ok
}

// Names returns the registered task names in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.slots))
	for n := range r.slots {
		names = append(names, n)
	}
	return names
}

// ContentEqual reports whether a task by the same name is already
// registered with an identical content hash.
func (r *Registry) ContentEqual(t Task) bool {
	r.mu.RLock()
	s, ok := r.slots[t.Name()]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task.ContentHash() == t.ContentHash()
}

// Remove detaches the named task. Returns true iff it was present.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[name]; !ok {
		return false
	}
	delete(r.slots, name)
	return true
}

// DynamicAddOrReplace inserts t if absent, or atomically replaces the
// existing task of the same name. Returns true if this was a fresh add,
// false if it replaced an existing slot.
func (r *Registry) DynamicAddOrReplace(t Task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, existed := r.slots[t.Name()]
	r.slots[t.Name()] = &slot{task: t}
	return !existed
}

// Run acquires the named task's own lock for the duration of Run and
// reports its Outcome. Returns schederr.ErrNotFound wrapped with the name
// if no such task is registered.
func (r *Registry) Run(ctx context.Context, name string) (Outcome, error) {
	r.mu.RLock()
	s, ok := r.slots[name]
	r.mu.RUnlock()
	if !ok {
		return Error, fmt.Errorf("task %q: %w", name, schederr.ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := s.task.Run(ctx)
	if outcome != Success {
		slog.Warn("task did not succeed", slog.String("task", name), slog.String("outcome", outcome.String()))
	}
	return outcome, nil
}
