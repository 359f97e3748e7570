package condition

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"icc.tech/scheduled/internal/metrics"
	"icc.tech/scheduled/internal/schederr"
	"icc.tech/scheduled/internal/task"
)

// slot wraps a Condition with its own lock. tick() acquires this lock
// non-blockingly and skips the condition entirely on contention; control
// operations may block on it unless called with wait=false.
type slot struct {
	mu   sync.Mutex
	cond Condition
}

// Registry maps name to owned condition, guarded by a map-wide lock; each
// condition is additionally wrapped in its own lock (the clone-handle-
// then-lock-element pattern named throughout the concurrency model).
//
// Grounded on original_source/src/condition/registry.rs.
type Registry struct {
	mu        sync.RWMutex
	slots     map[string]*slot
	busyCount int64
}

// conditionIDSeq is the process-wide sequence condition ids are drawn
// from, shared by every Registry.
var conditionIDSeq uint64

// NewRegistry creates an empty condition Registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[string]*slot)}
}

// Add inserts cond. Returns false if the name is already present. On
// success, assigns a fresh nonzero id from a process-wide monotonic
// sequence.
func (r *Registry) Add(cond Condition) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[cond.Name()]; ok {
		return false
	}
	cond.SetID(atomic.AddUint64(&conditionIDSeq, 1))
	r.slots[cond.Name()] = &slot{cond: cond}
	return true
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.slots[name]
	return ok
}

// Names returns the registered condition names in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.slots))
	for n := range r.slots {
		names = append(names, n)
	}
	return names
}

// TypeOf returns the declared type tag of name, or "" with ok=false if
// unknown.
func (r *Registry) TypeOf(name string) (string, bool) {
	r.mu.RLock()
	s, ok := r.slots[name]
	r.mu.RUnlock()
	if !ok {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cond.Type(), true
}

// Remove detaches the named condition, resetting its id to 0. Refuses
// with schederr.ErrWouldBlock if the condition is currently busy.
func (r *Registry) Remove(name string) (Condition, error) {
	r.mu.Lock()
	s, ok := r.slots[name]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("condition %q: %w", name, schederr.ErrNotFound)
	}
	if !s.mu.TryLock() {
		r.mu.Unlock()
		return nil, fmt.Errorf("condition %q: %w", name, schederr.ErrWouldBlock)
	}
	delete(r.slots, name)
	r.mu.Unlock()

	s.cond.SetID(0)
	c := s.cond
	s.mu.Unlock()
	return c, nil
}

// Busy is a non-blocking probe: a condition is busy iff its lock is
// currently held.
func (r *Registry) Busy(name string) (bool, error) {
	r.mu.RLock()
	s, ok := r.slots[name]
	r.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("condition %q: %w", name, schederr.ErrNotFound)
	}
	if s.mu.TryLock() {
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// BusyCount returns the number of ticks currently executing.
func (r *Registry) BusyCount() int64 {
	return atomic.LoadInt64(&r.busyCount)
}

// control acquires the named condition's lock (blocking if wait, else
// TryLock) and applies fn. Returns schederr.ErrWouldBlock if wait=false
// and the condition is busy.
func (r *Registry) control(name string, wait bool, fn func(Condition) bool) (bool, error) {
	r.mu.RLock()
	s, ok := r.slots[name]
	r.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("condition %q: %w", name, schederr.ErrNotFound)
	}

	if wait {
		s.mu.Lock()
	} else if !s.mu.TryLock() {
		return false, fmt.Errorf("condition %q: %w", name, schederr.ErrWouldBlock)
	}
	defer s.mu.Unlock()

	return fn(s.cond), nil
}

// Reset clears last_tested/last_succeeded, re-primes left_retries, and
// clears tasks_failed, without changing the Armed/Suspended state.
func (r *Registry) Reset(name string, wait bool) error {
	_, err := r.control(name, wait, func(c Condition) bool {
		c.ResetRuntime()
		return true
	})
	return err
}

// Suspend moves the condition to Suspended; it will not be evaluated by
// future ticks.
func (r *Registry) Suspend(name string, wait bool) error {
	_, err := r.control(name, wait, func(c Condition) bool {
		c.SetSuspended(true)
		return true
	})
	return err
}

// Resume moves the condition back to Armed. A no-op (returns false) if
// the condition was not suspended.
func (r *Registry) Resume(name string, wait bool) (bool, error) {
	return r.control(name, wait, func(c Condition) bool {
		if !c.Suspended() {
			return false
		}
		c.SetSuspended(false)
		return true
	})
}

// ContentEqual reports whether a condition by the same name is already
// registered with an identical content hash.
func (r *Registry) ContentEqual(cond Condition) bool {
	r.mu.RLock()
	s, ok := r.slots[cond.Name()]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cond.ContentHash() == cond.ContentHash()
}

// DynamicAddOrReplace inserts cond if absent (assigning a fresh id), or
// replaces the existing condition's content in place once any in-flight
// tick has finished (Open Question (c): replace happens after the
// current tick completes, never preempting it). The replaced slot keeps
// its existing id. Returns true iff this was a fresh add.
func (r *Registry) DynamicAddOrReplace(cond Condition) bool {
	r.mu.Lock()
	s, existed := r.slots[cond.Name()]
	if !existed {
		cond.SetID(atomic.AddUint64(&conditionIDSeq, 1))
		r.slots[cond.Name()] = &slot{cond: cond}
		r.mu.Unlock()
		return true
	}
	r.mu.Unlock()

	s.mu.Lock()
	cond.SetID(s.cond.ID())
	s.cond = cond
	s.mu.Unlock()
	return false
}

// Tick is the central per-condition operation invoked once per name, per
// scheduler tick (§4.3.1). Returns nil if the tick was skipped (busy,
// suspended, or the check was inconclusive); a pointer to false if the
// check ran but was not verified; a pointer to true if it was verified
// and the task phase ran.
func (r *Registry) Tick(ctx context.Context, taskReg *task.Registry, name string) (*bool, error) {
	r.mu.RLock()
	s, ok := r.slots[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("condition %q: %w", name, schederr.ErrNotFound)
	}

	if !s.mu.TryLock() {
		slog.Debug("condition busy, skipping tick", slog.String("condition", name))
		return nil, nil
	}
	defer s.mu.Unlock()

	if s.cond.Suspended() {
		return nil, nil
	}

	atomic.AddInt64(&r.busyCount, 1)
	metrics.BusyConditions.Set(float64(atomic.LoadInt64(&r.busyCount)))
	defer func() {
		atomic.AddInt64(&r.busyCount, -1)
		metrics.BusyConditions.Set(float64(atomic.LoadInt64(&r.busyCount)))
	}()

	s.cond.RecordTested(time.Now())

	switch s.cond.Check(ctx) {
	case NotVerified:
		verified := false
		return &verified, nil
	case Verified:
		metrics.ConditionFiredTotal.WithLabelValues(name, "tick").Inc()
		success := RunTasks(ctx, taskReg, s.cond)
		s.cond.RecordTaskPhase(success)
		metrics.ConditionRetriesLeft.WithLabelValues(name).Set(float64(s.cond.LeftRetries()))
		verified := true
		return &verified, nil
	default: // Inconclusive
		return nil, nil
	}
}
