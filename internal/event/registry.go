package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"icc.tech/scheduled/internal/bucket"
	"icc.tech/scheduled/internal/metrics"
	"icc.tech/scheduled/internal/schederr"
)

// listener tracks a live subscription goroutine. nil cancel/done marks an
// event whose listener requires no dedicated goroutine (installed
// metadata only).
type listener struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type slot struct {
	mu       sync.Mutex
	ev       Event
	listener *listener
}

// Registry maps name to owned event plus, once listening, its goroutine
// handle. Shares the process-wide ExecutionBucket with ConditionRegistry:
// events write names into it, a tick reads and clears them.
//
// Grounded on original_source/src/event/base.rs's listener protocol.
type Registry struct {
	mu     sync.RWMutex
	slots  map[string]*slot
	nextID uint64
	bucket *bucket.ExecutionBucket
}

// NewRegistry creates an empty event Registry bound to bucket b.
func NewRegistry(b *bucket.ExecutionBucket) *Registry {
	return &Registry{slots: make(map[string]*slot), bucket: b}
}

// Add inserts ev. Returns false if the name is already present.
func (r *Registry) Add(ev Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[ev.Name()]; ok {
		return false
	}
	ev.SetID(atomic.AddUint64(&r.nextID, 1))
	r.slots[ev.Name()] = &slot{ev: ev}
	return true
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.slots[name]
	return ok
}

// Names returns the registered event names in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.slots))
	for n := range r.slots {
		names = append(names, n)
	}
	return names
}

// ContentEqual reports whether an event by the same name is already
// registered with an identical content hash.
func (r *Registry) ContentEqual(ev Event) bool {
	r.mu.RLock()
	s, ok := r.slots[ev.Name()]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ev.ContentHash() == ev.ContentHash()
}

// Remove detaches the named event. The caller must UnlistenFor first;
// Remove refuses if a listener is still installed.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[name]
	if !ok {
		return fmt.Errorf("event %q: %w", name, schederr.ErrNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("event %q: listener still installed, call UnlistenFor first: %w", name, schederr.ErrUnsupported)
	}
	delete(r.slots, name)
	return nil
}

// DynamicAddOrReplace inserts ev if absent (assigning a fresh id), or
// swaps the slot's event object in place, preserving the id. Callers are
// responsible for UnlistenFor-ing the old listener before calling this
// for a replace (per §4.5 step 4) — DynamicAddOrReplace itself never
// touches listener state.
func (r *Registry) DynamicAddOrReplace(ev Event) bool {
	r.mu.Lock()
	s, existed := r.slots[ev.Name()]
	if !existed {
		ev.SetID(atomic.AddUint64(&r.nextID, 1))
		r.slots[ev.Name()] = &slot{ev: ev}
		r.mu.Unlock()
		return true
	}
	r.mu.Unlock()

	s.mu.Lock()
	ev.SetID(s.ev.ID())
	s.ev = ev
	s.mu.Unlock()
	return false
}

// ListenFor installs the named event's listener. For events that require
// a dedicated goroutine, Setup is called synchronously (a failure is
// returned here, not just logged) and, on success, Loop is spawned with a
// cancellable context standing in for the quit channel. For events that
// do not require a listener, only metadata is installed. Fails if name is
// unknown or already listening.
func (r *Registry) ListenFor(ctx context.Context, name string) error {
	r.mu.RLock()
	s, ok := r.slots[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("event %q: %w", name, schederr.ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return fmt.Errorf("event %q: already listening: %w", name, schederr.ErrUnsupported)
	}

	if !s.ev.RequiresListener() {
		s.listener = &listener{}
		return nil
	}

	listenCtx, cancel := context.WithCancel(ctx)
	if err := s.ev.Setup(listenCtx); err != nil {
		cancel()
		return fmt.Errorf("event %q: listener setup failed: %w: %w", name, err, schederr.ErrListenerFailure)
	}

	done := make(chan struct{})
	s.listener = &listener{cancel: cancel, done: done}

	condName := s.ev.ConditionName()
	metrics.EventListenersActive.Inc()
	go func() {
		defer close(done)
		defer metrics.EventListenersActive.Dec()
		s.ev.Loop(listenCtx, func() { r.fire(name, condName) })
		s.ev.Teardown(context.Background())
	}()

	return nil
}

// UnlistenFor signals the named event's listener to stop and waits for it
// to acknowledge termination. Idempotent on already-stopped listeners;
// always reaches the listener — there is no forced kill.
func (r *Registry) UnlistenFor(name string) error {
	r.mu.RLock()
	s, ok := r.slots[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("event %q: %w", name, schederr.ErrNotFound)
	}

	s.mu.Lock()
	l := s.listener
	s.listener = nil
	s.mu.Unlock()

	if l == nil {
		return nil
	}
	if l.cancel == nil {
		return nil // metadata-only listener, nothing to join
	}

	l.cancel()
	<-l.done
	return nil
}

// Trigger inserts the named event's assigned condition name into the
// bucket. Valid only for triggerable events.
func (r *Registry) Trigger(name string) error {
	r.mu.RLock()
	s, ok := r.slots[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("event %q: %w", name, schederr.ErrNotFound)
	}

	s.mu.Lock()
	triggerable := s.ev.Triggerable()
	condName := s.ev.ConditionName()
	s.mu.Unlock()

	if !triggerable {
		return fmt.Errorf("event %q: not triggerable: %w", name, schederr.ErrUnsupported)
	}
	r.fire(name, condName)
	return nil
}

// fire inserts condName into the bucket, the sole effect of an event
// firing. A condName left empty indicates a programming bug — an event
// that was never assigned a condition should never reach here, since
// AssignCondition is the only path that sets it and validates it first.
// Per spec.md, an invariant violation like this is fatal.
func (r *Registry) fire(eventName, condName string) {
	if condName == "" {
		slog.Error("event fired with no assigned condition", slog.String("event", eventName))
		panic(fmt.Sprintf("event %q fired with no assigned condition", eventName))
	}
	r.bucket.Insert(condName)
	slog.Debug("event fired", slog.String("event", eventName), slog.String("condition", condName))
}
