package event

import (
	"context"

	"icc.tech/scheduled/internal/hashutil"
)

// ManualEvent has no subscription of its own; it only exists to be fired
// via the control interface's trigger operation. Grounded on
// original_source/src/event/manual_event.rs.
type ManualEvent struct {
	Base
}

// NewManualEvent constructs a manual event.
func NewManualEvent(base Base) *ManualEvent {
	return &ManualEvent{Base: base}
}

// Type implements Event.
func (e *ManualEvent) Type() string { return "manual" }

// ContentHash implements Event.
func (e *ManualEvent) ContentHash() uint64 {
	return e.MixCommon(hashutil.NewBuilder()).String("manual").Sum()
}

// Triggerable implements Event.
func (e *ManualEvent) Triggerable() bool { return true }

// RequiresListener implements Event.
func (e *ManualEvent) RequiresListener() bool { return false }

// Setup implements Event. Manual events never have Setup called by
// ListenFor (RequiresListener is false) but a no-op body keeps the type
// satisfying the interface for direct use in tests.
func (e *ManualEvent) Setup(ctx context.Context) error { return nil }

// Loop implements Event. Never invoked by ListenFor.
func (e *ManualEvent) Loop(ctx context.Context, fire func()) {}

// Teardown implements Event. Never invoked by ListenFor.
func (e *ManualEvent) Teardown(ctx context.Context) {}
