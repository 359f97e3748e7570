// Package event implements the Event model: common assign-condition/
// fire-condition semantics plus the EventRegistry that spawns and stops
// per-event listener goroutines.
//
// Grounded on original_source/src/event/base.rs.
package event

import (
	"context"
	"fmt"

	"icc.tech/scheduled/internal/hashutil"
	"icc.tech/scheduled/internal/schederr"
)

// Event is the capability set every event kind implements. Concrete
// types embed Base for the shared assign-condition bookkeeping and add
// Type/ContentHash/Triggerable/RequiresListener/Setup/Loop/Teardown.
type Event interface {
	// Name returns the event's unique, stable identifier.
	Name() string
	// Type returns the event's declared type tag.
	Type() string
	// ContentHash hashes the configured (non-runtime) fields only.
	ContentHash() uint64

	ID() uint64
	SetID(uint64)

	// ConditionName returns the name of the bucket-backed condition this
	// event is assigned to, or "" if none.
	ConditionName() string
	// AssignCondition attaches condName, which must be of the
	// bucket-backed condition type. condType is the declared type tag of
	// the referenced condition, supplied by the caller (the applier,
	// which has already looked it up in the ConditionRegistry).
	AssignCondition(condName, condType string) error

	// Triggerable reports whether this event's firing can be initiated
	// directly via the control interface's trigger operation, rather
	// than only by its own subscription.
	Triggerable() bool

	// RequiresListener reports whether ListenFor should spawn a
	// dedicated goroutine for this event (subscription-based events) or
	// only install metadata (manual/triggerable-only events).
	RequiresListener() bool

	// Setup opens the subscription / registers the watcher. Called
	// synchronously by ListenFor before the listener goroutine is
	// spawned, so a setup failure can be reported as a failed
	// ListenFor rather than only logged.
	Setup(ctx context.Context) error

	// Loop blocks, selecting with equal priority between the underlying
	// event source and ctx.Done(); on a genuine, predicate-verified
	// occurrence it calls fire(); it returns when ctx is cancelled.
	// Events with RequiresListener() == false are never asked to Loop.
	Loop(ctx context.Context, fire func())

	// Teardown closes the subscription / unregisters the watcher. Called
	// once Loop has returned.
	Teardown(ctx context.Context)
}

// Base implements the shared identity and condition-assignment state.
type Base struct {
	name          string
	id            uint64
	conditionName string
}

// NewBase constructs the shared state for a freshly configured event.
// Events start detached (id=0).
func NewBase(name string) Base {
	return Base{name: name}
}

func (b *Base) Name() string          { return b.name }
func (b *Base) ID() uint64            { return b.id }
func (b *Base) SetID(id uint64)       { b.id = id }
func (b *Base) ConditionName() string { return b.conditionName }

// AssignCondition implements Event. Only a condition whose declared type
// is "bucket" may be assigned to an event (§3 Event invariants).
func (b *Base) AssignCondition(condName, condType string) error {
	if condType != "bucket" {
		return fmt.Errorf("condition %q has type %q, only bucket-backed conditions may be assigned to events: %w", condName, condType, schederr.ErrUnsupported)
	}
	b.conditionName = condName
	return nil
}

// MixCommon feeds the common configured fields into bld.
func (b *Base) MixCommon(bld *hashutil.Builder) *hashutil.Builder {
	return bld.String(b.name).String(b.conditionName)
}
