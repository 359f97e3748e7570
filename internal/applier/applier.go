// Package applier implements the configuration applier: a cold
// Configure for startup and a hot Reconfigure that diffs and patches the
// three registries against a freshly loaded configuration tree.
//
// Grounded on spec.md §4.5; no direct teacher analogue (the teacher
// configures a fixed packet pipeline, not a dynamic registry set), so the
// sequencing follows spec.md's algorithm description directly.
package applier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"icc.tech/scheduled/internal/bucket"
	"icc.tech/scheduled/internal/condition"
	"icc.tech/scheduled/internal/config"
	"icc.tech/scheduled/internal/event"
	"icc.tech/scheduled/internal/schederr"
	"icc.tech/scheduled/internal/task"
)

// Applier owns references to the three registries and the bucket they
// share, plus the ambient parameters (tick period, activity tracker)
// concrete condition/event constructors need.
type Applier struct {
	taskReg  *task.Registry
	condReg  *condition.Registry
	eventReg *event.Registry
	bucket   *bucket.ExecutionBucket

	tickPeriod time.Duration
	activity   condition.ActivityTracker
}

// New constructs an Applier bound to the given registries.
func New(taskReg *task.Registry, condReg *condition.Registry, eventReg *event.Registry, b *bucket.ExecutionBucket, tickPeriod time.Duration, activity condition.ActivityTracker) *Applier {
	return &Applier{
		taskReg:    taskReg,
		condReg:    condReg,
		eventReg:   eventReg,
		bucket:     b,
		tickPeriod: tickPeriod,
		activity:   activity,
	}
}

// SetActivityTracker installs the activity tracker after construction, for
// callers that must build the Applier before the tracker exists (the
// control-plane CommandHandler needs the Applier for reconfigure, and the
// Applier needs the handler as its IdleCondition activity source).
func (a *Applier) SetActivityTracker(activity condition.ActivityTracker) {
	a.activity = activity
}

func (a *Applier) buildTask(tc config.TaskConfig) (task.Task, error) {
	switch tc.Type {
	case "command":
		return task.NewCommandTask(tc.Name, tc.Command, tc.Args, tc.Dir), nil
	default:
		return nil, fmt.Errorf("task %q: unknown type %q: %w", tc.Name, tc.Type, schederr.ErrConfigInvalid)
	}
}

func (a *Applier) buildCondition(cc config.ConditionConfig) (condition.Condition, error) {
	base := condition.NewBase(cc.Name, cc.TaskNames, cc.Recurring, cc.MaxRetries, cc.ExecSequence, cc.BreakOnSuccess, cc.BreakOnFailure, cc.Suspended)

	switch cc.Type {
	case "bucket":
		return condition.NewBucketCondition(base, a.bucket), nil
	case "interval":
		return condition.NewIntervalCondition(base, time.Duration(cc.IntervalTicks)*a.tickPeriod), nil
	case "calendar":
		cond, err := condition.NewCalendarCondition(base, cc.Schedule)
		if err != nil {
			return nil, fmt.Errorf("condition %q: invalid schedule %q: %w: %w", cc.Name, cc.Schedule, err, schederr.ErrConfigInvalid)
		}
		return cond, nil
	case "idle":
		d, err := time.ParseDuration(cc.IdleThreshold)
		if err != nil {
			return nil, fmt.Errorf("condition %q: invalid idle_threshold %q: %w: %w", cc.Name, cc.IdleThreshold, err, schederr.ErrConfigInvalid)
		}
		return condition.NewIdleCondition(base, d, a.activity), nil
	case "command":
		return condition.NewCommandCondition(base, cc.Command, cc.Args), nil
	default:
		return nil, fmt.Errorf("condition %q: unknown type %q: %w", cc.Name, cc.Type, schederr.ErrConfigInvalid)
	}
}

func (a *Applier) buildEvent(ec config.EventConfig) (event.Event, error) {
	base := event.NewBase(ec.Name)

	var ev event.Event
	switch ec.Type {
	case "manual":
		ev = event.NewManualEvent(base)
	case "fschange":
		ev = event.NewFsChangeEvent(base, ec.Path)
	case "bus":
		ev = event.NewBusEvent(base, ec.Brokers, ec.Topic, ec.GroupID)
	case "query":
		ev = event.NewQueryEvent(base, ec.Command, ec.Args, time.Duration(ec.IntervalSeconds)*time.Second)
	default:
		return nil, fmt.Errorf("event %q: unknown type %q: %w", ec.Name, ec.Type, schederr.ErrConfigInvalid)
	}

	if ec.Condition != "" {
		condType, ok := a.condReg.TypeOf(ec.Condition)
		if !ok {
			return nil, fmt.Errorf("event %q: referenced condition %q not found: %w", ec.Name, ec.Condition, schederr.ErrConfigInvalid)
		}
		if err := ev.AssignCondition(ec.Condition, condType); err != nil {
			return nil, fmt.Errorf("event %q: %w", ec.Name, err)
		}
	}

	return ev, nil
}

// Configure cold-applies cfg into empty registries: construct then insert,
// tasks before conditions before events, and finally ListenFor every
// event.
func (a *Applier) Configure(ctx context.Context, cfg *config.GlobalConfig) error {
	for _, tc := range cfg.Task {
		t, err := a.buildTask(tc)
		if err != nil {
			return err
		}
		if !a.taskReg.Add(t) {
			return fmt.Errorf("task %q: %w", tc.Name, schederr.ErrAlreadyExists)
		}
	}

	for _, cc := range cfg.Condition {
		c, err := a.buildCondition(cc)
		if err != nil {
			return err
		}
		if !a.condReg.Add(c) {
			return fmt.Errorf("condition %q: %w", cc.Name, schederr.ErrAlreadyExists)
		}
	}

	for _, ec := range cfg.Event {
		e, err := a.buildEvent(ec)
		if err != nil {
			return err
		}
		if !a.eventReg.Add(e) {
			return fmt.Errorf("event %q: %w", ec.Name, schederr.ErrAlreadyExists)
		}
	}

	for _, ec := range cfg.Event {
		if err := a.eventReg.ListenFor(ctx, ec.Name); err != nil {
			return fmt.Errorf("event %q: %w", ec.Name, err)
		}
	}

	return nil
}

// Reconfigure hot-diffs cfg against the live registries, in order tasks
// -> conditions -> events (spec.md §4.5). The first error aborts the
// remainder of the pass; every item processed before the error is fully
// applied, so the registries are left internally consistent even on
// partial failure.
func (a *Applier) Reconfigure(ctx context.Context, cfg *config.GlobalConfig) error {
	if err := a.reconfigureTasks(cfg.Task); err != nil {
		return err
	}
	if err := a.reconfigureConditions(cfg.Condition); err != nil {
		return err
	}
	if err := a.reconfigureEvents(ctx, cfg.Event); err != nil {
		return err
	}
	return nil
}

func (a *Applier) reconfigureTasks(items []config.TaskConfig) error {
	toRemove := make(map[string]struct{})
	for _, n := range a.taskReg.Names() {
		toRemove[n] = struct{}{}
	}

	for _, tc := range items {
		t, err := a.buildTask(tc)
		if err != nil {
			return err
		}
		if !a.taskReg.Has(tc.Name) || !a.taskReg.ContentEqual(t) {
			a.taskReg.DynamicAddOrReplace(t)
		} else {
			slog.Debug("no change detected", slog.String("task", tc.Name))
		}
		delete(toRemove, tc.Name)
	}

	for n := range toRemove {
		if !a.taskReg.Remove(n) {
			return fmt.Errorf("removing stale task %q: %w", n, schederr.ErrNotFound)
		}
	}
	return nil
}

func (a *Applier) reconfigureConditions(items []config.ConditionConfig) error {
	toRemove := make(map[string]struct{})
	for _, n := range a.condReg.Names() {
		toRemove[n] = struct{}{}
	}

	for _, cc := range items {
		c, err := a.buildCondition(cc)
		if err != nil {
			return err
		}
		if !a.condReg.Has(cc.Name) || !a.condReg.ContentEqual(c) {
			a.condReg.DynamicAddOrReplace(c)
		} else {
			slog.Debug("no change detected", slog.String("condition", cc.Name))
		}
		delete(toRemove, cc.Name)
	}

	for n := range toRemove {
		if _, err := a.condReg.Remove(n); err != nil {
			return fmt.Errorf("removing stale condition %q: %w", n, err)
		}
	}
	return nil
}

func (a *Applier) reconfigureEvents(ctx context.Context, items []config.EventConfig) error {
	toRemove := make(map[string]struct{})
	for _, n := range a.eventReg.Names() {
		toRemove[n] = struct{}{}
	}

	for _, ec := range items {
		e, err := a.buildEvent(ec)
		if err != nil {
			return err
		}

		existed := a.eventReg.Has(ec.Name)
		changed := !existed || !a.eventReg.ContentEqual(e)

		if changed {
			if existed {
				// Replace path: unlisten the old listener before
				// installing the new one (spec.md §4.5 step 4).
				if err := a.eventReg.UnlistenFor(ec.Name); err != nil {
					return fmt.Errorf("unlistening stale event %q before replace: %w", ec.Name, err)
				}
			}
			a.eventReg.DynamicAddOrReplace(e)
			if err := a.eventReg.ListenFor(ctx, ec.Name); err != nil {
				return fmt.Errorf("event %q: %w", ec.Name, err)
			}
		} else {
			slog.Debug("no change detected", slog.String("event", ec.Name))
		}
		delete(toRemove, ec.Name)
	}

	for n := range toRemove {
		if err := a.eventReg.UnlistenFor(n); err != nil {
			return fmt.Errorf("unlistening stale event %q: %w", n, err)
		}
		if err := a.eventReg.Remove(n); err != nil {
			return fmt.Errorf("removing stale event %q: %w", n, err)
		}
	}
	return nil
}
