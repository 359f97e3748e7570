package event

import (
	"context"
	"log/slog"
	"os/exec"
	"time"

	"icc.tech/scheduled/internal/hashutil"
)

// QueryEvent polls an external command on a fixed interval and fires
// whenever it exits zero. The event-side companion to CommandCondition:
// where CommandCondition is checked only when a tick visits it,
// QueryEvent actively polls on its own schedule and inserts into the
// bucket the moment the command succeeds, letting a fast-changing
// external signal be observed between ticks. Not present in the
// retrieved pack as its own file; the poll loop follows base.rs's
// Setup/Loop/Teardown split applied to CommandCondition's probe.
type QueryEvent struct {
	Base
	command  string
	args     []string
	interval time.Duration
}

// NewQueryEvent constructs a query event polling command every interval.
func NewQueryEvent(base Base, command string, args []string, interval time.Duration) *QueryEvent {
	return &QueryEvent{Base: base, command: command, args: args, interval: interval}
}

// Type implements Event.
func (e *QueryEvent) Type() string { return "query" }

// ContentHash implements Event.
func (e *QueryEvent) ContentHash() uint64 {
	return e.MixCommon(hashutil.NewBuilder()).String("query").String(e.command).Strings(e.args).Int(int(e.interval)).Sum()
}

// Triggerable implements Event.
func (e *QueryEvent) Triggerable() bool { return false }

// RequiresListener implements Event.
func (e *QueryEvent) RequiresListener() bool { return true }

// Setup implements Event. No subscription to open; the poll ticker is
// created lazily in Loop.
func (e *QueryEvent) Setup(ctx context.Context) error { return nil }

// Loop implements Event.
func (e *QueryEvent) Loop(ctx context.Context, fire func()) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cmd := exec.CommandContext(ctx, e.command, e.args...)
			if err := cmd.Run(); err != nil {
				slog.Debug("query event poll did not succeed", slog.String("event", e.Name()), slog.String("error", err.Error()))
				continue
			}
			fire()
		}
	}
}

// Teardown implements Event. Nothing to release.
func (e *QueryEvent) Teardown(ctx context.Context) {}
