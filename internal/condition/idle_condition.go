package condition

import (
	"context"
	"time"

	"icc.tech/scheduled/internal/hashutil"
)

// ActivityTracker reports the timestamp of the most recent control-
// interface activity. internal/command.CommandHandler implements this.
type ActivityTracker interface {
	LastActivity() time.Time
}

// IdleCondition is satisfied once threshold has elapsed since the last
// recorded control-interface activity. This is the cross-platform,
// library-free analogue of the original's desktop-session idle query
// (X11/Windows-specific there): a headless daemon has no desktop session
// to poll, so "idle" here means "nobody has issued a control command in a
// while".
type IdleCondition struct {
	Base
	threshold time.Duration
	tracker   ActivityTracker
}

// NewIdleCondition constructs an idle condition against tracker.
func NewIdleCondition(base Base, threshold time.Duration, tracker ActivityTracker) *IdleCondition {
	return &IdleCondition{Base: base, threshold: threshold, tracker: tracker}
}

// Type implements Condition.
func (c *IdleCondition) Type() string { return "idle" }

// ContentHash implements Condition.
func (c *IdleCondition) ContentHash() uint64 {
	return c.MixCommon(hashutil.NewBuilder()).String("idle").Int(int(c.threshold)).Sum()
}

// Check implements Condition.
func (c *IdleCondition) Check(ctx context.Context) CheckResult {
	if time.Since(c.tracker.LastActivity()) >= c.threshold {
		return Verified
	}
	return NotVerified
}
