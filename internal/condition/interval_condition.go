package condition

import (
	"context"
	"time"

	"icc.tech/scheduled/internal/hashutil"
)

// IntervalCondition fires once per configured duration since the last
// time it fired. The interval is expressed in ticks at construction time
// (the configuration applier translates "every N ticks" using the
// scheduler's tick period), then stored here as a plain time.Duration.
type IntervalCondition struct {
	Base
	interval  time.Duration
	lastFired time.Time
}

// NewIntervalCondition constructs an interval condition. interval is the
// wall-clock period between firings.
func NewIntervalCondition(base Base, interval time.Duration) *IntervalCondition {
	return &IntervalCondition{Base: base, interval: interval}
}

// Type implements Condition.
func (c *IntervalCondition) Type() string { return "interval" }

// ContentHash implements Condition.
func (c *IntervalCondition) ContentHash() uint64 {
	return c.MixCommon(hashutil.NewBuilder()).String("interval").Int(int(c.interval)).Sum()
}

// Check implements Condition. Verified at most once per interval; every
// other tick is NotVerified, not Inconclusive, since the check did run
// and determine "not yet time".
func (c *IntervalCondition) Check(ctx context.Context) CheckResult {
	now := time.Now()
	if !c.lastFired.IsZero() && now.Sub(c.lastFired) < c.interval {
		return NotVerified
	}
	c.lastFired = now
	return Verified
}
