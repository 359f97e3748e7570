package condition

import (
	"context"
	"time"

	"github.com/hashicorp/cronexpr"

	"icc.tech/scheduled/internal/hashutil"
)

// CalendarCondition fires according to a cron expression, using
// github.com/hashicorp/cronexpr for schedule parsing and next-occurrence
// computation.
type CalendarCondition struct {
	Base
	schedule  string
	expr      *cronexpr.Expression
	lastFired time.Time
}

// NewCalendarCondition parses schedule (standard cron syntax, as accepted
// by cronexpr) and constructs a CalendarCondition. Returns an error if
// schedule does not parse.
func NewCalendarCondition(base Base, schedule string) (*CalendarCondition, error) {
	expr, err := cronexpr.Parse(schedule)
	if err != nil {
		return nil, err
	}
	return &CalendarCondition{Base: base, schedule: schedule, expr: expr}, nil
}

// Type implements Condition.
func (c *CalendarCondition) Type() string { return "calendar" }

// ContentHash implements Condition.
func (c *CalendarCondition) ContentHash() uint64 {
	return c.MixCommon(hashutil.NewBuilder()).String("calendar").String(c.schedule).Sum()
}

// Check implements Condition. Verified once the next scheduled occurrence
// after the last firing has passed. Before the first firing, lastFired is
// the Go zero time, so expr.Next computes the next occurrence from the
// start of the epoch rather than from process start; for any schedule
// that recurs within a day this is always already in the past, so the
// first Check is Verified immediately rather than waiting out one period.
func (c *CalendarCondition) Check(ctx context.Context) CheckResult {
	now := time.Now()
	next := c.expr.Next(c.lastFired)
	if next.IsZero() || now.Before(next) {
		return NotVerified
	}
	c.lastFired = now
	return Verified
}
