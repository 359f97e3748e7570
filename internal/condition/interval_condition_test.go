package condition

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalCondition_FirstCheckVerified(t *testing.T) {
	base := NewBase("interval1", nil, true, -1, false, false, false, false)
	c := NewIntervalCondition(base, 50*time.Millisecond)

	assert.Equal(t, Verified, c.Check(context.Background()))
}

func TestIntervalCondition_NotVerifiedBeforeIntervalElapses(t *testing.T) {
	base := NewBase("interval1", nil, true, -1, false, false, false, false)
	c := NewIntervalCondition(base, time.Hour)

	assert.Equal(t, Verified, c.Check(context.Background()))
	assert.Equal(t, NotVerified, c.Check(context.Background()))
}

func TestIntervalCondition_VerifiedAgainAfterIntervalElapses(t *testing.T) {
	base := NewBase("interval1", nil, true, -1, false, false, false, false)
	c := NewIntervalCondition(base, 20*time.Millisecond)

	assert.Equal(t, Verified, c.Check(context.Background()))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, Verified, c.Check(context.Background()))
}

func TestIntervalCondition_Type(t *testing.T) {
	base := NewBase("interval1", nil, true, -1, false, false, false, false)
	c := NewIntervalCondition(base, time.Minute)

	assert.Equal(t, "interval", c.Type())
}

func TestIntervalCondition_ContentHashStableAcrossChecks(t *testing.T) {
	base := NewBase("interval1", nil, true, -1, false, false, false, false)
	c := NewIntervalCondition(base, time.Minute)

	before := c.ContentHash()
	c.Check(context.Background())
	assert.Equal(t, before, c.ContentHash())
}

func TestIntervalCondition_ContentHashDiffersByInterval(t *testing.T) {
	base := NewBase("interval1", nil, true, -1, false, false, false, false)
	a := NewIntervalCondition(base, time.Minute)
	b := NewIntervalCondition(base, time.Hour)

	assert.NotEqual(t, a.ContentHash(), b.ContentHash())
}
