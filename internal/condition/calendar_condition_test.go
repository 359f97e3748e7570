package condition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCalendarCondition_RejectsInvalidSchedule(t *testing.T) {
	base := NewBase("cal1", nil, true, -1, false, false, false, false)
	_, err := NewCalendarCondition(base, "not a cron expression")
	assert.Error(t, err)
}

func TestNewCalendarCondition_AcceptsValidSchedule(t *testing.T) {
	base := NewBase("cal1", nil, true, -1, false, false, false, false)
	c, err := NewCalendarCondition(base, "* * * * * *")
	require.NoError(t, err)
	assert.Equal(t, "calendar", c.Type())
}

func TestCalendarCondition_EveryTickScheduleAlwaysDue(t *testing.T) {
	base := NewBase("cal1", nil, true, -1, false, false, false, false)
	c, err := NewCalendarCondition(base, "* * * * * *")
	require.NoError(t, err)

	assert.Equal(t, Verified, c.Check(context.Background()))
}

func TestCalendarCondition_FarFutureScheduleNeverDueYet(t *testing.T) {
	base := NewBase("cal1", nil, true, -1, false, false, false, false)
	c, err := NewCalendarCondition(base, "0 0 1 1 *")
	require.NoError(t, err)

	assert.Equal(t, NotVerified, c.Check(context.Background()))
}

func TestCalendarCondition_ContentHashDiffersBySchedule(t *testing.T) {
	base := NewBase("cal1", nil, true, -1, false, false, false, false)
	a, err := NewCalendarCondition(base, "* * * * * *")
	require.NoError(t, err)
	b, err := NewCalendarCondition(base, "0 0 1 1 *")
	require.NoError(t, err)

	assert.NotEqual(t, a.ContentHash(), b.ContentHash())
}
