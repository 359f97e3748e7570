package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignConditionRejectsNonBucketType(t *testing.T) {
	b := NewBase("E1")
	err := b.AssignCondition("C1", "calendar")
	assert.Error(t, err)
	assert.Empty(t, b.ConditionName())
}

func TestAssignConditionAcceptsBucketType(t *testing.T) {
	b := NewBase("E1")
	err := b.AssignCondition("C1", "bucket")
	assert.NoError(t, err)
	assert.Equal(t, "C1", b.ConditionName())
}
