package condition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandCondition_VerifiedOnZeroExit(t *testing.T) {
	base := NewBase("cmd1", nil, true, -1, false, false, false, false)
	c := NewCommandCondition(base, "true", nil)

	assert.Equal(t, Verified, c.Check(context.Background()))
}

func TestCommandCondition_NotVerifiedOnNonZeroExit(t *testing.T) {
	base := NewBase("cmd1", nil, true, -1, false, false, false, false)
	c := NewCommandCondition(base, "false", nil)

	assert.Equal(t, NotVerified, c.Check(context.Background()))
}

func TestCommandCondition_NotVerifiedOnMissingBinary(t *testing.T) {
	base := NewBase("cmd1", nil, true, -1, false, false, false, false)
	c := NewCommandCondition(base, "definitely-not-a-real-binary-xyz", nil)

	assert.Equal(t, NotVerified, c.Check(context.Background()))
}

func TestCommandCondition_ArgsPassedThrough(t *testing.T) {
	base := NewBase("cmd1", nil, true, -1, false, false, false, false)
	c := NewCommandCondition(base, "test", []string{"-z", ""})

	assert.Equal(t, Verified, c.Check(context.Background()))
}

func TestCommandCondition_Type(t *testing.T) {
	base := NewBase("cmd1", nil, true, -1, false, false, false, false)
	c := NewCommandCondition(base, "true", nil)

	assert.Equal(t, "command", c.Type())
}

func TestCommandCondition_ContentHashDiffersByCommandAndArgs(t *testing.T) {
	base := NewBase("cmd1", nil, true, -1, false, false, false, false)
	a := NewCommandCondition(base, "true", nil)
	b := NewCommandCondition(base, "true", []string{"-x"})
	c := NewCommandCondition(base, "false", nil)

	assert.NotEqual(t, a.ContentHash(), b.ContentHash())
	assert.NotEqual(t, a.ContentHash(), c.ContentHash())
}
