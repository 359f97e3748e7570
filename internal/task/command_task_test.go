package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandTaskSuccess(t *testing.T) {
	ct := NewCommandTask("ok", "true", nil, "")
	assert.Equal(t, Success, ct.Run(context.Background()))
}

func TestCommandTaskFailure(t *testing.T) {
	ct := NewCommandTask("fail", "false", nil, "")
	assert.Equal(t, Failure, ct.Run(context.Background()))
}

func TestCommandTaskError(t *testing.T) {
	ct := NewCommandTask("missing-binary", "/no/such/binary-xyz", nil, "")
	assert.Equal(t, Error, ct.Run(context.Background()))
}

func TestCommandTaskContentHashStable(t *testing.T) {
	a := NewCommandTask("t", "echo", []string{"hi"}, "")
	b := NewCommandTask("t", "echo", []string{"hi"}, "")
	c := NewCommandTask("t", "echo", []string{"bye"}, "")

	assert.Equal(t, a.ContentHash(), b.ContentHash())
	assert.NotEqual(t, a.ContentHash(), c.ContentHash())
}
