package condition

import (
	"context"
	"log/slog"
	"os/exec"

	"icc.tech/scheduled/internal/hashutil"
)

// CommandCondition is verified when running an external command exits
// zero. Not present in the retrieved pack as its own file; reasoned from
// config.rs's references to condition::command_cond::CommandCondition
// (check_cfgmap/load_cfgmap) — "run a command and check the exit code"
// has no richer Go library equivalent worth reaching for over os/exec.
type CommandCondition struct {
	Base
	command string
	args    []string
}

// NewCommandCondition constructs a command condition.
func NewCommandCondition(base Base, command string, args []string) *CommandCondition {
	return &CommandCondition{Base: base, command: command, args: args}
}

// Type implements Condition.
func (c *CommandCondition) Type() string { return "command" }

// ContentHash implements Condition.
func (c *CommandCondition) ContentHash() uint64 {
	return c.MixCommon(hashutil.NewBuilder()).String("command").String(c.command).Strings(c.args).Sum()
}

// Check implements Condition.
func (c *CommandCondition) Check(ctx context.Context) CheckResult {
	cmd := exec.CommandContext(ctx, c.command, c.args...)
	if err := cmd.Run(); err != nil {
		slog.Debug("command condition check failed", slog.String("condition", c.Name()), slog.String("error", err.Error()))
		return NotVerified
	}
	return Verified
}
