package task

import (
	"context"
	"log/slog"
	"os/exec"

	"icc.tech/scheduled/internal/hashutil"
)

// CommandTask runs an external command and reports Success iff it exits
// zero. This is the one concrete Task body carried in this repo — the
// reference set the purpose's Non-goals intentionally leave small; real
// deployments supply their own Task implementations.
//
// Grounded on the original's command condition (run a command, check its
// exit code) generalized from a check into a task body.
type CommandTask struct {
	name    string
	command string
	args    []string
	dir     string
}

// NewCommandTask builds a CommandTask from its configured fields.
func NewCommandTask(name, command string, args []string, dir string) *CommandTask {
	return &CommandTask{name: name, command: command, args: args, dir: dir}
}

// Name implements Task.
func (t *CommandTask) Name() string { return t.name }

// ContentHash implements Task.
func (t *CommandTask) ContentHash() uint64 {
	return hashutil.NewBuilder().
		String(t.name).
		String(t.command).
		Strings(t.args).
		String(t.dir).
		Sum()
}

// Run implements Task.
func (t *CommandTask) Run(ctx context.Context) Outcome {
	cmd := exec.CommandContext(ctx, t.command, t.args...)
	if t.dir != "" {
		cmd.Dir = t.dir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		slog.Debug("command task failed",
			slog.String("task", t.name),
			slog.String("error", err.Error()),
			slog.String("output", string(out)))
		if _, ok := err.(*exec.ExitError); ok {
			return Failure
		}
		return Error
	}
	return Success
}
