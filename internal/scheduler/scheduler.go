// Package scheduler implements the tick-driver loop (spec.md §4.6): a
// single periodic goroutine that asks the ConditionRegistry to tick every
// registered condition.
package scheduler

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"icc.tech/scheduled/internal/condition"
	"icc.tech/scheduled/internal/metrics"
	"icc.tech/scheduled/internal/schederr"
	"icc.tech/scheduled/internal/task"
)

// Scheduler drives the periodic tick loop. It is single-threaded with
// respect to itself; task execution inside a tick may spawn its own
// goroutines per the condition's exec_sequence policy.
type Scheduler struct {
	condReg   *condition.Registry
	taskReg   *task.Registry
	period    time.Duration
	randomize bool
	done      chan struct{}
}

// New constructs a Scheduler driving condReg/taskReg at the given tick
// period. randomize shuffles the condition visitation order each tick
// when true (scheduler_tick_seconds/randomize_checks_within_ticks).
func New(condReg *condition.Registry, taskReg *task.Registry, period time.Duration, randomize bool) *Scheduler {
	return &Scheduler{condReg: condReg, taskReg: taskReg, period: period, randomize: randomize, done: make(chan struct{})}
}

// Done returns a channel closed once Run has returned, so a caller can
// join on the scheduler's own goroutine within a bounded grace period
// instead of assuming ctx cancellation alone means the loop has stopped.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Run blocks, ticking every period until ctx is cancelled. A single
// condition taking longer than one period is tolerated: ticks run one at
// a time on this goroutine, the ticker holds at most one pending tick,
// which starts as soon as the previous one finishes, and any further
// ticks missed during the overrun are dropped. Run closes Done()
// immediately before returning, once any
// tick in flight at cancellation time has finished running (RunTasks
// blocks on its own task goroutines, and os/exec tasks are killed
// promptly by ctx cancellation via exec.CommandContext).
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	defer metrics.TicksTotal.Inc()

	names := s.condReg.Names()
	if s.randomize {
		rand.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
	}

	for _, name := range names {
		result, err := s.condReg.Tick(ctx, s.taskReg, name)
		if err != nil {
			metrics.ConditionErrorsTotal.WithLabelValues(name, schederr.KindOf(err).String()).Inc()
			slog.Error("tick failed", slog.String("condition", name), slog.String("error", err.Error()))
			continue
		}
		if result != nil {
			slog.Debug("tick completed", slog.String("condition", name), slog.Bool("verified", *result))
		}
	}
}
