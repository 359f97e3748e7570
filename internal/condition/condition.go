// Package condition implements the Condition model: common lifecycle
// (suspend/resume/reset, retries, last-tested bookkeeping) shared by every
// condition kind, plus the ConditionRegistry that drives per-condition
// ticks.
//
// Grounded on original_source/src/condition/registry.rs and
// original_source/src/condition/bucket_cond.rs.
package condition

import (
	"context"
	"time"

	"icc.tech/scheduled/internal/hashutil"
	"icc.tech/scheduled/internal/metrics"
	"icc.tech/scheduled/internal/task"
)

// CheckResult is the outcome of a condition's type-specific Check.
type CheckResult int

const (
	// Inconclusive means the check had no side effect this tick (the
	// Rust original's None).
	Inconclusive CheckResult = iota
	// NotVerified means the check ran but the condition was not met.
	NotVerified
	// Verified means the condition fired: its task phase should run.
	Verified
)

// Condition is the capability set every condition kind implements: a
// shared lifecycle (suspend/resume/reset, retries, state accessors) plus a
// type-specific Check. Implementations embed Base for the shared part.
type Condition interface {
	// Name returns the condition's unique, stable identifier.
	Name() string
	// Type returns the condition's declared type tag.
	Type() string
	// ContentHash hashes the configured (non-runtime) fields only.
	ContentHash() uint64

	TaskNames() []string
	Recurring() bool
	MaxRetries() int
	ExecSequence() bool
	BreakOnSuccess() bool
	BreakOnFailure() bool

	ID() uint64
	SetID(uint64)
	Suspended() bool
	SetSuspended(bool)
	LastTested() *time.Time
	LastSucceeded() *time.Time
	HasSucceeded() bool
	StartupTime() time.Time
	LeftRetries() int
	TasksFailed() bool

	// ResetRuntime clears last_tested/last_succeeded, re-primes
	// left_retries from max_retries, and clears tasks_failed. Used by
	// the registry's Reset control operation.
	ResetRuntime()
	// RecordTested stamps last_tested. Called by the registry at the
	// start of every tick, before Check runs.
	RecordTested(now time.Time)
	// RecordTaskPhase applies the retry/auto-suspend policy (§4.3.2) and
	// updates last_succeeded/has_succeeded/tasks_failed after the task
	// phase completes.
	RecordTaskPhase(success bool)

	// Check performs the type-specific test. It must not block on I/O
	// longer than its own nature requires; the registry calls Check
	// while already holding the condition's own lock.
	Check(ctx context.Context) CheckResult
}

// Base implements the shared lifecycle fields and methods. Concrete
// condition types embed Base and add Type/ContentHash/Check.
type Base struct {
	name           string
	taskNames      []string
	recurring      bool
	maxRetries     int
	execSequence   bool
	breakOnSuccess bool
	breakOnFailure bool

	id            uint64
	suspended     bool
	lastTested    *time.Time
	lastSucceeded *time.Time
	hasSucceeded  bool
	startupTime   time.Time
	leftRetries   int
	tasksFailed   bool
}

// NewBase constructs the shared lifecycle state for a freshly configured
// condition. Conditions start detached (id=0); suspended reflects the
// configured initial state.
func NewBase(name string, taskNames []string, recurring bool, maxRetries int, execSequence, breakOnSuccess, breakOnFailure, suspended bool) Base {
	return Base{
		name:           name,
		taskNames:      append([]string(nil), taskNames...),
		recurring:      recurring,
		maxRetries:     maxRetries,
		execSequence:   execSequence,
		breakOnSuccess: breakOnSuccess,
		breakOnFailure: breakOnFailure,
		suspended:      suspended,
		leftRetries:    maxRetries,
		startupTime:    time.Now(),
	}
}

func (b *Base) Name() string            { return b.name }
func (b *Base) TaskNames() []string     { return append([]string(nil), b.taskNames...) }
func (b *Base) Recurring() bool         { return b.recurring }
func (b *Base) MaxRetries() int         { return b.maxRetries }
func (b *Base) ExecSequence() bool      { return b.execSequence }
func (b *Base) BreakOnSuccess() bool    { return b.breakOnSuccess }
func (b *Base) BreakOnFailure() bool    { return b.breakOnFailure }

func (b *Base) ID() uint64       { return b.id }
func (b *Base) SetID(id uint64)  { b.id = id }
func (b *Base) Suspended() bool  { return b.suspended }
func (b *Base) SetSuspended(s bool) { b.suspended = s }

func (b *Base) LastTested() *time.Time    { return b.lastTested }
func (b *Base) LastSucceeded() *time.Time { return b.lastSucceeded }
func (b *Base) HasSucceeded() bool        { return b.hasSucceeded }
func (b *Base) StartupTime() time.Time    { return b.startupTime }
func (b *Base) LeftRetries() int          { return b.leftRetries }
func (b *Base) TasksFailed() bool         { return b.tasksFailed }

// ResetRuntime implements Condition.
func (b *Base) ResetRuntime() {
	b.lastTested = nil
	b.lastSucceeded = nil
	b.hasSucceeded = false
	b.tasksFailed = false
	b.leftRetries = b.maxRetries
}

// RecordTested implements Condition.
func (b *Base) RecordTested(now time.Time) {
	b.lastTested = &now
}

// RecordTaskPhase implements the §4.3.2 retry and auto-suspend policy.
func (b *Base) RecordTaskPhase(success bool) {
	if success {
		now := time.Now()
		b.lastSucceeded = &now
		b.hasSucceeded = true
		b.tasksFailed = false
		if !b.recurring {
			b.suspended = true
		}
		return
	}

	b.hasSucceeded = false
	b.tasksFailed = true

	if b.maxRetries == -1 {
		// Unbounded retries: never exhausts.
		return
	}
	if b.leftRetries > 0 {
		b.leftRetries--
		return
	}
	// left_retries was already 0: this failure exhausts the retry budget.
	if !b.recurring {
		b.suspended = true
	}
}

// MixCommon feeds the common configured fields — name, task names,
// recurring, max_retries, exec_sequence, break_on_success,
// break_on_failure — into bld. Deliberately excludes suspended and every
// runtime field, matching the original's Hash impl. Concrete condition
// types call this first, then mix in their own type-specific fields.
func (b *Base) MixCommon(bld *hashutil.Builder) *hashutil.Builder {
	return bld.
		String(b.name).
		Strings(b.taskNames).
		Bool(b.recurring).
		Int(b.maxRetries).
		Bool(b.execSequence).
		Bool(b.breakOnSuccess).
		Bool(b.breakOnFailure)
}

// RunTasks implements the §4.3.2 task-execution policy for the task
// names this condition declares, using the given task registry. It
// returns true iff the task phase is considered successful as a whole.
func RunTasks(ctx context.Context, reg *task.Registry, c Condition) bool {
	names := c.TaskNames()
	if len(names) == 0 {
		return true
	}

	if !c.ExecSequence() {
		results := make(chan bool, len(names))
		for _, n := range names {
			n := n
			go func() {
				results <- runOneTask(ctx, reg, n)
			}()
		}
		ok := true
		for range names {
			if !<-results {
				ok = false
			}
		}
		return ok
	}

	ok := true
	for _, n := range names {
		succeeded := runOneTask(ctx, reg, n)
		if !succeeded {
			ok = false
			if c.BreakOnFailure() {
				break
			}
		} else if c.BreakOnSuccess() {
			break
		}
	}
	return ok
}

func runOneTask(ctx context.Context, reg *task.Registry, name string) bool {
	start := time.Now()
	outcome, err := reg.Run(ctx, name)
	metrics.TaskLatencySeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())

	succeeded := err == nil && outcome == task.Success
	label := metrics.TaskOutcomeFailure
	if succeeded {
		label = metrics.TaskOutcomeSuccess
	}
	metrics.TaskOutcomesTotal.WithLabelValues(name, label).Inc()
	return succeeded
}
