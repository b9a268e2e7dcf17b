// Package scheduler drives cooperative, time-sliced work.
//
// A Scheduler runs tasks during idle periods and hands each one a Deadline
// describing how much of the current slice is left. Long-running work checks
// the deadline between units and re-schedules itself when the slice is spent,
// returning control to the environment in between.
//
// Queue is a manual scheduler: tasks accumulate until the owner calls one of
// its Flush methods. Loop owns a Queue and flushes it from a frame ticker.
// Platforms without an idle-time primitive can use Batch deadlines, which
// allow a fixed number of units per slice instead of a time budget.
package scheduler

import (
	"math"
	"time"
)

// Forever is the time remaining reported by an unbounded deadline.
const Forever = time.Duration(math.MaxInt64)

// Deadline reports how much of the current slice is left.
type Deadline interface {
	TimeRemaining() time.Duration
}

// Scheduler runs tasks in a later idle slice.
type Scheduler interface {
	Schedule(task func(Deadline))
}

type unbounded struct{}

func (unbounded) TimeRemaining() time.Duration { return Forever }

// Unbounded returns a deadline that never expires.
func Unbounded() Deadline { return unbounded{} }

type timeBudget struct {
	clock Clock
	end   time.Time
}

func (b timeBudget) TimeRemaining() time.Duration {
	left := b.end.Sub(b.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

// Budget returns a deadline that expires d after now according to clock.
func Budget(clock Clock, d time.Duration) Deadline {
	if clock == nil {
		clock = SystemClock{}
	}
	return timeBudget{clock: clock, end: clock.Now().Add(d)}
}

type batchBudget struct {
	left int
}

// TimeRemaining consumes one unit per call: it reports Forever while units
// remain and zero once the batch is spent.
func (b *batchBudget) TimeRemaining() time.Duration {
	b.left--
	if b.left <= 0 {
		return 0
	}
	return Forever
}

// Batch returns a deadline that allows n units of work, where every
// TimeRemaining query counts as one unit.
func Batch(n int) Deadline {
	return &batchBudget{left: n}
}
