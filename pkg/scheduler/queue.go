package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-drift/fiber/pkg/errors"
)

// MaxIdleFlushes bounds RunUntilIdle so that work which re-schedules itself
// forever is reported instead of spinning.
const MaxIdleFlushes = 10000

// Queue is a Scheduler whose tasks run when the owner flushes it.
//
// Schedule is safe to call from any goroutine. Flush methods must be called
// from the single goroutine that owns the work being scheduled.
type Queue struct {
	mu    sync.Mutex
	tasks []func(Deadline)
	clock Clock

	// OnSchedule is called after a task is queued, signalling that a flush
	// should happen soon.
	OnSchedule func()
}

var _ Scheduler = (*Queue)(nil)

// NewQueue creates a queue whose time budgets use clock (system time if nil).
func NewQueue(clock Clock) *Queue {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Queue{clock: clock}
}

// Schedule queues task for the next flush.
func (q *Queue) Schedule(task func(Deadline)) {
	if task == nil {
		return
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
	if q.OnSchedule != nil {
		q.OnSchedule()
	}
}

// Pending returns the number of queued tasks.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *Queue) drain() []func(Deadline) {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()
	return tasks
}

// FlushWith runs the tasks queued so far, sharing deadline between them.
// Tasks scheduled while flushing wait for the next flush. Returns the number
// of tasks run.
func (q *Queue) FlushWith(deadline Deadline) int {
	tasks := q.drain()
	for _, task := range tasks {
		run(task, deadline)
	}
	return len(tasks)
}

// Flush runs the queued tasks within a time budget.
func (q *Queue) Flush(budget time.Duration) int {
	return q.FlushWith(Budget(q.clock, budget))
}

// FlushBatch runs the queued tasks allowing n units of work.
func (q *Queue) FlushBatch(n int) int {
	return q.FlushWith(Batch(n))
}

// RunUntilIdle flushes with a fresh budget per slice until nothing is
// queued. It returns the number of slices run.
func (q *Queue) RunUntilIdle(budget time.Duration) (int, error) {
	slices := 0
	for q.Pending() > 0 {
		if slices >= MaxIdleFlushes {
			return slices, fmt.Errorf("scheduler: still busy after %d slices", slices)
		}
		q.Flush(budget)
		slices++
	}
	return slices, nil
}

func run(task func(Deadline), deadline Deadline) {
	defer errors.Recover("scheduler.Flush")
	task(deadline)
}
