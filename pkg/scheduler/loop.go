package scheduler

import (
	"context"
	"time"
)

// LoopConfig configures a Loop.
type LoopConfig struct {
	// Interval paces slices while work keeps re-scheduling itself.
	Interval time.Duration
	// Slice is the time budget per flush. Ignored when Batch is positive.
	Slice time.Duration
	// Batch, when positive, allows a fixed number of units per flush.
	Batch int
	// Clock measures slices. Defaults to SystemClock.
	Clock Clock
}

// Loop runs scheduled tasks on the goroutine that calls Run.
type Loop struct {
	queue *Queue
	cfg   LoopConfig
	wake  chan struct{}
	calls chan func()
}

var _ Scheduler = (*Loop)(nil)

// NewLoop creates a loop. Zero Interval and Slice default to 16ms and 5ms.
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = 16 * time.Millisecond
	}
	if cfg.Slice <= 0 {
		cfg.Slice = 5 * time.Millisecond
	}
	l := &Loop{
		queue: NewQueue(cfg.Clock),
		cfg:   cfg,
		wake:  make(chan struct{}, 1),
		calls: make(chan func(), 64),
	}
	l.queue.OnSchedule = l.signal
	return l
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Schedule queues task for the next slice. Safe from any goroutine.
func (l *Loop) Schedule(task func(Deadline)) {
	l.queue.Schedule(task)
}

// Do runs fn on the loop goroutine before the next slice. Use it to deliver
// events to code that must only run on the loop, such as state setters.
// Do blocks while the call buffer is full and gives up with ctx's error once
// ctx is done; fn is then never run.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	if fn == nil {
		return nil
	}
	select {
	case l.calls <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) flush() {
	if l.cfg.Batch > 0 {
		l.queue.FlushBatch(l.cfg.Batch)
	} else {
		l.queue.Flush(l.cfg.Slice)
	}
	// Work queued during the slice waits for the next tick.
	select {
	case <-l.wake:
	default:
	}
}

// Run processes calls and slices until ctx is cancelled. One slice runs as
// soon as work is scheduled; continuations scheduled by that slice run on
// the next tick so that calls can interleave with long renders.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.calls:
			fn()
		case <-l.wake:
			l.flush()
		case <-ticker.C:
			if l.queue.Pending() > 0 {
				l.flush()
			}
		}
	}
}
