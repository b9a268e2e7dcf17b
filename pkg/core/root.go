package core

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/host"
	"github.com/go-drift/fiber/pkg/scheduler"
)

const (
	// DefaultYieldThreshold is the remaining slice time below which the work
	// loop yields.
	DefaultYieldThreshold = time.Millisecond

	// maxFlushRenders bounds Flush when components keep scheduling updates
	// from their own bodies.
	maxFlushRenders = 1000
)

// Stats are cumulative counters for a root.
type Stats struct {
	// Commits is the number of renders that reached the host.
	Commits int `json:"commits"`
	// Aborted is the number of renders dropped because of an error.
	Aborted int `json:"aborted"`
	// Yields is the number of times the work loop returned control mid-render.
	Yields int `json:"yields"`
	// Units is the number of fibers processed across all renders.
	Units int `json:"units"`
	// Last describes the most recent commit.
	Last CommitStats `json:"last"`
}

// Root renders descriptor trees into one host container.
//
// A root is single-threaded: Render, Flush, Unmount and state setters must be
// called from the goroutine that runs the root's scheduler (the UI thread).
// Snapshot and Stats may be called from any goroutine.
//
// At most one render is in flight per root. Updates submitted while a render
// is building are not merged into it; they schedule the next render, which
// starts from the tree the in-flight render commits.
type Root struct {
	id        uuid.UUID
	container host.Node
	binding   host.Binding
	sched     scheduler.Scheduler
	logger    *slog.Logger

	yieldThreshold time.Duration
	hookChecks     bool
	onCommit       func(CommitStats)
	onError        func(error)

	// frameMu is held while work runs and while snapshots read the
	// committed tree.
	frameMu sync.Mutex
	// notify holds callbacks queued under frameMu; they run once it is
	// released so that they may read the root.
	notify []func()

	current *Fiber
	element *Element
	work    workState

	needsRender  bool
	scheduled    bool
	unmounted    bool
	updateSeq    uint64
	renderCutoff uint64

	stats   Stats
	lastErr error
}

// RootOption configures a Root.
type RootOption func(*Root)

// WithScheduler sets the scheduler that runs render slices. Without it the
// root uses a scheduler.Queue that only runs on Flush.
func WithScheduler(s scheduler.Scheduler) RootOption {
	return func(r *Root) { r.sched = s }
}

// WithLogger sets the logger used for render tracing.
func WithLogger(l *slog.Logger) RootOption {
	return func(r *Root) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithYieldThreshold sets the remaining slice time below which the work loop
// yields.
func WithYieldThreshold(d time.Duration) RootOption {
	return func(r *Root) { r.yieldThreshold = d }
}

// WithHookChecks enables or disables hook order validation.
func WithHookChecks(enabled bool) RootOption {
	return func(r *Root) { r.hookChecks = enabled }
}

// WithOnCommit registers a callback run after every commit. Callbacks run
// outside the root's lock and may call Stats, Err or Snapshot.
func WithOnCommit(fn func(CommitStats)) RootOption {
	return func(r *Root) { r.onCommit = fn }
}

// WithOnError registers a callback run for every failed render.
func WithOnError(fn func(error)) RootOption {
	return func(r *Root) { r.onError = fn }
}

// CreateRoot binds a root to container. Nothing is rendered until Render.
func CreateRoot(container host.Node, binding host.Binding, opts ...RootOption) *Root {
	r := &Root{
		id:             uuid.New(),
		container:      container,
		binding:        binding,
		logger:         slog.New(slog.DiscardHandler),
		yieldThreshold: DefaultYieldThreshold,
		hookChecks:     DebugMode,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sched == nil {
		r.sched = scheduler.NewQueue(nil)
	}
	return r
}

// ID returns the root's unique id.
func (r *Root) ID() uuid.UUID { return r.id }

// Container returns the host node the root renders into.
func (r *Root) Container() host.Node { return r.container }

// Current returns the committed fiber tree (the root fiber), or nil before
// the first commit. It must only be read on the UI thread.
func (r *Root) Current() *Fiber { return r.current }

// Render schedules el to become the container's only child. Calls made
// before the next render starts replace each other; the last one wins.
func (r *Root) Render(el *Element) {
	if r.unmounted {
		return
	}
	r.element = el
	r.requestRender()
}

// Err returns the error of the most recent failed render, or nil if the
// most recent render succeeded.
func (r *Root) Err() error {
	r.frameMu.Lock()
	defer r.frameMu.Unlock()
	return r.lastErr
}

// Flush runs all pending render work to completion synchronously, ignoring
// slice budgets, and returns the first error encountered.
func (r *Root) Flush() error {
	if r.unmounted {
		return errors.ErrUnmounted
	}
	r.frameMu.Lock()
	defer r.unlock()
	return r.flushLocked()
}

func (r *Root) flushLocked() error {
	var first error
	for renders := 0; r.work.inFlight() || r.needsRender; renders++ {
		if renders >= maxFlushRenders {
			return fmt.Errorf("core: root did not settle after %d renders", maxFlushRenders)
		}
		if err := r.perform(scheduler.Unbounded()); err != nil && first == nil {
			first = err
		}
		if len(r.notify) > 0 {
			// No render is in flight here, so readers see a settled tree.
			r.unlock()
			r.frameMu.Lock()
		}
	}
	return first
}

// Unmount renders nothing into the container, removing every node the root
// placed, and detaches the root. Later calls are no-ops.
func (r *Root) Unmount() error {
	if r.unmounted {
		return nil
	}
	r.element = nil
	r.needsRender = true
	r.frameMu.Lock()
	defer r.unlock()
	err := r.flushLocked()
	r.unmounted = true
	return err
}

// requestRender marks the root dirty and makes sure a slice is scheduled.
func (r *Root) requestRender() {
	r.needsRender = true
	if r.scheduled || r.unmounted {
		return
	}
	r.scheduled = true
	r.sched.Schedule(r.runSlice)
}

// enqueue appends an update to a hook queue and schedules a render of the
// whole root.
func (r *Root) enqueue(q *updateQueue, apply func(any) any) {
	if r.unmounted {
		return
	}
	r.updateSeq++
	q.pending = append(q.pending, update{seq: r.updateSeq, apply: apply})
	r.requestRender()
}

// runSlice is the scheduler task: it advances the in-flight render (starting
// one if the root is dirty) until the deadline expires, and re-schedules
// itself while work remains.
func (r *Root) runSlice(deadline scheduler.Deadline) {
	r.frameMu.Lock()
	defer r.unlock()

	r.scheduled = false
	if r.unmounted {
		return
	}
	_ = r.perform(deadline)
	if (r.work.inFlight() || r.needsRender) && !r.scheduled {
		r.scheduled = true
		r.sched.Schedule(r.runSlice)
	}
}

// perform runs one render step: start a render if none is in flight, then
// work until it commits, fails or yields.
func (r *Root) perform(deadline scheduler.Deadline) error {
	if !r.work.inFlight() {
		if !r.needsRender {
			return nil
		}
		r.beginRender()
	}
	done, err := r.workLoop(deadline)
	if err != nil {
		r.fail(err)
		return err
	}
	if done {
		r.lastErr = nil
	}
	return nil
}

func (r *Root) fail(err error) {
	r.lastErr = err
	rerr, ok := err.(*errors.RenderError)
	if !ok {
		rerr = &errors.RenderError{Op: "core.Root", Kind: errors.KindUnknown, Err: err}
	}
	r.logger.Warn("render failed", "root", r.id, "kind", rerr.Kind.String(), "error", rerr.Error())
	r.notify = append(r.notify, func() {
		errors.Report(rerr)
		if r.onError != nil {
			r.onError(err)
		}
	})
}

// unlock releases frameMu, then runs the callbacks queued while it was held.
func (r *Root) unlock() {
	calls := r.notify
	r.notify = nil
	r.frameMu.Unlock()
	for _, fn := range calls {
		fn()
	}
}

// Stats returns the root's counters.
func (r *Root) Stats() Stats {
	r.frameMu.Lock()
	defer r.frameMu.Unlock()
	return r.stats
}
