package core

import (
	"fmt"

	"github.com/go-drift/fiber/pkg/errors"
)

type hookKind uint8

const (
	hookState hookKind = iota + 1
	hookReducer
	hookRef
)

func (k hookKind) String() string {
	switch k {
	case hookState:
		return "UseState"
	case hookReducer:
		return "UseReducer"
	case hookRef:
		return "UseRef"
	default:
		return "unknown"
	}
}

// update is one pending action on a hook. seq orders it against render
// starts: a render only folds updates enqueued before it began.
type update struct {
	seq   uint64
	apply func(old any) any
}

// updateQueue is shared by every render of the same hook slot, so a setter
// captured in any render reaches the slot's latest incarnation.
type updateQueue struct {
	pending []update
}

// hook is one positional state cell of a component fiber.
type hook struct {
	kind     hookKind
	value    any
	queue    *updateQueue
	consumed int
}

// commit drops the updates folded into value by the committed render.
func (h *hook) commit() {
	if h.consumed == 0 {
		return
	}
	h.queue.pending = h.queue.pending[h.consumed:]
	if len(h.queue.pending) == 0 {
		h.queue.pending = nil
	}
	h.consumed = 0
}

// hookScope resolves hook calls for one invocation of a component body.
type hookScope struct {
	root   *Root
	fiber  *Fiber
	index  int
	active bool
	err    error
}

func (s *hookScope) Name() string      { return s.fiber.typ.String() }
func (s *hookScope) Props() Props      { return s.fiber.componentProps() }
func (s *hookScope) scope() *hookScope { return s }

// slot returns the hook at the current call index, seeded from the
// alternate's hook at the same index when there is one, with every update
// enqueued before this render applied in order.
func (s *hookScope) slot(kind hookKind, initial func() any) *hook {
	idx := s.index
	s.index++

	var old *hook
	if alt := s.fiber.alternate; alt != nil && idx < len(alt.hooks) {
		old = alt.hooks[idx]
	}
	if old != nil && old.kind != kind && s.root.hookChecks {
		if s.err == nil {
			s.err = fmt.Errorf("%w: call %d was %s, now %s", errors.ErrHookMismatch, idx, old.kind, kind)
		}
		old = nil
	}

	h := &hook{kind: kind}
	if old == nil {
		h.value = initial()
		h.queue = &updateQueue{}
	} else {
		h.value = old.value
		h.queue = old.queue
		for _, u := range h.queue.pending {
			if u.seq > s.root.renderCutoff {
				break
			}
			h.value = u.apply(h.value)
			h.consumed++
		}
	}
	s.fiber.hooks = append(s.fiber.hooks, h)
	return h
}

// finish checks the hook count against the alternate once the body returns.
func (s *hookScope) finish() error {
	s.active = false
	if s.err != nil {
		return s.err
	}
	if !s.root.hookChecks {
		return nil
	}
	if alt := s.fiber.alternate; alt != nil && len(alt.hooks) != len(s.fiber.hooks) {
		return fmt.Errorf("%w: %d hooks on the previous render, %d now", errors.ErrHookMismatch, len(alt.hooks), len(s.fiber.hooks))
	}
	return nil
}

func activeScope(ctx BuildContext) *hookScope {
	if ctx == nil {
		panic(errors.ErrHookOutsideRender)
	}
	s := ctx.scope()
	if s == nil || !s.active {
		panic(errors.ErrHookOutsideRender)
	}
	return s
}

func as[T any](v any) T {
	t, _ := v.(T)
	return t
}

// Setter enqueues updates on a state hook. The zero Setter does nothing.
type Setter[T any] struct {
	root  *Root
	queue *updateQueue
}

// Set replaces the state with v on the next render.
func (s Setter[T]) Set(v T) {
	s.enqueue(func(any) any { return v })
}

// Update replaces the state with fn(previous) on the next render. Updates
// queued before one render are applied in order, each seeing the result of
// the one before.
func (s Setter[T]) Update(fn func(T) T) {
	s.enqueue(func(old any) any { return fn(as[T](old)) })
}

func (s Setter[T]) enqueue(apply func(any) any) {
	if s.root == nil {
		return
	}
	s.root.enqueue(s.queue, apply)
}

// UseState returns the component's state at this call position and a setter
// for it. The state starts at initial on the first render of the fiber.
//
// Hooks are matched to their state by call order alone: a component must call
// the same hooks in the same order on every render. Calling a hook
// conditionally shifts every later hook onto another hook's state; with hook
// checks enabled the render fails with errors.ErrHookMismatch instead.
//
// Calling the setter always schedules a render of the whole root. Several
// calls before the root flushes produce a single render.
func UseState[T any](ctx BuildContext, initial T) (T, Setter[T]) {
	s := activeScope(ctx)
	h := s.slot(hookState, func() any { return initial })
	return as[T](h.value), Setter[T]{root: s.root, queue: h.queue}
}

// UseReducer is UseState with updates expressed as actions folded through
// reducer.
//
// Example:
//
//	count, dispatch := core.UseReducer(ctx, func(n int, delta int) int { return n + delta }, 0)
//	onClick := func() { dispatch(1) }
func UseReducer[S, A any](ctx BuildContext, reducer func(S, A) S, initial S) (S, func(A)) {
	s := activeScope(ctx)
	h := s.slot(hookReducer, func() any { return initial })
	root, queue := s.root, h.queue
	dispatch := func(action A) {
		root.enqueue(queue, func(old any) any { return reducer(as[S](old), action) })
	}
	return as[S](h.value), dispatch
}

// Ref is a mutable box that survives re-renders. Writing Current does not
// schedule a render.
type Ref[T any] struct {
	Current T
}

// UseRef returns the same *Ref on every render of the fiber.
func UseRef[T any](ctx BuildContext, initial T) *Ref[T] {
	s := activeScope(ctx)
	h := s.slot(hookRef, func() any { return &Ref[T]{Current: initial} })
	return as[*Ref[T]](h.value)
}
