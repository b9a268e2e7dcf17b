package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/host"
	"github.com/go-drift/fiber/pkg/scheduler"
)

// workState is the in-flight render of a root. A zero workState means no
// render is in flight.
type workState struct {
	wip       *Fiber
	next      *Fiber
	deletions []*Fiber
	units     int
	started   time.Time
}

func (w *workState) inFlight() bool { return w.wip != nil }

// beginRender starts a new work-in-progress tree whose alternate is the
// committed tree. Updates enqueued from now on belong to the next render.
func (r *Root) beginRender() {
	r.needsRender = false
	r.renderCutoff = r.updateSeq

	var children []*Element
	if r.element != nil {
		children = []*Element{r.element}
	}
	wip := &Fiber{
		typ:       rootType,
		node:      r.container,
		children:  children,
		alternate: r.current,
	}
	r.work = workState{wip: wip, next: wip, started: time.Now()}
	r.logger.Debug("render started", "root", r.id, "cutoff", r.renderCutoff)
}

// abortRender drops the work-in-progress tree. The committed tree and host
// nodes it references were never touched, and no hook queue was trimmed, so
// the next render starts from the last commit.
func (r *Root) abortRender() {
	for _, d := range r.work.deletions {
		d.flag = FlagNone
	}
	r.work = workState{}
	r.stats.Aborted++
}

// workLoop advances the in-flight render one fiber at a time until the tree
// is exhausted or the deadline asks it to yield. It commits when the tree
// is exhausted. It reports whether the render finished.
func (r *Root) workLoop(deadline scheduler.Deadline) (bool, error) {
	for r.work.next != nil {
		next, err := r.performUnitOfWork(r.work.next)
		if err != nil {
			r.abortRender()
			return true, err
		}
		r.work.next = next
		r.work.units++
		r.stats.Units++
		if next != nil && deadline.TimeRemaining() < r.yieldThreshold {
			r.stats.Yields++
			r.logger.Debug("render yielded", "root", r.id, "units", r.work.units)
			return false, nil
		}
	}
	return true, r.commitRoot()
}

// performUnitOfWork expands f and returns the next fiber in depth-first
// order.
func (r *Root) performUnitOfWork(f *Fiber) (*Fiber, error) {
	if f.element != nil && f.element.err != nil {
		return nil, &errors.RenderError{
			Op:    "core.performUnitOfWork",
			Kind:  errors.KindDescriptor,
			Fiber: f.String(),
			Err:   f.element.err,
		}
	}

	switch f.typ.kind {
	case kindRoot:
		r.reconcileChildren(f, f.children)
	case KindComponent:
		if err := r.updateComponent(f); err != nil {
			return nil, err
		}
	case KindHost, KindText:
		if err := r.updateHost(f); err != nil {
			return nil, err
		}
	default:
		return nil, &errors.RenderError{
			Op:    "core.performUnitOfWork",
			Kind:  errors.KindDescriptor,
			Fiber: f.String(),
			Err:   fmt.Errorf("%w: descriptor has no type", errors.ErrMalformedChild),
		}
	}
	return nextInTree(f, r.work.wip), nil
}

// updateComponent invokes a component body with f as the active hook scope
// and reconciles the single descriptor it returns.
func (r *Root) updateComponent(f *Fiber) error {
	f.hooks = nil
	scope := &hookScope{root: r, fiber: f, active: true}
	child, err := r.invoke(f, scope)
	if err == nil {
		if herr := scope.finish(); herr != nil {
			err = &errors.RenderError{
				Op:    "core.updateComponent",
				Kind:  errors.KindHook,
				Fiber: f.String(),
				Err:   herr,
			}
		}
	}
	scope.active = false
	if err != nil {
		return err
	}

	var children []*Element
	if child != nil {
		children = []*Element{child}
	}
	r.reconcileChildren(f, children)
	return nil
}

// invoke runs the component body, converting a panic into a build error.
func (r *Root) invoke(f *Fiber, scope *hookScope) (child *Element, err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		rerr := &errors.RenderError{
			Op:         "core.invoke",
			Kind:       errors.KindBuild,
			Fiber:      f.String(),
			Recovered:  rec,
			StackTrace: errors.CaptureStack(),
			Timestamp:  time.Now(),
		}
		if e, ok := rec.(error); ok {
			rerr.Err = e
			if errors.Is(e, errors.ErrHookOutsideRender) {
				rerr.Kind = errors.KindHook
			}
		}
		child, err = nil, rerr
	}()
	return f.typ.comp.render(scope, f.componentProps()), nil
}

// componentProps returns the props a component body receives: the
// descriptor's props plus its children under ChildrenProp.
func (f *Fiber) componentProps() Props {
	if len(f.children) == 0 {
		if f.props == nil {
			return Props{}
		}
		return f.props
	}
	props := make(Props, len(f.props)+1)
	for k, v := range f.props {
		props[k] = v
	}
	props[ChildrenProp] = f.children
	return props
}

// updateHost makes sure f has a host node and reconciles its children.
// New nodes are created detached, with their initial props applied; they are
// attached during commit.
func (r *Root) updateHost(f *Fiber) error {
	if f.node == nil {
		node, err := r.createNode(f)
		if err != nil {
			return &errors.RenderError{
				Op:    "core.updateHost",
				Kind:  errors.KindHost,
				Fiber: f.String(),
				Err:   err,
			}
		}
		f.node = node
	}
	if f.typ.kind == KindText {
		return nil
	}
	r.reconcileChildren(f, f.children)
	return nil
}

func (r *Root) createNode(f *Fiber) (host.Node, error) {
	node, err := r.binding.CreateNode(f.typ.tag)
	if err != nil {
		return nil, err
	}
	if f.typ.kind == KindText {
		text, _ := f.text()
		return node, r.binding.SetTextContent(node, text)
	}
	for _, name := range sortedKeys(f.props) {
		if err := r.applyProp(node, name, nil, f.props[name]); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func sortedKeys(p Props) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
