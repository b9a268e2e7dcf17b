package core

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/host"
)

// CommitStats summarises one commit.
type CommitStats struct {
	Placements int `json:"placements"`
	Updates    int `json:"updates"`
	Deletions  int `json:"deletions"`
	// Units is the number of fibers processed by the render.
	Units int `json:"units"`
	// Duration spans the render from its first unit to the end of commit.
	Duration time.Duration `json:"duration"`
}

// commitRoot applies the work-in-progress tree to the host in one pass:
// every deletion first, then placements and updates in depth-first order.
// Host failures do not stop the pass; they are joined and returned after
// the work-in-progress tree has become the committed tree.
func (r *Root) commitRoot() error {
	w := r.work
	stats := CommitStats{Units: w.units, Deletions: len(w.deletions)}
	var errs []error

	for _, d := range w.deletions {
		if err := r.commitDeletion(d, hostParent(d)); err != nil {
			errs = append(errs, err)
		}
	}

	for f := w.wip.child; f != nil; f = nextInTree(f, w.wip) {
		switch f.flag {
		case FlagPlacement:
			stats.Placements++
			if err := r.commitPlacement(f); err != nil {
				errs = append(errs, err)
			}
		case FlagUpdate:
			stats.Updates++
			if err := r.commitUpdate(f); err != nil {
				errs = append(errs, err)
			}
		}
	}

	// Detach the new tree from the old one so the old tree can be dropped.
	w.wip.Walk(func(f *Fiber) bool {
		for _, h := range f.hooks {
			h.commit()
		}
		f.alternate = nil
		f.flag = FlagNone
		return true
	})

	r.current = w.wip
	r.work = workState{}
	stats.Duration = time.Since(w.started)
	r.stats.Commits++
	r.stats.Last = stats
	r.logger.Debug("render committed", "root", r.id,
		"placements", stats.Placements, "updates", stats.Updates,
		"deletions", stats.Deletions, "units", stats.Units, "duration", stats.Duration)
	if r.onCommit != nil {
		r.notify = append(r.notify, func() { r.onCommit(stats) })
	}

	if len(errs) > 0 {
		return &errors.RenderError{
			Op:   "core.commitRoot",
			Kind: errors.KindCommit,
			Err:  errors.Join(errs...),
		}
	}
	return nil
}

// commitDeletion detaches the topmost host nodes of f's subtree from parent.
func (r *Root) commitDeletion(f *Fiber, parent host.Node) error {
	if f.node != nil {
		if err := r.binding.RemoveChild(parent, f.node); err != nil {
			return fmt.Errorf("remove %s: %w", f, err)
		}
		return nil
	}
	var errs []error
	for c := f.child; c != nil; c = c.sibling {
		if err := r.commitDeletion(c, parent); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Root) commitPlacement(f *Fiber) error {
	if f.node == nil {
		return nil
	}
	parent := hostParent(f)
	var err error
	if before := hostSibling(f); before != nil {
		err = r.binding.InsertBefore(parent, f.node, before)
	} else {
		err = r.binding.AppendChild(parent, f.node)
	}
	if err != nil {
		return fmt.Errorf("place %s: %w", f, err)
	}
	return nil
}

// commitUpdate writes the props that differ from the alternate's.
func (r *Root) commitUpdate(f *Fiber) error {
	if f.node == nil || f.alternate == nil {
		return nil
	}
	old := f.alternate.props
	if f.typ.kind == KindText {
		text, _ := f.text()
		prev, _ := f.alternate.text()
		if text == prev {
			return nil
		}
		if err := r.binding.SetTextContent(f.node, text); err != nil {
			return fmt.Errorf("update %s: %w", f, err)
		}
		return nil
	}

	var errs []error
	for _, name := range sortedKeys(old) {
		if _, ok := f.props[name]; ok {
			continue
		}
		if err := r.applyProp(f.node, name, old[name], nil); err != nil {
			errs = append(errs, fmt.Errorf("update %s: %w", f, err))
		}
	}
	for _, name := range sortedKeys(f.props) {
		prev, next := old[name], f.props[name]
		if propEqual(prev, next) {
			continue
		}
		if err := r.applyProp(f.node, name, prev, next); err != nil {
			errs = append(errs, fmt.Errorf("update %s: %w", f, err))
		}
	}
	return errors.Join(errs...)
}

// applyProp moves a prop from prev to next. Event props are rebound: the old
// handler is detached and the new one attached. A nil next removes the prop.
func (r *Root) applyProp(node host.Node, name string, prev, next any) error {
	if host.IsEventProp(name) {
		event := host.EventName(name)
		if prev != nil {
			if err := r.binding.RemoveEventListener(node, event, prev); err != nil {
				return err
			}
		}
		if next != nil {
			return r.binding.AddEventListener(node, event, next)
		}
		return nil
	}
	attr := host.PropertyName(name)
	if next == nil {
		if prev == nil {
			return nil
		}
		return r.binding.RemoveProperty(node, attr)
	}
	return r.binding.SetProperty(node, attr, next)
}

// propEqual compares prop values. Funcs are never equal, so handlers are
// always rebound.
func propEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || ta.Kind() == reflect.Func {
		return false
	}
	if ta.Comparable() {
		switch ta.Kind() {
		case reflect.Interface, reflect.Struct, reflect.Array:
			return reflect.DeepEqual(a, b)
		}
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
