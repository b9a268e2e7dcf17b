package core

import "github.com/go-drift/fiber/pkg/host"

// Flag is the mutation a fiber carries into commit.
type Flag uint8

const (
	FlagNone Flag = iota
	// FlagPlacement attaches a new host node.
	FlagPlacement
	// FlagUpdate patches the props of a reused host node.
	FlagUpdate
	// FlagDeletion detaches the host nodes of an old fiber.
	FlagDeletion
)

func (f Flag) String() string {
	switch f {
	case FlagPlacement:
		return "placement"
	case FlagUpdate:
		return "update"
	case FlagDeletion:
		return "deletion"
	default:
		return "none"
	}
}

// Fiber is the unit of work: one node of the tree the root renders.
//
// The tree is linked parent / first-child / next-sibling. Parents own their
// children; parent and alternate are back-references. The alternate of a
// work-in-progress fiber is the committed fiber at the same position, and is
// cleared once the work-in-progress tree is committed so that the previous
// tree can be dropped as a whole.
type Fiber struct {
	typ      Type
	props    Props
	element  *Element
	children []*Element

	parent    *Fiber
	child     *Fiber
	sibling   *Fiber
	alternate *Fiber

	node  host.Node
	flag  Flag
	hooks []*hook
}

func newFiber(el *Element, parent *Fiber, flag Flag) *Fiber {
	return &Fiber{
		typ:      el.typ,
		props:    el.props,
		element:  el,
		children: el.children,
		parent:   parent,
		flag:     flag,
	}
}

func (f *Fiber) Type() Type        { return f.typ }
func (f *Fiber) Props() Props      { return f.props }
func (f *Fiber) Parent() *Fiber    { return f.parent }
func (f *Fiber) Child() *Fiber     { return f.child }
func (f *Fiber) Sibling() *Fiber   { return f.sibling }
func (f *Fiber) Alternate() *Fiber { return f.alternate }
func (f *Fiber) Node() host.Node   { return f.node }
func (f *Fiber) Flag() Flag        { return f.flag }
func (f *Fiber) Element() *Element { return f.element }
func (f *Fiber) HookCount() int    { return len(f.hooks) }
func (f *Fiber) String() string    { return f.typ.String() }
func (f *Fiber) isHostLike() bool  { return f.typ.kind != KindComponent }
func (f *Fiber) isComponent() bool { return f.typ.kind == KindComponent }
func (f *Fiber) text() (string, bool) {
	s, ok := f.props[host.TextProp].(string)
	return s, ok
}

// Walk visits f and its descendants depth-first, parents before children.
// Returning false from visit skips the fiber's subtree.
func (f *Fiber) Walk(visit func(*Fiber) bool) {
	if f == nil || !visit(f) {
		return
	}
	for c := f.child; c != nil; c = c.sibling {
		c.Walk(visit)
	}
}

// nextInTree returns the fiber after f in depth-first order without leaving
// the subtree of top: the first child, else the nearest unvisited sibling of
// f or one of its ancestors.
func nextInTree(f, top *Fiber) *Fiber {
	if f.child != nil {
		return f.child
	}
	for n := f; n != nil && n != top; n = n.parent {
		if n.sibling != nil {
			return n.sibling
		}
	}
	return nil
}

// hostParent returns the node of the nearest host (or root) ancestor.
func hostParent(f *Fiber) host.Node {
	for p := f.parent; p != nil; p = p.parent {
		if p.isHostLike() {
			return p.node
		}
	}
	return nil
}

// hostSibling returns the first already-attached host node that follows f
// in its host parent, or nil if f belongs at the end.
func hostSibling(f *Fiber) host.Node {
	node := f
siblings:
	for {
		for node.sibling == nil {
			if node.parent == nil || node.parent.isHostLike() {
				return nil
			}
			node = node.parent
		}
		node = node.sibling
		for node.isComponent() {
			if node.flag == FlagPlacement || node.child == nil {
				continue siblings
			}
			node = node.child
		}
		if node.flag != FlagPlacement {
			return node.node
		}
	}
}
