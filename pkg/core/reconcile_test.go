package core

import (
	"testing"

	"github.com/go-drift/fiber/pkg/dom"
)

func flags(f *Fiber) []Flag {
	var out []Flag
	for c := f.child; c != nil; c = c.sibling {
		out = append(out, c.flag)
	}
	return out
}

func TestReconcileChildren_Positional(t *testing.T) {
	doc := dom.NewDocument()
	r := CreateRoot(doc.Container(), doc)

	old := &Fiber{typ: Host("ul")}
	a := &Fiber{typ: Host("li"), parent: old, node: "li-a"}
	b := &Fiber{typ: Host("p"), parent: old, node: "p-b"}
	c := &Fiber{typ: Host("li"), parent: old, node: "li-c"}
	old.child, a.sibling, b.sibling = a, b, c

	wip := &Fiber{typ: Host("ul"), alternate: old}
	r.reconcileChildren(wip, []*Element{H("li", nil), H("li", nil)})

	got := flags(wip)
	if len(got) != 2 || got[0] != FlagUpdate || got[1] != FlagPlacement {
		t.Fatalf("Expected [update placement], got %v", got)
	}
	if wip.child.node != "li-a" || wip.child.alternate != a {
		t.Error("matching position should reuse the old node and link the alternate")
	}
	if wip.child.sibling.node != nil {
		t.Error("a placement should not carry a host node before it is rendered")
	}
	if len(r.work.deletions) != 2 || r.work.deletions[0] != b || r.work.deletions[1] != c {
		t.Fatalf("Expected the <p> and trailing <li> to be deleted, got %v", r.work.deletions)
	}
	if b.flag != FlagDeletion || c.flag != FlagDeletion {
		t.Error("deleted fibers should be flagged")
	}
	for f := wip.child; f != nil; f = f.sibling {
		if f.parent != wip {
			t.Error("children should point back to their parent")
		}
	}
}

func TestReconcileChildren_Empty(t *testing.T) {
	doc := dom.NewDocument()
	r := CreateRoot(doc.Container(), doc)

	wip := &Fiber{typ: Host("div")}
	r.reconcileChildren(wip, nil)
	if wip.child != nil || len(r.work.deletions) != 0 {
		t.Error("no elements and no alternate should produce nothing")
	}
}

func TestHostSibling_SkipsPlacementsAndComponents(t *testing.T) {
	parent := &Fiber{typ: Host("ul"), node: "ul"}
	wrapper := &Fiber{typ: NewComponent("W", nil).Type(), parent: parent, flag: FlagUpdate}
	placed := &Fiber{typ: Host("li"), parent: wrapper, node: "new", flag: FlagPlacement}
	empty := &Fiber{typ: NewComponent("Empty", nil).Type(), parent: parent}
	other := &Fiber{typ: NewComponent("Other", nil).Type(), parent: parent}
	stable := &Fiber{typ: Host("li"), parent: other, node: "stable"}

	parent.child = wrapper
	wrapper.child = placed
	wrapper.sibling = empty
	empty.sibling = other
	other.child = stable

	if got := hostSibling(placed); got != "stable" {
		t.Errorf("Expected the next attached node, got %v", got)
	}
	if got := hostSibling(stable); got != nil {
		t.Errorf("Expected nil for the last node, got %v", got)
	}
	if got := hostParent(placed); got != "ul" {
		t.Errorf("Expected the nearest host ancestor, got %v", got)
	}
}
