package core

// reconcileChildren builds the child chain of f from elements, pairing each
// element with the previous fiber at the same position.
//
// Matching is positional only. A position whose old and new types are equal
// reuses the old host node and is flagged for update. Otherwise the old fiber,
// if any, is queued for deletion and the new element, if any, gets a fresh
// fiber flagged for placement.
func (r *Root) reconcileChildren(f *Fiber, elements []*Element) {
	var old *Fiber
	if f.alternate != nil {
		old = f.alternate.child
	}

	var prev *Fiber
	for i := 0; i < len(elements) || old != nil; i++ {
		var el *Element
		if i < len(elements) {
			el = elements[i]
		}

		var next *Fiber
		switch {
		case el != nil && old != nil && old.typ == el.typ:
			next = newFiber(el, f, FlagUpdate)
			next.node = old.node
			next.alternate = old
		default:
			if el != nil {
				next = newFiber(el, f, FlagPlacement)
			}
			if old != nil {
				old.flag = FlagDeletion
				r.work.deletions = append(r.work.deletions, old)
			}
		}

		if old != nil {
			old = old.sibling
		}
		if next == nil {
			continue
		}
		if prev == nil {
			f.child = next
		} else {
			prev.sibling = next
		}
		prev = next
	}
}
