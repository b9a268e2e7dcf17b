// Package core is the rendering engine: descriptors, components, hooks, and
// the Root that reconciles them against a host platform.
//
// A render proceeds in two phases. The render phase walks a work-in-progress
// fiber tree one unit at a time, invoking components and diffing each
// position against the committed tree. It can be interrupted between any two
// fibers when the scheduler's deadline runs low, and it never touches attached
// host nodes. The commit phase then applies every collected mutation in one
// uninterrupted pass, so the host never shows a partially rendered tree.
//
// # Descriptors
//
// Element values describe the desired tree and are rebuilt on every render:
//
//	core.H("ul", core.Props{"className": "list"},
//	    core.H("li", nil, "first"),
//	    core.C(Item, core.Props{"label": "second"}),
//	)
//
// Children may be descriptors, strings, numbers, or slices of those. nil and
// booleans are dropped so conditional children can be written inline.
//
// # Components and Hooks
//
// A Component is a named function from props to a descriptor. State lives in
// hooks, which are matched to the fiber's state by call order:
//
//	var Counter = core.NewComponent("Counter", func(ctx core.BuildContext, props core.Props) *core.Element {
//	    count, setCount := core.UseState(ctx, 0)
//	    return core.H("button", core.Props{
//	        "onClick": func() { setCount.Update(func(n int) int { return n + 1 }) },
//	    }, count)
//	})
//
// Calling a setter schedules a render of the whole root. Components must call
// the same hooks in the same order on every render.
//
// # Reconciliation
//
// Children are matched by position. Equal types at the same position keep
// their host node and hook state; anything else replaces the old subtree.
// There are no keys, so inserting at the front of a list re-renders every
// following position.
//
// # Threading
//
// A root, its setters, and its scheduler run on a single goroutine. Use
// scheduler.Loop.Do to deliver events from other goroutines. Snapshot and
// Stats may be read from anywhere.
package core
