// Package testbed provides internal test components for the testing framework.
package testbed

import (
	"github.com/go-drift/fiber/pkg/core"
)

// Counter displays a count in a button and increments on click. Props:
// "initial" (int) and "onTap" (func(int)), called with the new count.
var Counter = core.NewComponent("Counter", func(ctx core.BuildContext, props core.Props) *core.Element {
	count, setCount := core.UseState(ctx, core.Value[int](props, "initial"))
	onTap := core.Value[func(int)](props, "onTap")
	return core.H("button", core.Props{
		"className": "counter",
		"onClick": func() {
			setCount.Set(count + 1)
			if onTap != nil {
				onTap(count + 1)
			}
		},
	}, count)
})

// Label renders its "text" prop in a span.
var Label = core.NewComponent("Label", func(ctx core.BuildContext, props core.Props) *core.Element {
	return core.H("span", nil, core.Value[string](props, "text"))
})

// Panel wraps its children in a section titled by the "title" prop.
var Panel = core.NewComponent("Panel", func(ctx core.BuildContext, props core.Props) *core.Element {
	return core.H("section", nil,
		core.H("h2", nil, core.Value[string](props, "title")),
		props.Children(),
	)
})
