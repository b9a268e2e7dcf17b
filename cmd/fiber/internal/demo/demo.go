// Package demo is the sample app rendered by the fiber command.
package demo

import (
	"fmt"

	"github.com/go-drift/fiber/pkg/core"
)

type action struct {
	reset bool
}

func history(clicks []string, a action) []string {
	if a.reset {
		return nil
	}
	next := make([]string, len(clicks), len(clicks)+1)
	copy(next, clicks)
	return append(next, fmt.Sprintf("click #%d", len(clicks)+1))
}

// Counter shows how many times its button was clicked and lists the clicks.
var Counter = core.NewComponent("Counter", func(ctx core.BuildContext, props core.Props) *core.Element {
	clicks, dispatch := core.UseReducer(ctx, history, nil)
	renders := core.UseRef(ctx, 0)
	renders.Current++

	var items []*core.Element
	for _, c := range clicks {
		items = append(items, core.H("li", nil, c))
	}
	return core.H("div", core.Props{"className": "counter"},
		core.H("button", core.Props{
			"id":      "increment",
			"onClick": func() { dispatch(action{}) },
		}, "Clicked ", len(clicks), " times"),
		core.H("button", core.Props{
			"id":       "reset",
			"disabled": len(clicks) == 0,
			"onClick":  func() { dispatch(action{reset: true}) },
		}, "Reset"),
		core.H("ul", nil, items),
		core.H("small", nil, "rendered ", renders.Current, " times"),
	)
})

// App is the demo root.
var App = core.NewComponent("App", func(ctx core.BuildContext, props core.Props) *core.Element {
	return core.H("main", nil,
		core.H("h1", nil, core.Value[string](props, "title")),
		core.C(Counter, nil),
	)
})

// New returns the demo root element.
func New(title string) *core.Element {
	return core.C(App, core.Props{"title": title})
}
