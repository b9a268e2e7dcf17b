package core

// RenderFunc is the body of a component. It is called once per render of
// every fiber of the component and returns the single descriptor the
// component expands to, or nil to render nothing.
type RenderFunc func(ctx BuildContext, props Props) *Element

// Component is a named render function. Declare components once, at package
// level, so that every descriptor built from them shares the same identity:
//
//	var Counter = core.NewComponent("Counter", func(ctx core.BuildContext, props core.Props) *core.Element {
//	    count, setCount := core.UseState(ctx, 0)
//	    return core.H("button", core.Props{"onClick": func() { setCount.Update(inc) }}, count)
//	})
type Component struct {
	name   string
	render RenderFunc
}

// NewComponent creates a component.
func NewComponent(name string, render RenderFunc) *Component {
	return &Component{name: name, render: render}
}

// Name returns the component's display name.
func (c *Component) Name() string {
	if c == nil || c.name == "" {
		return "Component"
	}
	return c.name
}

// Type returns the descriptor type of c.
func (c *Component) Type() Type { return Type{kind: KindComponent, comp: c} }

// BuildContext is handed to component bodies. It is the handle hooks use to
// find their slot and is only valid for the duration of the call.
type BuildContext interface {
	// Name returns the name of the component being rendered.
	Name() string
	// Props returns the props the component was rendered with.
	Props() Props

	scope() *hookScope
}
