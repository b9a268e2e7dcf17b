// Package host defines the capabilities the renderer needs from a concrete
// platform: creating nodes, mutating their properties and arranging them in a
// tree. The renderer never touches platform objects except through a Binding.
package host

import (
	"strings"
	"unicode"
)

// TextTag is the reserved tag passed to CreateNode for text nodes.
const TextTag = "#text"

// TextProp is the prop that carries the content of a text node.
const TextProp = "nodeValue"

// Node is an opaque handle to a platform node. Bindings decide its concrete type.
type Node any

// Binding is the set of host primitives used by the renderer.
//
// All methods are called from the goroutine driving the root. Any error
// returned during a render aborts that render; errors returned during commit
// are collected and reported once the commit pass finishes.
type Binding interface {
	// CreateNode creates a detached node for tag, or a text node for TextTag.
	CreateNode(tag string) (Node, error)
	// SetProperty assigns a data property.
	SetProperty(node Node, name string, value any) error
	// RemoveProperty clears a data property that is no longer declared.
	RemoveProperty(node Node, name string) error
	// AddEventListener attaches handler for the event type (e.g. "click").
	AddEventListener(node Node, event string, handler any) error
	// RemoveEventListener detaches a handler previously attached.
	RemoveEventListener(node Node, event string, handler any) error
	// AppendChild attaches child as the last child of parent.
	AppendChild(parent, child Node) error
	// InsertBefore attaches child to parent immediately before ref.
	InsertBefore(parent, child, ref Node) error
	// RemoveChild detaches child from parent.
	RemoveChild(parent, child Node) error
	// SetTextContent replaces the content of a text node.
	SetTextContent(node Node, text string) error
}

// Event is the value passed to handlers of type func(Event).
type Event struct {
	// Type is the event name without the "on" prefix, e.g. "click".
	Type string
	// Target is the node the event was dispatched on.
	Target Node
	// Data carries binding-specific payload.
	Data any
}

// IsEventProp reports whether a prop name follows the event-handler
// convention: "on" followed by an upper-case letter, as in onClick.
func IsEventProp(name string) bool {
	if len(name) < 3 || !strings.HasPrefix(name, "on") {
		return false
	}
	return unicode.IsUpper(rune(name[2]))
}

// EventName returns the event type for an event prop: onClick → click,
// onMouseDown → mousedown.
func EventName(prop string) string {
	return strings.ToLower(prop[2:])
}

// attributeNames maps descriptor prop names to the names bindings receive.
var attributeNames = map[string]string{
	"className": "class",
	"htmlFor":   "for",
}

// PropertyName returns the name a data prop is written under.
func PropertyName(prop string) string {
	if name, ok := attributeNames[prop]; ok {
		return name
	}
	return prop
}

// Invoke calls handler with ev when it has one of the supported handler
// shapes: func(), func(Event) or func(*Event). It reports whether the
// handler was called.
func Invoke(handler any, ev Event) bool {
	switch fn := handler.(type) {
	case func():
		fn()
	case func(Event):
		fn(ev)
	case func(*Event):
		fn(&ev)
	default:
		return false
	}
	return true
}
