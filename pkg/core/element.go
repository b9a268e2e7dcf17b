package core

import (
	"fmt"
	"strconv"

	"github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/host"
)

// ChildrenProp is the reserved prop under which a component receives the
// children of its descriptor.
const ChildrenProp = "children"

// Kind discriminates descriptor types.
type Kind uint8

const (
	kindInvalid Kind = iota
	// KindHost is a platform element identified by its tag.
	KindHost
	// KindComponent is a user function expanded during render.
	KindComponent
	// KindText is a text node.
	KindText
	kindRoot
)

func (k Kind) String() string {
	switch k {
	case KindHost:
		return "host"
	case KindComponent:
		return "component"
	case KindText:
		return "text"
	case kindRoot:
		return "root"
	default:
		return "invalid"
	}
}

// Type identifies what a descriptor renders. Two types are the same exactly
// when they compare equal with ==.
type Type struct {
	kind Kind
	tag  string
	comp *Component
}

// Host returns the type of a platform element with the given tag.
func Host(tag string) Type { return Type{kind: KindHost, tag: tag} }

// TextType is the type of text descriptors.
var TextType = Type{kind: KindText, tag: host.TextTag}

var rootType = Type{kind: kindRoot}

func (t Type) Kind() Kind { return t.kind }

// Tag returns the host tag for host and text types.
func (t Type) Tag() string { return t.tag }

// Component returns the component for component types.
func (t Type) Component() *Component { return t.comp }

func (t Type) String() string {
	switch t.kind {
	case KindHost:
		return "<" + t.tag + ">"
	case KindComponent:
		return t.comp.Name()
	case KindText:
		return host.TextTag
	case kindRoot:
		return "root"
	default:
		return "invalid"
	}
}

// Props are the named inputs of a descriptor. Props handed to components
// and returned by Element.Props must be treated as read-only.
type Props map[string]any

// Children returns the children passed to a component.
func (p Props) Children() []*Element {
	children, _ := p[ChildrenProp].([]*Element)
	return children
}

// Value returns the prop named key as a T, or the zero value when it is
// absent or has another type.
func Value[T any](p Props, key string) T {
	v, _ := p[key].(T)
	return v
}

// Element is an immutable description of a desired node. Descriptors are
// rebuilt on every render; the fiber tree carries identity across renders.
type Element struct {
	typ      Type
	props    Props
	children []*Element
	err      error
}

// New builds a descriptor. Children may be descriptors, strings, numbers,
// fmt.Stringers, or slices of those, which are flattened. nil, booleans and
// nil descriptors are dropped so conditional children can be written inline.
// Any other child makes the descriptor malformed; rendering it fails with
// errors.ErrMalformedChild.
func New(typ Type, props Props, children ...any) *Element {
	el := &Element{typ: typ}
	if len(props) > 0 {
		el.props = make(Props, len(props))
		for k, v := range props {
			if k == ChildrenProp {
				continue
			}
			el.props[k] = v
		}
	}
	for _, c := range children {
		var err error
		el.children, err = appendChild(el.children, c)
		if err != nil && el.err == nil {
			el.err = err
		}
	}
	return el
}

// H builds a host element descriptor.
func H(tag string, props Props, children ...any) *Element {
	return New(Host(tag), props, children...)
}

// C builds a component descriptor.
func C(c *Component, props Props, children ...any) *Element {
	return New(c.Type(), props, children...)
}

// Text builds a text descriptor.
func Text(s string) *Element {
	return &Element{typ: TextType, props: Props{host.TextProp: s}}
}

func appendChild(out []*Element, child any) ([]*Element, error) {
	switch v := child.(type) {
	case nil, bool:
		return out, nil
	case *Element:
		if v == nil {
			return out, nil
		}
		return append(out, v), nil
	case string:
		return append(out, Text(v)), nil
	case int:
		return append(out, Text(strconv.Itoa(v))), nil
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return append(out, Text(fmt.Sprint(v))), nil
	case float32:
		return append(out, Text(strconv.FormatFloat(float64(v), 'g', -1, 32))), nil
	case float64:
		return append(out, Text(strconv.FormatFloat(v, 'g', -1, 64))), nil
	case []*Element:
		for _, el := range v {
			if el != nil {
				out = append(out, el)
			}
		}
		return out, nil
	case []any:
		var firstErr error
		for _, c := range v {
			var err error
			out, err = appendChild(out, c)
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return out, firstErr
	case fmt.Stringer:
		return append(out, Text(v.String())), nil
	default:
		return out, fmt.Errorf("%w: %T", errors.ErrMalformedChild, child)
	}
}

// Type returns the descriptor's type.
func (e *Element) Type() Type { return e.typ }

// Props returns the descriptor's props, without children.
func (e *Element) Props() Props { return e.props }

// Children returns the flattened children.
func (e *Element) Children() []*Element { return e.children }

// Err returns the first malformed-child error recorded at construction.
func (e *Element) Err() error { return e.err }

func (e *Element) String() string {
	if e.typ.kind == KindText {
		return fmt.Sprintf("%q", e.props[host.TextProp])
	}
	return fmt.Sprintf("%s(%d children)", e.typ, len(e.children))
}
