package core

import (
	"fmt"
	"math"
	"reflect"
)

// TreeNode is a JSON-friendly copy of one committed fiber.
type TreeNode struct {
	Type     string         `json:"type"`
	Kind     string         `json:"kind"`
	Props    map[string]any `json:"props,omitempty"`
	Hooks    []any          `json:"hooks,omitempty"`
	HostNode string         `json:"hostNode,omitempty"`
	Children []*TreeNode    `json:"children,omitempty"`
}

// Snapshot copies the committed tree. It returns nil before the first
// commit. Unlike Current it may be called from any goroutine.
func (r *Root) Snapshot() *TreeNode {
	r.frameMu.Lock()
	defer r.frameMu.Unlock()
	if r.current == nil {
		return nil
	}
	return snapshotFiber(r.current)
}

func snapshotFiber(f *Fiber) *TreeNode {
	n := &TreeNode{
		Type: f.typ.String(),
		Kind: f.typ.kind.String(),
	}
	if len(f.props) > 0 {
		n.Props = make(map[string]any, len(f.props))
		for k, v := range f.props {
			n.Props[k] = snapshotValue(v)
		}
	}
	for _, h := range f.hooks {
		v := h.value
		if h.kind == hookRef {
			v = reflect.ValueOf(v).Elem().Field(0).Interface()
		}
		n.Hooks = append(n.Hooks, snapshotValue(v))
	}
	if f.node != nil && f.typ.kind != kindRoot {
		n.HostNode = fmt.Sprint(f.node)
	}
	for c := f.child; c != nil; c = c.sibling {
		n.Children = append(n.Children, snapshotFiber(c))
	}
	return n
}

// snapshotValue keeps values that encode cleanly as JSON and describes the
// rest.
func snapshotValue(v any) any {
	if v == nil {
		return nil
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v
	case reflect.Float32, reflect.Float64:
		// JSON has no encoding for NaN and the infinities.
		if f := reflect.ValueOf(v).Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Sprint(f)
		}
		return v
	case reflect.Func:
		return "func"
	case reflect.Chan, reflect.UnsafePointer:
		return fmt.Sprintf("%T", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
