// Package dom is an in-memory host platform: a tree of nodes that implements
// host.Binding and records every mutation it receives.
//
// It backs the tests and the CLI demo, and doubles as a reference for
// writing bindings to real platforms.
package dom

import (
	"fmt"
	"html"
	"slices"
	"sort"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/go-drift/fiber/pkg/host"
)

// Node is a host node owned by a Document.
type Node struct {
	// ID is unique within the owning document, in creation order.
	ID int
	// Tag is the element tag, or host.TextTag for text nodes.
	Tag string
	// Text is the content of a text node.
	Text string

	parent    *Node
	children  []*Node
	props     map[string]any
	listeners map[string][]any
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.Tag == host.TextTag }

// Parent returns the parent node, or nil if n is detached or the container.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the attached children in order.
func (n *Node) Children() []*Node { return n.children }

// Prop returns a data property.
func (n *Node) Prop(name string) (any, bool) {
	v, ok := n.props[name]
	return v, ok
}

// Props returns a copy of the data properties.
func (n *Node) Props() map[string]any {
	out := make(map[string]any, len(n.props))
	for k, v := range n.props {
		out[k] = v
	}
	return out
}

// Listeners returns the number of handlers attached for event.
func (n *Node) Listeners(event string) int { return len(n.listeners[event]) }

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	var sb strings.Builder
	for _, c := range n.children {
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}

// Walk visits n and its descendants depth-first in document order.
// Returning false from visit stops descent below that node.
func (n *Node) Walk(visit func(*Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(visit)
	}
}

func (n *Node) String() string {
	if n.IsText() {
		return fmt.Sprintf("#text(%q)", n.Text)
	}
	return fmt.Sprintf("<%s#%d>", n.Tag, n.ID)
}

// Document is an in-memory node tree implementing host.Binding.
type Document struct {
	container *Node
	nextID    int
	journal   []Op
	observers []func(Op)

	// FailOn, when set, is consulted before each mutation; a non-nil error
	// rejects the mutation without applying it.
	FailOn func(op Op) error
}

var _ host.Binding = (*Document)(nil)

// NewDocument returns an empty document whose container node has tag "root".
func NewDocument() *Document {
	d := &Document{}
	d.container = d.newNode("root")
	return d
}

// Container returns the root node that renders attach to.
func (d *Document) Container() *Node { return d.container }

// Observe registers fn to be called after every applied mutation.
func (d *Document) Observe(fn func(Op)) {
	d.observers = append(d.observers, fn)
}

func (d *Document) newNode(tag string) *Node {
	d.nextID++
	return &Node{ID: d.nextID, Tag: tag}
}

func (d *Document) apply(op Op, mutate func()) error {
	if d.FailOn != nil {
		if err := d.FailOn(op); err != nil {
			return err
		}
	}
	mutate()
	d.journal = append(d.journal, op)
	for _, fn := range d.observers {
		fn(op)
	}
	return nil
}

func asNode(n host.Node) (*Node, error) {
	node, ok := n.(*Node)
	if !ok || node == nil {
		return nil, fmt.Errorf("dom: foreign node %T", n)
	}
	return node, nil
}

// CreateNode implements host.Binding.
func (d *Document) CreateNode(tag string) (host.Node, error) {
	if tag == "" {
		return nil, fmt.Errorf("dom: empty tag")
	}
	node := d.newNode(tag)
	if err := d.apply(Op{Kind: OpCreate, Node: node.ID, Name: tag}, func() {}); err != nil {
		return nil, err
	}
	return node, nil
}

// SetProperty implements host.Binding.
func (d *Document) SetProperty(n host.Node, name string, value any) error {
	node, err := asNode(n)
	if err != nil {
		return err
	}
	return d.apply(Op{Kind: OpSetProperty, Node: node.ID, Name: name, Value: value}, func() {
		if node.props == nil {
			node.props = make(map[string]any)
		}
		node.props[name] = value
	})
}

// RemoveProperty implements host.Binding.
func (d *Document) RemoveProperty(n host.Node, name string) error {
	node, err := asNode(n)
	if err != nil {
		return err
	}
	return d.apply(Op{Kind: OpRemoveProperty, Node: node.ID, Name: name}, func() {
		delete(node.props, name)
	})
}

// AddEventListener implements host.Binding.
func (d *Document) AddEventListener(n host.Node, event string, handler any) error {
	node, err := asNode(n)
	if err != nil {
		return err
	}
	return d.apply(Op{Kind: OpAddListener, Node: node.ID, Name: event}, func() {
		if node.listeners == nil {
			node.listeners = make(map[string][]any)
		}
		node.listeners[event] = append(node.listeners[event], handler)
	})
}

// RemoveEventListener implements host.Binding. Handlers are matched by
// position of first registration because Go funcs are not comparable; the
// oldest listener for the event is removed.
func (d *Document) RemoveEventListener(n host.Node, event string, handler any) error {
	node, err := asNode(n)
	if err != nil {
		return err
	}
	if len(node.listeners[event]) == 0 {
		return fmt.Errorf("dom: no %q listener on %s", event, node)
	}
	return d.apply(Op{Kind: OpRemoveListener, Node: node.ID, Name: event}, func() {
		node.listeners[event] = node.listeners[event][1:]
	})
}

// AppendChild implements host.Binding.
func (d *Document) AppendChild(p, c host.Node) error {
	parent, child, err := pair(p, c)
	if err != nil {
		return err
	}
	return d.apply(Op{Kind: OpAppend, Node: child.ID, Parent: parent.ID}, func() {
		detach(child)
		child.parent = parent
		parent.children = append(parent.children, child)
	})
}

// InsertBefore implements host.Binding.
func (d *Document) InsertBefore(p, c, r host.Node) error {
	parent, child, err := pair(p, c)
	if err != nil {
		return err
	}
	ref, err := asNode(r)
	if err != nil {
		return err
	}
	if ref.parent != parent {
		return fmt.Errorf("dom: %s is not a child of %s", ref, parent)
	}
	return d.apply(Op{Kind: OpInsert, Node: child.ID, Parent: parent.ID}, func() {
		detach(child)
		idx := slices.Index(parent.children, ref)
		child.parent = parent
		parent.children = slices.Insert(parent.children, idx, child)
	})
}

// RemoveChild implements host.Binding.
func (d *Document) RemoveChild(p, c host.Node) error {
	parent, child, err := pair(p, c)
	if err != nil {
		return err
	}
	if child.parent != parent {
		return fmt.Errorf("dom: %s is not a child of %s", child, parent)
	}
	return d.apply(Op{Kind: OpRemove, Node: child.ID, Parent: parent.ID}, func() {
		detach(child)
	})
}

// SetTextContent implements host.Binding.
func (d *Document) SetTextContent(n host.Node, text string) error {
	node, err := asNode(n)
	if err != nil {
		return err
	}
	if !node.IsText() {
		return fmt.Errorf("dom: SetTextContent on element %s", node)
	}
	return d.apply(Op{Kind: OpSetText, Node: node.ID, Value: text}, func() {
		node.Text = text
	})
}

func pair(p, c host.Node) (*Node, *Node, error) {
	parent, err := asNode(p)
	if err != nil {
		return nil, nil, err
	}
	child, err := asNode(c)
	if err != nil {
		return nil, nil, err
	}
	if parent.IsText() {
		return nil, nil, fmt.Errorf("dom: text node %s cannot have children", parent)
	}
	return parent, child, nil
}

func detach(n *Node) {
	if n.parent == nil {
		return
	}
	p := n.parent
	if idx := slices.Index(p.children, n); idx >= 0 {
		p.children = slices.Delete(p.children, idx, idx+1)
	}
	n.parent = nil
}

// Dispatch invokes the handlers attached to node for event and returns how
// many ran.
func (d *Document) Dispatch(node *Node, event string, data any) int {
	handlers := slices.Clone(node.listeners[event])
	ran := 0
	for _, h := range handlers {
		if host.Invoke(h, host.Event{Type: event, Target: node, Data: data}) {
			ran++
		}
	}
	return ran
}

// HTML serialises the container's children. Props are written in name order;
// text is escaped.
func (d *Document) HTML() string {
	var sb strings.Builder
	for _, c := range d.container.children {
		writeHTML(&sb, c)
	}
	return sb.String()
}

func writeHTML(sb *strings.Builder, n *Node) {
	if n.IsText() {
		sb.WriteString(html.EscapeString(n.Text))
		return
	}
	sb.WriteString("<")
	sb.WriteString(n.Tag)
	names := make([]string, 0, len(n.props))
	for name := range n.props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(sb, ` %s="%s"`, name, html.EscapeString(fmt.Sprint(n.props[name])))
	}
	sb.WriteString(">")
	for _, c := range n.children {
		writeHTML(sb, c)
	}
	sb.WriteString("</")
	sb.WriteString(n.Tag)
	sb.WriteString(">")
}

// TextWidth returns the rendered width in pixels of the text under n, set in
// the 7x13 fixed bitmap face.
func (d *Document) TextWidth(n *Node) int {
	return font.MeasureString(basicfont.Face7x13, n.TextContent()).Ceil()
}
