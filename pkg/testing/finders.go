package testing

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/dom"
	"github.com/go-drift/fiber/pkg/host"
)

// Finder locates fibers in the committed tree.
type Finder interface {
	// Evaluate returns all matching fibers under root (depth-first pre-order).
	Evaluate(root *core.Fiber) []*core.Fiber
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	fibers []*core.Fiber
	finder Finder
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *core.Fiber {
	if len(r.fibers) == 0 {
		desc := "unknown"
		if r.finder != nil {
			desc = r.finder.Description()
		}
		panic(fmt.Sprintf("Finder found no fibers: %s", desc))
	}
	return r.fibers[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *core.Fiber {
	if len(r.fibers) == 0 {
		return nil
	}
	return r.fibers[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *core.Fiber {
	if index < 0 || index >= len(r.fibers) {
		desc := "unknown"
		if r.finder != nil {
			desc = r.finder.Description()
		}
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.fibers), desc))
	}
	return r.fibers[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*core.Fiber {
	return r.fibers
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.fibers)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.fibers) > 0
}

// Node returns the host node of the first match. For a component fiber this
// is the first host node it rendered. Returns nil if there is none.
func (r FinderResult) Node() *dom.Node {
	return hostNode(r.First())
}

func hostNode(f *core.Fiber) *dom.Node {
	var found *dom.Node
	f.Walk(func(c *core.Fiber) bool {
		if found != nil {
			return false
		}
		if n, ok := c.Node().(*dom.Node); ok {
			found = n
			return false
		}
		return true
	})
	return found
}

// --- Concrete finders ---

// tagFinder matches host fibers by tag.
type tagFinder struct {
	tag string
}

func (f *tagFinder) Evaluate(root *core.Fiber) []*core.Fiber {
	return collectMatches(root, func(c *core.Fiber) bool {
		return c.Type() == core.Host(f.tag)
	})
}

func (f *tagFinder) Description() string {
	return fmt.Sprintf("ByTag(%q)", f.tag)
}

// ByTag returns a finder that matches host elements with the given tag.
func ByTag(tag string) Finder {
	return &tagFinder{tag: tag}
}

// componentFinder matches fibers of one component.
type componentFinder struct {
	comp *core.Component
}

func (f *componentFinder) Evaluate(root *core.Fiber) []*core.Fiber {
	return collectMatches(root, func(c *core.Fiber) bool {
		return c.Type() == f.comp.Type()
	})
}

func (f *componentFinder) Description() string {
	return fmt.Sprintf("ByComponent(%s)", f.comp.Name())
}

// ByComponent returns a finder that matches fibers rendered from comp.
func ByComponent(comp *core.Component) Finder {
	return &componentFinder{comp: comp}
}

func textOf(c *core.Fiber) (string, bool) {
	if c.Type() != core.TextType {
		return "", false
	}
	return core.Value[string](c.Props(), host.TextProp), true
}

// textFinder matches text fibers by exact content.
type textFinder struct {
	text string
}

func (f *textFinder) Evaluate(root *core.Fiber) []*core.Fiber {
	return collectMatches(root, func(c *core.Fiber) bool {
		s, ok := textOf(c)
		return ok && s == f.text
	})
}

func (f *textFinder) Description() string {
	return fmt.Sprintf("ByText(%q)", f.text)
}

// ByText returns a finder that matches text nodes with exact content.
func ByText(text string) Finder {
	return &textFinder{text: text}
}

// textContainingFinder matches text fibers containing substring.
type textContainingFinder struct {
	substring string
}

func (f *textContainingFinder) Evaluate(root *core.Fiber) []*core.Fiber {
	return collectMatches(root, func(c *core.Fiber) bool {
		s, ok := textOf(c)
		return ok && strings.Contains(s, f.substring)
	})
}

func (f *textContainingFinder) Description() string {
	return fmt.Sprintf("ByTextContaining(%q)", f.substring)
}

// ByTextContaining returns a finder that matches text nodes containing the
// given substring.
func ByTextContaining(substring string) Finder {
	return &textContainingFinder{substring: substring}
}

// propFinder matches fibers whose prop equals a value.
type propFinder struct {
	name  string
	value any
}

func (f *propFinder) Evaluate(root *core.Fiber) []*core.Fiber {
	return collectMatches(root, func(c *core.Fiber) bool {
		v, ok := c.Props()[f.name]
		if !ok {
			return false
		}
		// Guard against non-comparable types (slices, maps, funcs).
		if v == nil || f.value == nil || !reflect.TypeOf(v).Comparable() || !reflect.TypeOf(f.value).Comparable() {
			return reflect.DeepEqual(v, f.value)
		}
		return v == f.value
	})
}

func (f *propFinder) Description() string {
	return fmt.Sprintf("ByProp(%s=%v)", f.name, f.value)
}

// ByProp returns a finder that matches fibers whose prop name equals value.
func ByProp(name string, value any) Finder {
	return &propFinder{name: name, value: value}
}

// predicateFinder matches fibers satisfying a predicate.
type predicateFinder struct {
	fn   func(*core.Fiber) bool
	desc string
}

func (f *predicateFinder) Evaluate(root *core.Fiber) []*core.Fiber {
	return collectMatches(root, f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByPredicate returns a finder that matches fibers satisfying fn.
func ByPredicate(fn func(*core.Fiber) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// descendantFinder finds fibers matching 'matching' that are descendants
// of fibers matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root *core.Fiber) []*core.Fiber {
	var results []*core.Fiber
	seen := make(map[*core.Fiber]bool)
	for _, ancestor := range f.of.Evaluate(root) {
		// Search within each ancestor's subtree, skipping the ancestor itself.
		for c := ancestor.Child(); c != nil; c = c.Sibling() {
			for _, match := range f.matching.Evaluate(c) {
				if !seen[match] {
					seen[match] = true
					results = append(results, match)
				}
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches fibers satisfying 'matching'
// that are descendants of fibers matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// ancestorFinder finds fibers matching 'matching' that are ancestors of
// fibers matching 'of'.
type ancestorFinder struct {
	of       Finder
	matching Finder
}

func (f *ancestorFinder) Evaluate(root *core.Fiber) []*core.Fiber {
	candidates := make(map[*core.Fiber]bool)
	for _, c := range f.matching.Evaluate(root) {
		candidates[c] = true
	}
	var results []*core.Fiber
	seen := make(map[*core.Fiber]bool)
	for _, desc := range f.of.Evaluate(root) {
		for p := desc.Parent(); p != nil; p = p.Parent() {
			if candidates[p] && !seen[p] {
				seen[p] = true
				results = append(results, p)
			}
		}
	}
	return results
}

func (f *ancestorFinder) Description() string {
	return fmt.Sprintf("Ancestor(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Ancestor returns a finder that matches fibers satisfying 'matching' that
// are ancestors of fibers matching 'of'.
func Ancestor(of, matching Finder) Finder {
	return &ancestorFinder{of: of, matching: matching}
}

// collectMatches performs depth-first pre-order traversal, collecting
// fibers that satisfy the predicate.
func collectMatches(root *core.Fiber, predicate func(*core.Fiber) bool) []*core.Fiber {
	var results []*core.Fiber
	root.Walk(func(c *core.Fiber) bool {
		if predicate(c) {
			results = append(results, c)
		}
		return true
	})
	return results
}
