package testing

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/dom"
	"github.com/go-drift/fiber/pkg/scheduler"
)

// DefaultSlice is the time budget of one slice run by PumpFrame.
const DefaultSlice = 5 * time.Millisecond

// MaxPumpFrames bounds Pump for roots that never settle.
const MaxPumpFrames = 1000

// ErrNotSettled is returned when Pump exceeds MaxPumpFrames.
var ErrNotSettled = errors.New("Pump: root did not settle")

// RootTester renders components into an in-memory document and drives the
// scheduler by hand. It uses a fake clock so slice budgets are
// deterministic.
type RootTester struct {
	doc   *dom.Document
	root  *core.Root
	queue *scheduler.Queue
	clock *FakeClock
	slice time.Duration
	opts  []core.RootOption
}

// NewRootTester creates a tester. opts are passed to core.CreateRoot; the
// tester always supplies its own scheduler.
// Call Cleanup() when done, or use NewRootTesterWithT() instead.
func NewRootTester(opts ...core.RootOption) *RootTester {
	clk := NewFakeClock()
	t := &RootTester{
		doc:   dom.NewDocument(),
		queue: scheduler.NewQueue(clk),
		clock: clk,
		slice: DefaultSlice,
	}
	t.opts = append(append([]core.RootOption(nil), opts...), core.WithScheduler(t.queue))
	t.root = core.CreateRoot(t.doc.Container(), t.doc, t.opts...)
	return t
}

// NewRootTesterWithT creates a tester that auto-cleans up via t.Cleanup().
// This is the recommended constructor for tests.
func NewRootTesterWithT(t *testing.T, opts ...core.RootOption) *RootTester {
	tester := NewRootTester(opts...)
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup unmounts the root.
func (t *RootTester) Cleanup() {
	t.root.Unmount()
}

// SetSlice sets the time budget of each slice.
func (t *RootTester) SetSlice(d time.Duration) {
	t.slice = d
}

// Clock returns the fake clock used for slice budgets.
func (t *RootTester) Clock() *FakeClock {
	return t.clock
}

// Document returns the host document.
func (t *RootTester) Document() *dom.Document {
	return t.doc
}

// Root returns the root under test.
func (t *RootTester) Root() *core.Root {
	return t.root
}

// HTML returns the committed host tree as HTML.
func (t *RootTester) HTML() string {
	return t.doc.HTML()
}

// PumpElement renders el and pumps until the root settles.
func (t *RootTester) PumpElement(el *core.Element) error {
	t.root.Render(el)
	return t.Pump()
}

// PumpFrame runs one slice and reports whether more work is queued.
func (t *RootTester) PumpFrame() bool {
	t.queue.Flush(t.slice)
	return t.queue.Pending() > 0
}

// Pump runs slices until nothing is queued and returns the root's render
// error, if any.
func (t *RootTester) Pump() error {
	for frames := 0; t.queue.Pending() > 0; frames++ {
		if frames >= MaxPumpFrames {
			return ErrNotSettled
		}
		t.queue.Flush(t.slice)
	}
	return t.root.Err()
}

// Find evaluates a finder against the committed fiber tree.
func (t *RootTester) Find(finder Finder) FinderResult {
	current := t.root.Current()
	if current == nil {
		return FinderResult{finder: finder}
	}
	return FinderResult{
		fibers: finder.Evaluate(current),
		finder: finder,
	}
}

// Tap dispatches a click on the first match and pumps. The click goes to
// the nearest host node, starting at the match and walking up the host
// tree, that has a click listener.
func (t *RootTester) Tap(finder Finder) error {
	return t.Dispatch(finder, "click", nil)
}

// Dispatch sends event with data to the first match, the same way Tap does,
// and pumps.
func (t *RootTester) Dispatch(finder Finder, event string, data any) error {
	result := t.Find(finder)
	if !result.Exists() {
		return fmt.Errorf("no match for %s", finder.Description())
	}
	node := result.Node()
	for node != nil && node.Listeners(event) == 0 {
		node = node.Parent()
	}
	if node == nil {
		return fmt.Errorf("no %q listener at or above %s", event, finder.Description())
	}
	t.doc.Dispatch(node, event, data)
	return t.Pump()
}
