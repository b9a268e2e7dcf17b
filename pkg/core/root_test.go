package core

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/go-drift/fiber/pkg/dom"
	"github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/scheduler"
)

func TestMain(m *testing.M) {
	errors.SetHandler(&errors.LogHandler{Out: io.Discard})
	os.Exit(m.Run())
}

func newTestRoot(t *testing.T, opts ...RootOption) (*Root, *dom.Document) {
	t.Helper()
	doc := dom.NewDocument()
	return CreateRoot(doc.Container(), doc, opts...), doc
}

func mustFlush(t *testing.T, r *Root) {
	t.Helper()
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func increment(n int) int { return n + 1 }

// stepClock advances by step every time it is read.
type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// counter renders a button showing its count. Clicking it increments.
var counter = NewComponent("Counter", func(ctx BuildContext, props Props) *Element {
	count, setCount := UseState(ctx, 0)
	return H("button", Props{"onClick": func() { setCount.Update(increment) }}, count)
})

func findTag(doc *dom.Document, tag string) *dom.Node {
	var found *dom.Node
	doc.Container().Walk(func(n *dom.Node) bool {
		if found == nil && n.Tag == tag {
			found = n
		}
		return found == nil
	})
	return found
}

func TestRoot_RendersHostTree(t *testing.T) {
	r, doc := newTestRoot(t)
	r.Render(H("div", Props{"className": "box", "id": "main"},
		H("h1", nil, "Title"),
		H("p", Props{"htmlFor": "x"}, "count: ", 3),
	))
	mustFlush(t, r)

	want := `<div class="box" id="main"><h1>Title</h1><p for="x">count: 3</p></div>`
	if got := doc.HTML(); got != want {
		t.Errorf("HTML mismatch:\n got %s\nwant %s", got, want)
	}
	if r.Err() != nil {
		t.Errorf("Expected no error, got %v", r.Err())
	}
}

func TestRoot_CounterEndToEnd(t *testing.T) {
	r, doc := newTestRoot(t)
	r.Render(C(counter, nil))
	mustFlush(t, r)

	if got := doc.HTML(); got != "<button>0</button>" {
		t.Fatalf("initial HTML = %s", got)
	}
	button := findTag(doc, "button")

	var seen []string
	for range 2 {
		if ran := doc.Dispatch(button, "click", nil); ran != 1 {
			t.Fatalf("Expected 1 click handler, got %d", ran)
		}
		mustFlush(t, r)
		seen = append(seen, button.TextContent())
	}
	if seen[0] != "1" || seen[1] != "2" {
		t.Errorf("Expected text 1 then 2, got %v", seen)
	}
	if findTag(doc, "button") != button {
		t.Error("the button node should be reused across renders")
	}
	if button.Listeners("click") != 1 {
		t.Errorf("Expected exactly one click listener after rebinding, got %d", button.Listeners("click"))
	}
}

func TestRoot_IdenticalRenderIsIdempotent(t *testing.T) {
	r, doc := newTestRoot(t)
	tree := func() *Element {
		return H("div", Props{"id": "a", "tabIndex": 1},
			H("span", nil, "x"),
			H("ul", nil, H("li", nil, "1"), H("li", nil, "2")),
		)
	}
	r.Render(tree())
	mustFlush(t, r)
	before := doc.HTML()
	doc.ResetJournal()

	r.Render(tree())
	mustFlush(t, r)

	if n := len(doc.Journal()); n != 0 {
		t.Errorf("Expected no host mutations, got %d: %v", n, doc.Journal())
	}
	if doc.HTML() != before {
		t.Errorf("HTML changed: %s -> %s", before, doc.HTML())
	}
	if last := r.Stats().Last; last.Placements != 0 || last.Deletions != 0 {
		t.Errorf("Expected only updates, got %+v", last)
	}
}

func TestRoot_ReplacesOnTypeChange(t *testing.T) {
	r, doc := newTestRoot(t)
	r.Render(H("div", nil, "x"))
	mustFlush(t, r)
	oldDiv := findTag(doc, "div")

	var ops []dom.Op
	doc.Observe(func(op dom.Op) {
		ops = append(ops, op)
		if len(doc.Container().Children()) > 1 {
			t.Errorf("old and new nodes attached at the same time after %s", op)
		}
	})
	r.Render(H("span", nil, "x"))
	mustFlush(t, r)

	if got := doc.HTML(); got != "<span>x</span>" {
		t.Fatalf("HTML = %s", got)
	}
	if oldDiv.Parent() != nil {
		t.Error("the old div should be detached")
	}
	removeAt, attachAt := -1, -1
	for i, op := range ops {
		if op.Kind == dom.OpRemove && op.Node == oldDiv.ID {
			removeAt = i
		}
		if (op.Kind == dom.OpAppend || op.Kind == dom.OpInsert) && op.Parent == doc.Container().ID {
			attachAt = i
		}
	}
	if removeAt < 0 || attachAt < 0 || removeAt > attachAt {
		t.Errorf("Expected removal before attachment, got %v", ops)
	}
}

func TestRoot_PropChanges(t *testing.T) {
	r, doc := newTestRoot(t)
	r.Render(H("div", Props{"className": "a", "title": "t"}))
	mustFlush(t, r)
	doc.ResetJournal()

	r.Render(H("div", Props{"className": "b", "hidden": true}))
	mustFlush(t, r)

	if got := doc.HTML(); got != `<div class="b" hidden="true"></div>` {
		t.Errorf("HTML = %s", got)
	}
	if n := doc.Count(dom.OpRemoveProperty); n != 1 {
		t.Errorf("Expected 1 removed prop, got %d", n)
	}
	if n := doc.Count(dom.OpSetProperty); n != 2 {
		t.Errorf("Expected 2 set props, got %d", n)
	}
	if n := doc.Count(dom.OpCreate); n != 0 {
		t.Errorf("Expected no new nodes, got %d", n)
	}
}

func TestRoot_TextUpdate(t *testing.T) {
	r, doc := newTestRoot(t)
	r.Render(H("p", nil, "a"))
	mustFlush(t, r)
	doc.ResetJournal()

	r.Render(H("p", nil, "b"))
	mustFlush(t, r)

	if doc.Count(dom.OpSetText) != 1 || len(doc.Journal()) != 1 {
		t.Errorf("Expected a single text update, got %v", doc.Journal())
	}
	if got := doc.HTML(); got != "<p>b</p>" {
		t.Errorf("HTML = %s", got)
	}
}

func TestRoot_HandlersAreRebound(t *testing.T) {
	r, doc := newTestRoot(t)
	var clicked []string
	render := func(name string) {
		r.Render(H("button", Props{"onClick": func() { clicked = append(clicked, name) }}))
		mustFlush(t, r)
	}
	render("first")
	render("second")

	button := findTag(doc, "button")
	doc.Dispatch(button, "click", nil)
	if len(clicked) != 1 || clicked[0] != "second" {
		t.Errorf("Expected only the latest handler to run, got %v", clicked)
	}
}

func TestRoot_InsertKeepsPositionalOrder(t *testing.T) {
	var show Setter[bool]
	maybe := NewComponent("Maybe", func(ctx BuildContext, props Props) *Element {
		visible, set := UseState(ctx, false)
		show = set
		if !visible {
			return nil
		}
		return H("li", nil, "b")
	})

	r, doc := newTestRoot(t)
	r.Render(H("ul", nil, H("li", nil, "a"), C(maybe, nil), H("li", nil, "c")))
	mustFlush(t, r)
	if got := doc.HTML(); got != "<ul><li>a</li><li>c</li></ul>" {
		t.Fatalf("HTML = %s", got)
	}
	doc.ResetJournal()

	show.Set(true)
	mustFlush(t, r)

	if got := doc.HTML(); got != "<ul><li>a</li><li>b</li><li>c</li></ul>" {
		t.Errorf("HTML = %s", got)
	}
	if doc.Count(dom.OpInsert) != 1 {
		t.Errorf("Expected one insert, got %v", doc.Journal())
	}

	show.Set(false)
	mustFlush(t, r)
	if got := doc.HTML(); got != "<ul><li>a</li><li>c</li></ul>" {
		t.Errorf("HTML after hiding = %s", got)
	}
}

func TestRoot_ComponentChildren(t *testing.T) {
	card := NewComponent("Card", func(ctx BuildContext, props Props) *Element {
		return H("section", Props{"title": Value[string](props, "title")}, props.Children())
	})
	r, doc := newTestRoot(t)
	r.Render(C(card, Props{"title": "t"}, H("b", nil, "x"), "y"))
	mustFlush(t, r)

	if got := doc.HTML(); got != `<section title="t"><b>x</b>y</section>` {
		t.Errorf("HTML = %s", got)
	}
}

func TestRoot_NilRenderClearsContainer(t *testing.T) {
	r, doc := newTestRoot(t)
	r.Render(C(counter, nil))
	mustFlush(t, r)

	r.Render(nil)
	mustFlush(t, r)
	if len(doc.Container().Children()) != 0 {
		t.Errorf("Expected an empty container, got %s", doc.HTML())
	}
}

func TestRoot_Unmount(t *testing.T) {
	r, doc := newTestRoot(t)
	r.Render(H("div", nil, C(counter, nil)))
	mustFlush(t, r)

	if err := r.Unmount(); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if len(doc.Container().Children()) != 0 {
		t.Errorf("Expected an empty container, got %s", doc.HTML())
	}
	if err := r.Flush(); !errors.Is(err, errors.ErrUnmounted) {
		t.Errorf("Expected ErrUnmounted, got %v", err)
	}
	if err := r.Unmount(); err != nil {
		t.Errorf("second Unmount should be a no-op, got %v", err)
	}

	r.Render(H("p", nil))
	if doc.HTML() != "" {
		t.Error("Render after Unmount should do nothing")
	}
}

func TestRoot_MalformedChildAbortsRender(t *testing.T) {
	var failures []error
	r, doc := newTestRoot(t, WithOnError(func(err error) { failures = append(failures, err) }))
	r.Render(H("div", nil, "ok"))
	mustFlush(t, r)
	doc.ResetJournal()

	r.Render(H("div", nil, H("p", nil, struct{ X int }{1})))
	err := r.Flush()
	if !errors.Is(err, errors.ErrMalformedChild) {
		t.Fatalf("Expected ErrMalformedChild, got %v", err)
	}
	var rerr *errors.RenderError
	if !errors.As(err, &rerr) || rerr.Kind != errors.KindDescriptor {
		t.Errorf("Expected a descriptor error, got %v", err)
	}
	if got := doc.HTML(); got != "<div>ok</div>" {
		t.Errorf("the committed tree should be untouched, got %s", got)
	}
	if doc.Count(dom.OpAppend, dom.OpInsert, dom.OpRemove, dom.OpSetText, dom.OpSetProperty) != 0 {
		t.Errorf("Expected no attached mutations, got %v", doc.Journal())
	}
	if r.Err() == nil || len(failures) != 1 {
		t.Errorf("Expected the failure to be recorded once, got Err=%v callbacks=%d", r.Err(), len(failures))
	}
	if r.Stats().Aborted != 1 {
		t.Errorf("Expected 1 aborted render, got %d", r.Stats().Aborted)
	}

	r.Render(H("div", nil, "fixed"))
	mustFlush(t, r)
	if doc.HTML() != "<div>fixed</div>" || r.Err() != nil {
		t.Errorf("Expected recovery, got %s (err %v)", doc.HTML(), r.Err())
	}
}

func TestRoot_HostFailureLeavesTreeUntouched(t *testing.T) {
	r, doc := newTestRoot(t)
	r.Render(H("div", nil, H("a", nil)))
	mustFlush(t, r)

	doc.FailOn = func(op dom.Op) error {
		if op.Kind == dom.OpCreate && op.Name == "b" {
			return fmt.Errorf("no <b> today")
		}
		return nil
	}
	r.Render(H("div", nil, H("i", nil), H("b", nil)))
	err := r.Flush()
	var rerr *errors.RenderError
	if !errors.As(err, &rerr) || rerr.Kind != errors.KindHost {
		t.Fatalf("Expected a host error, got %v", err)
	}
	if got := doc.HTML(); got != "<div><a></a></div>" {
		t.Errorf("HTML = %s", got)
	}

	doc.FailOn = nil
	r.Render(H("div", nil, H("i", nil), H("b", nil)))
	mustFlush(t, r)
	if got := doc.HTML(); got != "<div><i></i><b></b></div>" {
		t.Errorf("HTML after retry = %s", got)
	}
}

func TestRoot_CommitErrorsAreJoined(t *testing.T) {
	r, doc := newTestRoot(t)
	r.Render(H("div", nil, H("a", nil), H("b", nil)))
	mustFlush(t, r)

	doc.FailOn = func(op dom.Op) error {
		if op.Kind == dom.OpRemove {
			return fmt.Errorf("stuck")
		}
		return nil
	}
	r.Render(H("div", nil))
	err := r.Flush()
	var rerr *errors.RenderError
	if !errors.As(err, &rerr) || rerr.Kind != errors.KindCommit {
		t.Fatalf("Expected a commit error, got %v", err)
	}
	if r.Stats().Commits != 2 {
		t.Errorf("the commit should still complete, got %d commits", r.Stats().Commits)
	}
}

func TestRoot_PanicInComponent(t *testing.T) {
	boom := NewComponent("Boom", func(BuildContext, Props) *Element { panic("boom") })
	r, doc := newTestRoot(t)
	r.Render(H("div", nil, C(boom, nil)))

	err := r.Flush()
	var rerr *errors.RenderError
	if !errors.As(err, &rerr) || rerr.Kind != errors.KindBuild || rerr.Recovered != "boom" {
		t.Fatalf("Expected a build error, got %v", err)
	}
	if rerr.Fiber != "Boom" {
		t.Errorf("Expected the failing fiber to be named, got %q", rerr.Fiber)
	}
	if doc.HTML() != "" {
		t.Errorf("nothing should be committed, got %s", doc.HTML())
	}
}

func TestRoot_YieldsBetweenFibers(t *testing.T) {
	q := scheduler.NewQueue(nil)
	r, doc := newTestRoot(t, WithScheduler(q))
	r.Render(H("div", nil, "a", "b", "c"))

	slices := 0
	for q.Pending() > 0 {
		q.FlushBatch(2)
		slices++
		if q.Pending() > 0 && doc.HTML() != "" {
			t.Fatalf("host mutated before the render finished: %s", doc.HTML())
		}
	}
	if slices != 3 {
		t.Errorf("Expected 3 slices for 5 fibers, got %d", slices)
	}
	if got := doc.HTML(); got != "<div>abc</div>" {
		t.Errorf("HTML = %s", got)
	}
	if st := r.Stats(); st.Yields != 2 || st.Units != 5 || st.Commits != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestRoot_TimeBudgetYields(t *testing.T) {
	clock := &stepClock{step: 2 * DefaultYieldThreshold}
	q := scheduler.NewQueue(clock)
	r, doc := newTestRoot(t, WithScheduler(q))
	r.Render(H("div", nil, "a", "b"))

	if _, err := q.RunUntilIdle(3 * DefaultYieldThreshold); err != nil {
		t.Fatal(err)
	}
	if got := doc.HTML(); got != "<div>ab</div>" {
		t.Errorf("HTML = %s", got)
	}
	if r.Stats().Yields == 0 {
		t.Error("Expected the work loop to yield when the budget ran low")
	}
}

func TestRoot_UpdateDuringRenderWaitsForNextRender(t *testing.T) {
	var setCount Setter[int]
	shown := NewComponent("Shown", func(ctx BuildContext, props Props) *Element {
		count, set := UseState(ctx, 0)
		setCount = set
		return Text(strconv.Itoa(count))
	})

	q := scheduler.NewQueue(nil)
	r, doc := newTestRoot(t, WithScheduler(q))
	r.Render(C(shown, nil))
	q.FlushBatch(100)

	setCount.Update(increment)
	q.FlushBatch(1) // root fiber only; the render is in flight
	setCount.Update(increment)
	q.FlushBatch(100)

	if got := doc.HTML(); got != "1" {
		t.Errorf("the in-flight render should only see the first update, got %s", got)
	}
	if q.Pending() == 0 {
		t.Fatal("the second update should have scheduled another render")
	}
	q.FlushBatch(100)
	if got := doc.HTML(); got != "2" {
		t.Errorf("HTML = %s", got)
	}
}

func TestRoot_SetterDuringRenderSchedulesAnotherRender(t *testing.T) {
	var commits []string
	var r *Root
	var doc *dom.Document
	settle := NewComponent("Settle", func(ctx BuildContext, props Props) *Element {
		n, set := UseState(ctx, 0)
		if n == 0 {
			set.Set(1)
		}
		return Text(strconv.Itoa(n))
	})
	r, doc = newTestRoot(t, WithOnCommit(func(CommitStats) { commits = append(commits, doc.HTML()) }))
	r.Render(C(settle, nil))
	mustFlush(t, r)

	if len(commits) != 2 || commits[0] != "0" || commits[1] != "1" {
		t.Errorf("Expected commits [0 1], got %v", commits)
	}
}

func TestRoot_FlushGivesUpOnEndlessUpdates(t *testing.T) {
	spin := NewComponent("Spin", func(ctx BuildContext, props Props) *Element {
		n, set := UseState(ctx, 0)
		set.Set(n + 1)
		return nil
	})
	r, _ := newTestRoot(t)
	r.Render(C(spin, nil))
	if err := r.Flush(); err == nil {
		t.Error("Expected Flush to report a root that never settles")
	}
}

func TestRoot_Snapshot(t *testing.T) {
	r, _ := newTestRoot(t)
	if r.Snapshot() != nil {
		t.Error("Expected nil snapshot before the first commit")
	}
	r.Render(C(counter, nil))
	mustFlush(t, r)

	snap := r.Snapshot()
	if snap.Type != "root" || len(snap.Children) != 1 {
		t.Fatalf("unexpected root snapshot %+v", snap)
	}
	comp := snap.Children[0]
	if comp.Type != "Counter" || comp.Kind != "component" || len(comp.Hooks) != 1 || comp.Hooks[0] != 0 {
		t.Errorf("unexpected component snapshot %+v", comp)
	}
	button := comp.Children[0]
	if button.Props["onClick"] != "func" || button.HostNode == "" {
		t.Errorf("unexpected button snapshot %+v", button)
	}
}

func TestRoot_IDsAreUnique(t *testing.T) {
	a, _ := newTestRoot(t)
	b, _ := newTestRoot(t)
	if a.ID() == b.ID() {
		t.Error("Expected distinct root ids")
	}
}

// runWithin fails the test if fn does not return within d.
func runWithin(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("root callback blocked on the frame lock")
	}
}

func TestRoot_CallbacksMayReadRoot(t *testing.T) {
	var r *Root
	var commits []Stats
	var errs []error
	r, _ = newTestRoot(t,
		WithOnCommit(func(CommitStats) { commits = append(commits, r.Stats()) }),
		WithOnError(func(error) { errs = append(errs, r.Err()) }),
	)

	runWithin(t, 2*time.Second, func() {
		r.Render(C(counter, nil))
		_ = r.Flush()
		r.Render(H("div", nil, struct{}{}))
		_ = r.Flush()
	})

	if len(commits) != 1 || commits[0].Commits != 1 {
		t.Errorf("Expected one commit seen with Commits=1, got %+v", commits)
	}
	if len(errs) != 1 || !errors.Is(errs[0], errors.ErrMalformedChild) {
		t.Errorf("Expected the malformed child error from Err, got %v", errs)
	}
}

func TestRoot_CallbacksMayReadRootFromScheduler(t *testing.T) {
	q := scheduler.NewQueue(nil)
	var r *Root
	var snapshots []*TreeNode
	r, _ = newTestRoot(t, WithScheduler(q), WithOnCommit(func(CommitStats) {
		snapshots = append(snapshots, r.Snapshot())
	}))
	r.Render(C(counter, nil))

	runWithin(t, 2*time.Second, func() {
		for q.Pending() > 0 {
			q.FlushBatch(1)
		}
	})

	if len(snapshots) != 1 || snapshots[0] == nil {
		t.Errorf("Expected one committed snapshot, got %v", snapshots)
	}
}

type handlerFunc func(*errors.RenderError)

func (h handlerFunc) HandleError(err *errors.RenderError) { h(err) }
func (h handlerFunc) HandlePanic(*errors.PanicError)      {}

func TestRoot_ErrorHandlerMayReadRoot(t *testing.T) {
	var r *Root
	var seen Stats
	errors.SetHandler(handlerFunc(func(*errors.RenderError) { seen = r.Stats() }))
	defer errors.SetHandler(&errors.LogHandler{Out: io.Discard})

	r, _ = newTestRoot(t)
	runWithin(t, 2*time.Second, func() {
		r.Render(C(counter, nil))
		_ = r.Flush()
		r.Render(H("div", nil, struct{}{}))
		_ = r.Flush()
	})

	if seen.Commits != 1 || seen.Aborted != 1 {
		t.Errorf("Expected handler to see 1 commit and 1 abort, got %+v", seen)
	}
}
