// Package testing provides a component testing framework for fiber.
//
// # Quick Start
//
// Create a tester, pump an element, and make assertions:
//
//	func TestCounter(t *testing.T) {
//	    tester := fibertest.NewRootTesterWithT(t)
//	    tester.PumpElement(core.C(Counter, nil))
//
//	    // Find fibers
//	    button := tester.Find(fibertest.ByTag("button")).First()
//
//	    // Simulate events; Tap pumps afterwards
//	    tester.Tap(fibertest.ByText("0"))
//
//	    // Assert state
//	    if !tester.Find(fibertest.ByText("1")).Exists() {
//	        t.Error("expected '1' text")
//	    }
//	}
//
// # Snapshot Testing
//
// Capture and compare fiber and host tree snapshots:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/counter.snapshot.json")
//
// Update snapshots with:
//
//	FIBER_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Time Slicing
//
// The tester's scheduler measures slices with a fake clock. Make every
// deadline check cost time to exercise yielding:
//
//	tester.Clock().AutoAdvance(2 * time.Millisecond)
//	tester.Root().Render(tree)
//	for tester.PumpFrame() {
//	    // inspect the document between slices
//	}
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import fibertest "github.com/go-drift/fiber/pkg/testing"
package testing
