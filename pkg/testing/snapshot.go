package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/dom"
)

// UpdateSnapshotsEnv names the environment variable that, when set to 1,
// makes MatchesFile rewrite golden files instead of comparing.
const UpdateSnapshotsEnv = "FIBER_UPDATE_SNAPSHOTS"

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures the committed fiber tree and the host tree it produced.
type Snapshot struct {
	FiberTree *core.TreeNode `json:"fiberTree"`
	HostTree  *HostNode      `json:"hostTree"`
}

// HostNode is a serialized dom node. Node ids are left out so snapshots
// survive changes in creation order.
type HostNode struct {
	Tag       string         `json:"tag"`
	Text      string         `json:"text,omitempty"`
	Props     map[string]any `json:"props,omitempty"`
	Listeners []string       `json:"listeners,omitempty"`
	Children  []*HostNode    `json:"children,omitempty"`
}

// CaptureSnapshot captures the current fiber and host trees.
func (t *RootTester) CaptureSnapshot() *Snapshot {
	snap := &Snapshot{
		FiberTree: t.root.Snapshot(),
		HostTree:  captureHostNode(t.doc.Container()),
	}
	if snap.FiberTree != nil {
		stripHostIDs(snap.FiberTree)
	}
	return snap
}

// listenedEvents are the events checked when serializing listeners.
var listenedEvents = []string{"click", "input", "change", "submit", "keydown", "focus", "blur"}

func captureHostNode(n *dom.Node) *HostNode {
	node := &HostNode{Tag: n.Tag}
	if n.IsText() {
		node.Text = n.Text
		return node
	}
	if props := n.Props(); len(props) > 0 {
		node.Props = props
	}
	for _, ev := range listenedEvents {
		if n.Listeners(ev) > 0 {
			node.Listeners = append(node.Listeners, ev)
		}
	}
	for _, c := range n.Children() {
		node.Children = append(node.Children, captureHostNode(c))
	}
	return node
}

func stripHostIDs(n *core.TreeNode) {
	if n.HostNode != "" {
		n.HostNode = "attached"
	}
	for _, c := range n.Children {
		stripHostIDs(c)
	}
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When FIBER_UPDATE_SNAPSHOTS=1
// is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv(UpdateSnapshotsEnv) == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: %s=1 go test -run %s", path, UpdateSnapshotsEnv, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: %s=1 go test -run %s", path, diff, UpdateSnapshotsEnv, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a line diff between this snapshot and other. Returns
// empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := marshalSnapshot(s)
	b, _ := marshalSnapshot(other)
	if bytes.Equal(a, b) {
		return ""
	}
	return unifiedDiff(string(b), string(a))
}

// --- Internal ---

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unifiedDiff produces a simple line-oriented diff.
func unifiedDiff(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	var buf strings.Builder
	buf.WriteString("--- expected\n+++ actual\n")

	maxLen := max(len(expectedLines), len(actualLines))
	for i := 0; i < maxLen; i++ {
		var e, a string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(actualLines) {
			a = actualLines[i]
		}
		if e != a {
			if i < len(expectedLines) {
				fmt.Fprintf(&buf, "-%s\n", e)
			}
			if i < len(actualLines) {
				fmt.Fprintf(&buf, "+%s\n", a)
			}
		}
	}

	return buf.String()
}
