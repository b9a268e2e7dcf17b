package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/dom"
)

func newRoot(t *testing.T) *core.Root {
	t.Helper()
	doc := dom.NewDocument()
	r := core.CreateRoot(doc.Container(), doc)
	r.Render(core.H("ul", core.Props{"className": "todo"},
		core.H("li", nil, "a"),
		core.H("li", core.Props{"onClick": func() {}}, "b"),
	))
	if err := r.Flush(); err != nil {
		t.Fatal(err)
	}
	return r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s := NewServer(":0", nil)
	rec := get(t, s.Handler(), "/health")
	if rec.Code != http.StatusOK || rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("unexpected response %d %s", rec.Code, rec.Body)
	}
}

func TestRoots(t *testing.T) {
	s := NewServer(":0", nil)
	root := newRoot(t)
	s.Register("todo", root)

	rec := get(t, s.Handler(), "/roots")
	var infos []RootInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &infos); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body)
	}
	if len(infos) != 1 || infos[0].ID != root.ID().String() || infos[0].Name != "todo" {
		t.Fatalf("unexpected roots %+v", infos)
	}
	if infos[0].Stats.Commits != 1 {
		t.Errorf("Expected 1 commit, got %d", infos[0].Stats.Commits)
	}

	s.Unregister(root.ID())
	rec = get(t, s.Handler(), "/roots")
	if rec.Body.String() != "[]" {
		t.Errorf("Expected no roots, got %s", rec.Body)
	}
}

func TestFiberTree(t *testing.T) {
	s := NewServer(":0", nil)
	root := newRoot(t)
	s.Register("todo", root)

	rec := get(t, s.Handler(), "/roots/"+root.ID().String()+"/fiber-tree")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var tree core.TreeNode
	if err := json.Unmarshal(rec.Body.Bytes(), &tree); err != nil {
		t.Fatalf("decode: %v", err)
	}
	ul := tree.Children[0]
	if ul.Type != "<ul>" || ul.Props["className"] != "todo" || len(ul.Children) != 2 {
		t.Errorf("unexpected tree %+v", ul)
	}
	if got := ul.Children[1].Props["onClick"]; got != "func" {
		t.Errorf("Expected handler to be described, got %v", got)
	}
}

func TestStats(t *testing.T) {
	s := NewServer(":0", nil)
	root := newRoot(t)
	s.Register("todo", root)

	rec := get(t, s.Handler(), fmt.Sprintf("/roots/%s/stats", root.ID()))
	var stats core.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Commits != 1 || stats.Last.Placements == 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestUnknownRoots(t *testing.T) {
	s := NewServer(":0", nil)
	tests := []struct {
		path string
		code int
	}{
		{"/roots/not-a-uuid/stats", http.StatusBadRequest},
		{"/roots/" + uuid.NewString() + "/fiber-tree", http.StatusNotFound},
		{"/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := get(t, s.Handler(), tt.path); rec.Code != tt.code {
			t.Errorf("%s: Expected %d, got %d", tt.path, tt.code, rec.Code)
		}
	}
}

func TestEmptyRoot(t *testing.T) {
	s := NewServer(":0", nil)
	doc := dom.NewDocument()
	root := core.CreateRoot(doc.Container(), doc)
	s.Register("empty", root)

	rec := get(t, s.Handler(), "/roots/"+root.ID().String()+"/fiber-tree")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before the first commit, got %d", rec.Code)
	}
}

func TestStartShutdown(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil)
	port, err := s.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	again, err := s.Start()
	if err != nil || again != port {
		t.Errorf("Expected Start to be idempotent, got %d, %v", again, err)
	}

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}
