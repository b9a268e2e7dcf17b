// Package inspect serves a read-only HTTP view of live roots for debugging:
// their committed fiber trees and render statistics.
package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/go-drift/fiber/pkg/core"
)

// Source is what the inspector reads from a root. *core.Root implements it.
type Source interface {
	ID() uuid.UUID
	Snapshot() *core.TreeNode
	Stats() core.Stats
	Err() error
}

var _ Source = (*core.Root)(nil)

// RootInfo is one entry of GET /roots.
type RootInfo struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Stats   core.Stats `json:"stats"`
	LastErr string     `json:"lastError,omitempty"`
}

type entry struct {
	name  string
	added time.Time
	src   Source
}

// Server manages the inspector's HTTP server and its registry of roots.
type Server struct {
	addr   string
	logger *slog.Logger

	mu       sync.Mutex
	roots    map[uuid.UUID]entry
	server   *http.Server
	listener net.Listener
}

// NewServer creates an inspector that will listen on addr (for example
// "localhost:7777", or ":0" for any free port).
func NewServer(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		addr:   addr,
		logger: logger,
		roots:  make(map[uuid.UUID]entry),
	}
}

// Register exposes src under its id. Registering the same id again replaces
// the entry.
func (s *Server) Register(name string, src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roots[src.ID()] = entry{name: name, added: time.Now(), src: src}
}

// Unregister removes the root with id.
func (s *Server) Unregister(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roots, id)
}

func (s *Server) lookup(id uuid.UUID) (entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.roots[id]
	return e, ok
}

func (s *Server) list() []entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entry, 0, len(s.roots))
	for _, e := range s.roots {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].added.Before(out[j].added) })
	return out
}

// Handler returns the inspector's routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", handleHealth)
	r.Get("/roots", s.handleRoots)
	r.Route("/roots/{id}", func(r chi.Router) {
		r.Get("/fiber-tree", s.handleFiberTree)
		r.Get("/stats", s.handleStats)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("inspect request",
			"method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"duration", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
	})
}

// Start binds the listener and serves in the background. It returns the
// bound port. Calling Start on a running server returns its port.
func (s *Server) Start() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().(*net.TCPAddr).Port, nil
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return 0, fmt.Errorf("inspect listen: %w", err)
	}
	server := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.server = server
	s.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("inspect server stopped", "error", err)
			s.mu.Lock()
			s.server = nil
			s.listener = nil
			s.mu.Unlock()
		}
	}()

	port := listener.Addr().(*net.TCPAddr).Port
	s.logger.Info("inspector listening", "addr", listener.Addr().String())
	return port, nil
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleRoots(w http.ResponseWriter, r *http.Request) {
	entries := s.list()
	infos := make([]RootInfo, 0, len(entries))
	for _, e := range entries {
		info := RootInfo{ID: e.src.ID().String(), Name: e.name, Stats: e.src.Stats()}
		if err := e.src.Err(); err != nil {
			info.LastErr = err.Error()
		}
		infos = append(infos, info)
	}
	writeJSON(w, infos)
}

func (s *Server) handleFiberTree(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	tree := e.src.Snapshot()
	if tree == nil {
		http.Error(w, "nothing committed yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, tree)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, e.src.Stats())
}

func (s *Server) entryFor(w http.ResponseWriter, r *http.Request) (entry, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid root id", http.StatusBadRequest)
		return entry{}, false
	}
	e, ok := s.lookup(id)
	if !ok {
		http.Error(w, "unknown root", http.StatusNotFound)
		return entry{}, false
	}
	return e, true
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
