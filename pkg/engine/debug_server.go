package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-drift/kayak/pkg/core"
	"github.com/go-drift/kayak/pkg/errors"
)

// DebugServer serves tree and frame inspection endpoints for a Runner.
type DebugServer struct {
	runner *Runner

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// StartDebugServer listens on addr and serves:
//
//	/health  liveness probe
//	/tree    the mounted widget tree as JSON
//	/frames  the frame timeline
//	/stats   node, global and frame counters
//
// Use ":0" for an ephemeral port and read it back with Addr.
func StartDebugServer(addr string, runner *Runner) (*DebugServer, error) {
	// Bind first to fail fast on port conflicts.
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("debug server listen: %w", err)
	}

	s := &DebugServer{runner: runner, listener: listener}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/tree", s.handleTree)
	mux.HandleFunc("/frames", s.handleFrames)
	mux.HandleFunc("/stats", s.handleStats)
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	server := s.server
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errors.Report(&errors.KayakError{
				Op:   "engine.DebugServer",
				Kind: errors.KindHost,
				Err:  err,
			})
		}
	}()
	return s, nil
}

// Addr returns the listening address.
func (s *DebugServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Port returns the listening TCP port, or 0 once stopped.
func (s *DebugServer) Port() int {
	if addr, ok := s.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Stop gracefully shuts the server down. It is safe to call more than once.
func (s *DebugServer) Stop() error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *DebugServer) handleTree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			http.Error(w, fmt.Sprintf("panic: %v", rec), http.StatusInternalServerError)
		}
	}()

	info := s.runner.Context().Describe()
	if info == nil {
		http.Error(w, "no widget tree", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, info)
}

func (s *DebugServer) handleFrames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.runner.Trace())
}

// Stats is the /stats response shape.
type Stats struct {
	Frames      int64 `json:"frames"`
	Nodes       int   `json:"nodes"`
	Globals     int   `json:"globals"`
	NeedsRender bool  `json:"needsRender"`
}

func (s *DebugServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	kctx := s.runner.Context()
	stats := Stats{
		Frames:      s.runner.Frames(),
		Globals:     kctx.Globals(),
		NeedsRender: kctx.NeedsRender(),
	}
	kctx.Inspect(func(tree *core.WidgetTree) {
		stats.Nodes = tree.Len()
	})
	writeJSON(w, stats)
}

// writeJSON encodes to a buffer first so encoding errors become a 500.
func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
