// Package api exposes the click watcher and screen sampler over a local HTTP
// and WebSocket bridge.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"colorpick/internal/input"
	"colorpick/internal/protocol"
	"colorpick/internal/screen"
)

// Watcher is the part of input.Watcher the server drives.
type Watcher interface {
	Start(sink input.Sink) error
	Stop() error
	IsRunning() bool
	DrainEvents() []input.MouseClickEvent
}

// Sampler is the part of screen.Sampler the server drives.
type Sampler interface {
	CursorPosition() (screen.Point, bool)
	SamplePixel(p screen.Point) (screen.RGB, bool)
	SampleRegion(p1, p2 screen.Point) ([]screen.RGB, bool)
}

// Server provides the HTTP API and the click notification stream
type Server struct {
	watcher Watcher
	sampler Sampler
	token   string
	hub     *Hub

	mu         sync.Mutex
	httpServer *http.Server

	// watchMu keeps a watcher transition and its watch-state broadcast together.
	watchMu sync.Mutex
}

// NewServer creates a server and starts its notification hub. An empty token
// disables authentication.
func NewServer(w Watcher, s Sampler, token string) *Server {
	srv := &Server{
		watcher: w,
		sampler: s,
		token:   token,
		hub:     newHub(),
	}
	go srv.hub.run()
	return srv
}

// Handler returns the routed handler wrapped in auth and panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/watch/start", s.handleWatchStart)
	mux.HandleFunc("/api/watch/stop", s.handleWatchStop)
	mux.HandleFunc("/api/watch", s.handleWatchStatus)
	mux.HandleFunc("/api/events/drain", s.handleDrain)
	mux.HandleFunc("/api/cursor", s.handleCursor)
	mux.HandleFunc("/api/pixel", s.handlePixel)
	mux.HandleFunc("/api/region", s.handleRegion)
	mux.HandleFunc("/ws", s.hub.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return s.authMiddleware(s.recoverMiddleware(mux))
}

// ListenAndServe serves the API on addr until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Error("API: failed to listen", "addr", addr, "err", err)
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	slog.Info("API: listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("API: server stopped", "err", err)
		return err
	}
	return nil
}

// Shutdown stops the HTTP server and disconnects all stream clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	s.hub.close()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// StartWatch starts the watcher with the hub as its sink.
func (s *Server) StartWatch() error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	wasRunning := s.watcher.IsRunning()
	if err := s.watcher.Start(s.hub); err != nil {
		return err
	}
	if !wasRunning {
		s.broadcastWatchState(true)
	}
	return nil
}

// StopWatch stops the watcher.
func (s *Server) StopWatch() error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	wasRunning := s.watcher.IsRunning()
	err := s.watcher.Stop()
	if wasRunning && !s.watcher.IsRunning() {
		s.broadcastWatchState(false)
	}
	return err
}

// IsWatching reports whether the watcher is running.
func (s *Server) IsWatching() bool {
	return s.watcher.IsRunning()
}

func (s *Server) broadcastWatchState(running bool) {
	msg, err := protocol.NewMessage(protocol.TypeWatchState, protocol.WatchStatePayload{Running: running})
	if err != nil {
		slog.Warn("API: failed to encode watch state", "err", err)
		return
	}
	s.hub.Broadcast(msg)
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("API: handler panicked", "path", r.URL.Path, "panic", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks the bearer token if one is configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("API: request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)

		if r.URL.Path == "/health" || s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleWatchStart handles POST /api/watch/start
func (s *Server) handleWatchStart(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.StartWatch(); err != nil {
		slog.Warn("API: start watch failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"running": false,
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"running": s.watcher.IsRunning()})
}

// handleWatchStop handles POST /api/watch/stop
func (s *Server) handleWatchStop(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.StopWatch(); err != nil {
		slog.Warn("API: stop watch reported an error", "err", err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": !s.watcher.IsRunning()})
}

// handleWatchStatus handles GET /api/watch
func (s *Server) handleWatchStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"running": s.watcher.IsRunning()})
}

// handleDrain handles POST /api/events/drain
func (s *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	writeJSON(w, http.StatusOK, s.watcher.DrainEvents())
}

// handleCursor handles GET /api/cursor
func (s *Server) handleCursor(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if p, ok := s.sampler.CursorPosition(); ok {
		writeJSON(w, http.StatusOK, p)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// handlePixel handles GET /api/pixel?x=&y=
func (s *Server) handlePixel(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	p, err := pointParam(r, "x", "y")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if c, ok := s.sampler.SamplePixel(p); ok {
		writeJSON(w, http.StatusOK, c)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// handleRegion handles GET /api/region?x1=&y1=&x2=&y2=
func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	p1, err := pointParam(r, "x1", "y1")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p2, err := pointParam(r, "x2", "y2")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if colors, ok := s.sampler.SampleRegion(p1, p2); ok {
		writeJSON(w, http.StatusOK, colors)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func pointParam(r *http.Request, xKey, yKey string) (screen.Point, error) {
	q := r.URL.Query()
	x, err := coordParam(q.Get(xKey), xKey)
	if err != nil {
		return screen.Point{}, err
	}
	y, err := coordParam(q.Get(yKey), yKey)
	if err != nil {
		return screen.Point{}, err
	}
	return screen.Point{X: x, Y: y}, nil
}

func coordParam(raw, name string) (int32, error) {
	if raw == "" {
		return 0, fmt.Errorf("missing %s parameter", name)
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter %q", name, raw)
	}
	return int32(v), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("API: failed to write response", "err", err)
	}
}
