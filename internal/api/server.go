// Package api exposes editing sessions over HTTP: JSON endpoints for
// feeding text and reading state, an SSE stream of display-state
// updates, and PNG export of the current render.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/dusk-indust/mermpad/internal/aicheck"
	"github.com/dusk-indust/mermpad/internal/export"
	"github.com/dusk-indust/mermpad/internal/pipeline"
)

// defaultHeartbeat paces SSE keepalive comments.
const defaultHeartbeat = 15 * time.Second

// Config wires the server's collaborators.
type Config struct {
	// Render validates text through the diagram engine. Required.
	Render pipeline.RenderChecker

	// AI is the second validator. Nil disables the AI check.
	AI aicheck.Checker

	// Delay is the debounce quiet interval; zero means the pipeline
	// default.
	Delay time.Duration

	// IdleTimeout evicts sessions with no traffic for this long; zero
	// keeps sessions until deleted.
	IdleTimeout time.Duration

	// Heartbeat paces SSE keepalives; zero means defaultHeartbeat.
	Heartbeat time.Duration

	Version string

	// UI, when set, serves the editor at /.
	UI http.Handler

	// MCP, when set, mounts a streamable MCP handler at /mcp.
	MCP http.Handler
}

// Server exposes session CRUD, text updates, state reads, SSE streams,
// and PNG export over HTTP.
type Server struct {
	cfg   Config
	store *SessionStore
	mux   *http.ServeMux
	http  *http.Server
}

// NewServer creates a server and its session store.
func NewServer(cfg Config) *Server {
	s := &Server{
		cfg:   cfg,
		store: NewSessionStore(cfg.IdleTimeout),
	}
	if s.cfg.Heartbeat <= 0 {
		s.cfg.Heartbeat = defaultHeartbeat
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("POST /api/sessions/{id}/text", s.handleSetText)
	mux.HandleFunc("GET /api/sessions/{id}/state", s.handleGetState)
	mux.HandleFunc("GET /api/sessions/{id}/events", s.handleEvents)
	mux.HandleFunc("POST /api/sessions/{id}/export", s.handleExport)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if cfg.MCP != nil {
		mux.Handle("/mcp", cfg.MCP)
	}
	if cfg.UI != nil {
		mux.Handle("/", cfg.UI)
	}
	s.mux = mux
	return s
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// Store exposes the session store, mainly to the status surface.
func (s *Server) Store() *SessionStore {
	return s.store
}

// Start begins serving on addr in a background goroutine.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	go s.http.ListenAndServe()

	return nil
}

// Stop gracefully shuts down the HTTP server and closes every session.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	s.store.Close()
	return err
}

// newCoordinator builds the per-session pipeline.
func (s *Server) newCoordinator() *pipeline.Coordinator {
	return pipeline.New(s.cfg.Render, s.cfg.AI, pipeline.WithDelay(s.cfg.Delay))
}

// --- Handlers ---

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Create(s.newCoordinator())
	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		ID:    sess.ID,
		State: sess.Coord.State(),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.List())
}

func (s *Server) handleSetText(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "%v", err)
		return
	}
	if !jsonBody(r) {
		writeError(w, http.StatusUnsupportedMediaType, "api: expected application/json")
		return
	}

	var req SetTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "api: decode request: %v", err)
		return
	}

	sess.Coord.SetText(req.Text)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, cloneState(sess.Coord.State()))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "%v", err)
		return
	}

	updates, cancel := sess.Coord.Subscribe()
	defer cancel()

	sw := NewSSEWriter(w)
	sw.Init()

	heartbeat := time.NewTicker(s.cfg.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := sw.WriteState(st); err != nil {
				return
			}
		case <-heartbeat.C:
			if err := sw.WriteComment("keepalive"); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "%v", err)
		return
	}

	var req ExportRequest
	if r.ContentLength > 0 {
		if !jsonBody(r) {
			writeError(w, http.StatusUnsupportedMediaType, "api: expected application/json")
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "api: decode request: %v", err)
			return
		}
	}

	st := sess.Coord.State()
	if st.VectorMarkup == "" {
		writeError(w, http.StatusConflict, "api: session has no rendered diagram to export")
		return
	}

	var opts []export.PNGOption
	if req.Scale > 0 {
		opts = append(opts, export.WithScale(req.Scale))
	}
	data, err := export.EncodePNG(st.VectorMarkup, opts...)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "%v", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DownloadName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, "%v", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  s.cfg.Version,
		Sessions: s.store.Len(),
	})
}

// --- Helpers ---

// jsonBody reports whether the request declares a JSON payload.
func jsonBody(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && mt == "application/json"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIError{
		Status:  status,
		Message: fmt.Sprintf(format, args...),
	})
}

// --- Middleware ---

// statusWriter records the response code and keeps Flush working for
// SSE handlers behind the middleware.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// logRequests logs one line per request: method, path, status,
// duration.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Printf("api: %s %s -> %d (%s)", r.Method, r.URL.Path, sw.status, time.Since(start).Round(time.Millisecond))
	})
}
