package app

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/justcollins/tristin/common/trace"
	"github.com/justcollins/tristin/common/version"
	"github.com/justcollins/tristin/internal/tristin/chat"
	"github.com/justcollins/tristin/internal/tristin/session"
)

// maxBodyBytes bounds the request body read per chat request.
const maxBodyBytes = 64 << 10

// Server is the gateway's HTTP surface. It implements http.Handler so it
// can be exercised with httptest without a live listener.
type Server struct {
	orch      *chat.Orchestrator
	resolver  session.UserKeyResolver
	startedAt time.Time
	log       *slog.Logger
	mux       *http.ServeMux
}

// NewServer wires the HTTP routes around the orchestrator.
func NewServer(orch *chat.Orchestrator, resolver session.UserKeyResolver, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		orch:      orch,
		resolver:  resolver,
		startedAt: time.Now(),
		log:       log,
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /api/chat", s.handleChat)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("POST /api/clear_memory", s.handleClearMemory)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

// ServeHTTP dispatches to the route table with access logging.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := trace.GenerateID()
	r = r.WithContext(trace.WithRequestID(r.Context(), requestID))

	start := time.Now()
	lw := &loggingWriter{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(lw, r)

	s.log.Info("request handled",
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
		"status", lw.status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// loggingWriter captures the status code for the access log.
type loggingWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	Message string `json:"message"`
}

// chatResponse is the body of every chat outcome, success or not. The
// persona reply always rides in the response field so clients render one
// shape.
type chatResponse struct {
	Success   bool      `json:"success"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatResponse{
			Success:   false,
			Response:  "I couldn't read that request 😒",
			Timestamp: time.Now().UTC(),
		})
		return
	}

	userKey := s.resolver.Resolve(w, r)
	reply, err := s.orch.Handle(r.Context(), userKey, req.Message)

	status := http.StatusOK
	switch {
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong):
		status = http.StatusBadRequest
	case errors.Is(err, chat.ErrRateLimited):
		status = http.StatusTooManyRequests
	case err != nil:
		s.log.Error("chat pipeline failed",
			"request_id", trace.FromContext(r.Context()), "error", err)
		status = http.StatusInternalServerError
		reply = "Something broke on my end... give me a second 😅"
	}

	writeJSON(w, status, chatResponse{
		Success:   err == nil,
		Response:  reply,
		Timestamp: time.Now().UTC(),
	})
}

// statsResponse is the body of GET /api/stats.
type statsResponse struct {
	Status     string     `json:"status"`
	Version    string     `json:"version"`
	UptimeSecs float64    `json:"uptime_seconds"`
	Stats      chat.Stats `json:"stats"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		Status:     "ok",
		Version:    version.Version,
		UptimeSecs: time.Since(s.startedAt).Seconds(),
		Stats:      s.orch.Snapshot(),
	})
}

func (s *Server) handleClearMemory(w http.ResponseWriter, r *http.Request) {
	userKey := s.resolver.Resolve(w, r)
	s.orch.ClearMemory(userKey)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Memory cleared! Fresh start 💫",
	})
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Version,
		Commit:  version.GitCommit,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write JSON response", "err", err)
	}
}
