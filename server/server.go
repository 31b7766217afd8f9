// Package server exposes the assistant over HTTP: a streaming chat endpoint
// (Server-Sent Events) and a health probe.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gantryai/gantry/logging"
	"github.com/gantryai/gantry/runner"
)

// Server handles chat requests by driving turns through the Runner.
type Server struct {
	runner *runner.Runner
	logger logging.Logger
}

// New constructs a Server.
func New(r *runner.Runner, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Server{runner: r, logger: logger}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Post("/chat", s.handleChat)
	r.Get("/health", s.handleHealth)
	return r
}

type chatRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Role      string `json:"role,omitempty"`
}

// handleChat streams one turn as Server-Sent Events. Each output event is one
// data: line; errors surface in-band as an error event followed by stream end.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.UserID == "" || req.SessionID == "" || req.Message == "" {
		writeJSONError(w, http.StatusBadRequest, "missing user_id, session_id, or message")
		return
	}

	events, err := s.runner.RunTurn(r.Context(), req.UserID, req.SessionID, req.Message, req.Role)
	if err != nil {
		s.logger.Error("turn setup failed", "user", req.UserID, "session", req.SessionID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for ev := range events {
		payload, err := encodeEvent(ev)
		if err != nil {
			s.logger.Error("encode event failed", "error", err)
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}

// encodeEvent renders an output event as a tagged JSON object.
func encodeEvent(ev runner.Event) ([]byte, error) {
	var wire struct {
		Type string       `json:"type"`
		Data runner.Event `json:"data"`
	}
	wire.Data = ev
	switch ev.(type) {
	case runner.TextEvent:
		wire.Type = "text"
	case runner.ToolStartedEvent:
		wire.Type = "tool_started"
	case runner.ToolFinishedEvent:
		wire.Type = "tool_finished"
	case runner.ErrorEvent:
		wire.Type = "error"
	default:
		return nil, fmt.Errorf("unknown event type %T", ev)
	}
	return json.Marshal(wire)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":     "ok",
		"agent_name": s.runner.AgentName(),
	})
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
