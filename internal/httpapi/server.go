package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/deckdraft-core/server/internal/agent/model"
	"github.com/deckdraft-core/server/internal/agent/workflow"
)

// Version is the service version reported by the liveness endpoint.
const Version = "1.0.0"

type Server struct {
	orchestrator *workflow.Orchestrator
	serviceName  string
}

func NewServer(orchestrator *workflow.Orchestrator, serviceName string) http.Handler {
	s := &Server{orchestrator: orchestrator, serviceName: serviceName}
	mux := http.NewServeMux()

	// GET  / → liveness
	// POST / → conversation turn
	mux.HandleFunc("/", s.handleRoot)

	return chainMiddlewares(mux, withRequestID, withCORS, withLogging)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type conversationRequest struct {
	UserMessage         string               `json:"user_message"`
	SessionID           string               `json:"session_id,omitempty"`
	EntraID             string               `json:"entra_id,omitempty"`
	ConversationHistory []model.HistoryEntry `json:"conversation_history,omitempty"`
	RequestedSlideCount *int                 `json:"requested_slide_count,omitempty"`
}

type livenessResponse struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ─────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.handleLiveness(w)
	case http.MethodPost:
		s.handleConversation(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleLiveness(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, livenessResponse{
		Service: s.serviceName,
		Status:  "running",
		Version: Version,
	})
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	var req conversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	env := s.orchestrator.Process(r.Context(), model.WorkflowRequest{
		UserMessage:     req.UserMessage,
		SessionID:       strings.TrimSpace(req.SessionID),
		EntraID:         strings.TrimSpace(req.EntraID),
		History:         req.ConversationHistory,
		RequestedSlides: req.RequestedSlideCount,
	})

	// Workflow failures ride inside the envelope with a 200 status so the
	// caller always gets the accumulated history back.
	writeJSON(w, http.StatusOK, env)
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
