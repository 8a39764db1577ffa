// Package httpapi exposes the conversation engine over HTTP. The surface is
// deliberately small: one endpoint per inbound message, one to end a
// conversation, plus health and metrics.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brightsmile/frontdesk/internal/engine"
	"github.com/brightsmile/frontdesk/pkg/logging"
)

const maxBodyBytes = 16 << 10

// Config holds router configuration.
type Config struct {
	Engine         *engine.Engine
	Logger         *logging.Logger
	MetricsHandler http.Handler
}

// Handler serves the conversation endpoints.
type Handler struct {
	engine *engine.Engine
	logger *logging.Logger
}

// NewHandler creates the conversation HTTP handler.
func NewHandler(eng *engine.Engine, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: eng, logger: logger}
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	h := NewHandler(cfg.Engine, cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(requestLogger(cfg.Logger))
	}

	r.Get("/healthz", h.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/turns", h.HandleTurn)
		r.Post("/conversations/end", h.EndConversation)
	})
	return r
}

// TurnRequest is the request body for an inbound patient message.
type TurnRequest struct {
	ConversationID string `json:"conversation_id"`
	ContactID      string `json:"contact_id,omitempty"`
	Message        string `json:"message"`
}

// TurnResponse carries the assistant's reply.
type TurnResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

// HandleTurn processes one inbound message.
// POST /v1/turns
func (h *Handler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	req.ConversationID = strings.TrimSpace(req.ConversationID)
	if req.ConversationID == "" {
		http.Error(w, `{"error": "conversation_id required"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, `{"error": "message required"}`, http.StatusBadRequest)
		return
	}

	reply := h.engine.HandleTurn(r.Context(), req.ConversationID, req.Message, strings.TrimSpace(req.ContactID))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(TurnResponse{ConversationID: req.ConversationID, Reply: reply}); err != nil {
		h.logger.Error("failed to encode turn response", "conversation_id", req.ConversationID, "error", err)
	}
}

// EndConversationRequest names the conversation to drop.
type EndConversationRequest struct {
	ConversationID string `json:"conversation_id"`
}

// EndConversation ends a conversation out of band, e.g. the channel hung up.
// POST /v1/conversations/end
func (h *Handler) EndConversation(w http.ResponseWriter, r *http.Request) {
	var req EndConversationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ConversationID) == "" {
		http.Error(w, `{"error": "conversation_id required"}`, http.StatusBadRequest)
		return
	}

	h.engine.EndConversation(r.Context(), strings.TrimSpace(req.ConversationID))
	w.WriteHeader(http.StatusNoContent)
}

// Health reports liveness.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status": "ok"}`))
}
