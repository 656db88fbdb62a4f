package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/AnshRaj112/orally-backend/internal/models"
	"github.com/AnshRaj112/orally-backend/internal/services"
	"github.com/AnshRaj112/orally-backend/internal/store"
)

// DefaultRequestTimeout bounds store calls made while serving a request.
const DefaultRequestTimeout = 5 * time.Second

// Handler serves the engagement and notes API.
type Handler struct {
	store      store.DocumentStore
	engagement *services.EngagementController
	auth       Authenticator
	logger     *slog.Logger
	timeout    time.Duration
}

// New returns a Handler. A zero timeout uses DefaultRequestTimeout.
func New(st store.DocumentStore, engagement *services.EngagementController, auth Authenticator, logger *slog.Logger, timeout time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Handler{store: st, engagement: engagement, auth: auth, logger: logger, timeout: timeout}
}

// MessageResponse is the envelope for responses without a payload.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Success: false, Message: message})
}

// requireIdentity resolves the caller or writes a 401.
func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	id, ok := h.auth.Authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return models.Identity{}, false
	}
	return id, true
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}
