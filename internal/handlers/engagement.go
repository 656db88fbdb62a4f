package handlers

import (
	"net/http"

	"github.com/AnshRaj112/orally-backend/internal/services"
)

type EngagementResponse struct {
	Success bool `json:"success"`
	services.Activation
}

// GetEngagement activates the session: it advances the streak, picks the
// tip of the day and returns both with the display name. Store failures
// still answer 200 with the fallback values.
func (h *Handler) GetEngagement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	writeJSON(w, http.StatusOK, EngagementResponse{
		Success:    true,
		Activation: h.engagement.Activate(ctx, id),
	})
}
