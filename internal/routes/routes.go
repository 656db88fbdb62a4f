package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/orally-backend/internal/handlers"
)

func SetupRoutes(r chi.Router, h *handlers.Handler) {
	r.Get("/health", handlers.Health)

	// Engagement: streak and tip of the day
	r.Get("/api/engagement", h.GetEngagement)

	// Notes
	r.Get("/api/notes", h.ListNotes)
	r.Post("/api/notes", h.CreateNote)
	r.Put("/api/notes/{id}", h.UpdateNote)
	r.Delete("/api/notes/{id}", h.DeleteNote)
	r.Post("/api/notes/{id}/restore", h.RestoreNote)

	// Live note snapshots
	r.Get("/ws/notes", h.NotesWebSocket)
}

// Registered lists the routes for the startup log.
var Registered = []string{
	"GET    /health",
	"GET    /api/engagement",
	"GET    /api/notes",
	"POST   /api/notes",
	"PUT    /api/notes/{id}",
	"DELETE /api/notes/{id}",
	"POST   /api/notes/{id}/restore",
	"GET    /ws/notes",
}
