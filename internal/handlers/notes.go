package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/orally-backend/internal/models"
	"github.com/AnshRaj112/orally-backend/internal/services"
	"github.com/AnshRaj112/orally-backend/internal/store"
)

type NotesResponse struct {
	Success         bool          `json:"success"`
	Notes           []models.Note `json:"notes"`
	RecentlyDeleted []models.Note `json:"recently_deleted"`
}

type NoteResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Note    *models.Note `json:"note,omitempty"`
}

type NoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *Handler) repository(userID string) *services.NotesRepository {
	return services.NewNotesRepository(h.store, userID, h.logger)
}

// ListNotes returns both collections. Trashed notes that are also active,
// left over from an interrupted move, are hidden.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()

	active, err := h.store.ListNotes(ctx, id.UserID, store.Notes)
	if err != nil {
		h.logger.Error("list notes failed", "user_id", id.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load notes")
		return
	}
	trashed, err := h.store.ListNotes(ctx, id.UserID, store.RecentlyDeleted)
	if err != nil {
		h.logger.Error("list recently deleted failed", "user_id", id.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load notes")
		return
	}

	writeJSON(w, http.StatusOK, NotesResponse{
		Success:         true,
		Notes:           nonNil(active),
		RecentlyDeleted: nonNil(services.Reconcile(active, trashed)),
	})
}

// CreateNote adds a note to the active collection.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	h.saveNote(w, r, "")
}

// UpdateNote overwrites an active note's title and content.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	h.saveNote(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) saveNote(w http.ResponseWriter, r *http.Request, existingID string) {
	id, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	data := models.NoteData{Title: req.Title, Content: req.Content}
	if data.IsEmpty() {
		writeError(w, http.StatusBadRequest, "Title or content is required")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	noteID, err := h.repository(id.UserID).Save(ctx, data, existingID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	if err != nil {
		h.logger.Error("save note failed", "user_id", id.UserID, "note_id", existingID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save note")
		return
	}

	status := http.StatusOK
	if existingID == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, NoteResponse{
		Success: true,
		Note:    &models.Note{ID: noteID, NoteData: data},
	})
}

// DeleteNote moves an active note into recently deleted.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	h.moveNote(w, r, store.Notes, "Note moved to recently deleted")
}

// RestoreNote moves a recently deleted note back into the active list.
func (h *Handler) RestoreNote(w http.ResponseWriter, r *http.Request) {
	h.moveNote(w, r, store.RecentlyDeleted, "Note restored")
}

// moveNote reads the note from its current collection so the move carries
// the stored title and content rather than anything from the client.
func (h *Handler) moveNote(w http.ResponseWriter, r *http.Request, from store.Collection, message string) {
	id, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	noteID := chi.URLParam(r, "id")

	ctx, cancel := h.requestContext(r)
	defer cancel()

	note, err := h.store.GetNote(ctx, id.UserID, from, noteID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	if err != nil {
		h.logger.Error("load note failed", "user_id", id.UserID, "note_id", noteID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load note")
		return
	}

	repo := h.repository(id.UserID)
	if from == store.Notes {
		err = repo.SoftDelete(ctx, noteID, note.NoteData)
	} else {
		err = repo.Restore(ctx, noteID, note.NoteData)
	}
	if err != nil {
		h.logger.Error("move note failed", "user_id", id.UserID, "note_id", noteID, "from", from, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrPartialMove) {
			// Both copies exist; retrying completes the move.
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, "Failed to move note")
		return
	}

	writeJSON(w, http.StatusOK, NoteResponse{Success: true, Message: message, Note: &note})
}

func nonNil(notes []models.Note) []models.Note {
	if notes == nil {
		return []models.Note{}
	}
	return notes
}
