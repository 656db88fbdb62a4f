package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/AnshRaj112/orally-backend/internal/models"
	"github.com/AnshRaj112/orally-backend/internal/store"
)

// ErrPartialMove reports that a non-atomic move wrote the target but could
// not delete the source, leaving the note in both collections. Retrying
// the same move is safe.
var ErrPartialMove = errors.New("notes: note left in both collections")

// NotesRepository keeps a user's active and trashed notes live and applies
// edits, soft deletes and restores against the store.
type NotesRepository struct {
	store  store.NoteStore
	userID string
	logger *slog.Logger

	mu      sync.RWMutex
	active  []models.Note
	trashed []models.Note
}

// NewNotesRepository returns a repository for one user.
func NewNotesRepository(st store.NoteStore, userID string, logger *slog.Logger) *NotesRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotesRepository{store: st, userID: userID, logger: logger}
}

// SubscribeActive registers a standing subscription on the active
// collection. Each value is the full membership and replaces the
// repository's list; the channel closes once ctx is done.
func (r *NotesRepository) SubscribeActive(ctx context.Context) (<-chan []models.Note, error) {
	return r.subscribe(ctx, store.Notes)
}

// SubscribeTrashed is SubscribeActive for the recently deleted collection.
func (r *NotesRepository) SubscribeTrashed(ctx context.Context) (<-chan []models.Note, error) {
	return r.subscribe(ctx, store.RecentlyDeleted)
}

func (r *NotesRepository) subscribe(ctx context.Context, c store.Collection) (<-chan []models.Note, error) {
	src, err := r.store.Watch(ctx, r.userID, c)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", c, err)
	}
	out := make(chan []models.Note)
	go func() {
		defer close(out)
		for snap := range src {
			r.replace(c, snap)
			select {
			case out <- copyNotes(snap):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (r *NotesRepository) replace(c store.Collection, snap []models.Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c == store.Notes {
		r.active = copyNotes(snap)
	} else {
		r.trashed = copyNotes(snap)
	}
}

// Active returns the latest active snapshot.
func (r *NotesRepository) Active() []models.Note {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyNotes(r.active)
}

// Trashed returns the latest trashed snapshot, minus notes that are also
// active.
func (r *NotesRepository) Trashed() []models.Note {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Reconcile(r.active, r.trashed)
}

// Save creates a note when existingID is empty and otherwise overwrites
// the existing note's title and content. It returns the note's id.
// Rejecting an empty note is left to the caller.
func (r *NotesRepository) Save(ctx context.Context, data models.NoteData, existingID string) (string, error) {
	if existingID == "" {
		id, err := r.store.AddNote(ctx, r.userID, store.Notes, data)
		if err != nil {
			return "", fmt.Errorf("create note: %w", err)
		}
		return id, nil
	}
	if err := r.store.UpdateNote(ctx, r.userID, store.Notes, existingID, data); err != nil {
		return "", fmt.Errorf("update note %s: %w", existingID, err)
	}
	return existingID, nil
}

// SoftDelete moves the note into the recently deleted collection under the
// same id.
func (r *NotesRepository) SoftDelete(ctx context.Context, id string, data models.NoteData) error {
	if err := r.move(ctx, store.Notes, store.RecentlyDeleted, id, data); err != nil {
		return fmt.Errorf("soft delete %s: %w", id, err)
	}
	return nil
}

// Restore moves the note back into the active collection.
func (r *NotesRepository) Restore(ctx context.Context, id string, data models.NoteData) error {
	if err := r.move(ctx, store.RecentlyDeleted, store.Notes, id, data); err != nil {
		return fmt.Errorf("restore %s: %w", id, err)
	}
	return nil
}

// move uses the store's atomic move when it has one. Otherwise the target
// is written first and the source deleted second, so a failure in between
// duplicates the note rather than losing it.
func (r *NotesRepository) move(ctx context.Context, from, to store.Collection, id string, data models.NoteData) error {
	if m, ok := r.store.(store.Mover); ok {
		return m.MoveNote(ctx, r.userID, from, to, id, data)
	}
	if err := r.store.SetNote(ctx, r.userID, to, id, data); err != nil {
		return err
	}
	if err := r.store.DeleteNote(ctx, r.userID, from, id); err != nil {
		r.logger.Warn("notes: move left a duplicate", "user_id", r.userID, "note_id", id, "from", from, "to", to, "error", err)
		return fmt.Errorf("%w: %w", ErrPartialMove, err)
	}
	return nil
}

// Snapshot is the full membership of one collection.
type Snapshot struct {
	Collection store.Collection `json:"collection"`
	Notes      []models.Note    `json:"notes"`
}

// Feed merges both subscriptions into one stream of snapshots. Trashed
// snapshots are reconciled against the latest active one, and the trashed
// view is sent again whenever an active snapshot changes it, so a move
// whose two notifications arrive in either order still ends with the note
// visible in exactly one collection. The channel closes once ctx is done.
func (r *NotesRepository) Feed(ctx context.Context) (<-chan Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	active, err := r.SubscribeActive(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	trashed, err := r.SubscribeTrashed(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan Snapshot)
	go func() {
		defer close(out)
		defer cancel()

		var (
			lastActive  []models.Note
			rawTrashed  []models.Note
			haveTrashed bool
			sentTrashed []models.Note
		)
		send := func(s Snapshot) bool {
			select {
			case out <- s:
				return true
			case <-ctx.Done():
				return false
			}
		}
		sendTrashed := func() bool {
			sentTrashed = Reconcile(lastActive, rawTrashed)
			return send(Snapshot{Collection: store.RecentlyDeleted, Notes: sentTrashed})
		}

		for active != nil || trashed != nil {
			select {
			case snap, ok := <-active:
				if !ok {
					active = nil
					continue
				}
				lastActive = snap
				if !send(Snapshot{Collection: store.Notes, Notes: nonNilNotes(copyNotes(snap))}) {
					return
				}
				if haveTrashed && !slices.Equal(Reconcile(lastActive, rawTrashed), sentTrashed) {
					if !sendTrashed() {
						return
					}
				}
			case snap, ok := <-trashed:
				if !ok {
					trashed = nil
					continue
				}
				rawTrashed, haveTrashed = snap, true
				if !sendTrashed() {
					return
				}
			}
		}
	}()
	return out, nil
}

// Reconcile drops from trashed every note whose id is also active.
func Reconcile(active, trashed []models.Note) []models.Note {
	ids := make(map[string]struct{}, len(active))
	for _, n := range active {
		ids[n.ID] = struct{}{}
	}
	out := make([]models.Note, 0, len(trashed))
	for _, n := range trashed {
		if _, dup := ids[n.ID]; !dup {
			out = append(out, n)
		}
	}
	return out
}

func nonNilNotes(in []models.Note) []models.Note {
	if in == nil {
		return []models.Note{}
	}
	return in
}

func copyNotes(in []models.Note) []models.Note {
	if in == nil {
		return nil
	}
	return append([]models.Note(nil), in...)
}
