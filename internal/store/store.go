// Package store defines the per-user remote document store the engagement
// core runs against, plus its memory, MongoDB and PostgreSQL adapters.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnshRaj112/orally-backend/internal/models"
)

// Collection names a per-user note collection.
type Collection string

const (
	// Notes holds a user's active notes.
	Notes Collection = "notes"
	// RecentlyDeleted holds soft-deleted notes.
	RecentlyDeleted Collection = "recently_deleted"
)

// Valid reports whether c is one of the known collections.
func (c Collection) Valid() bool {
	return c == Notes || c == RecentlyDeleted
}

var (
	// ErrNotFound is returned when a note does not exist in the collection.
	ErrNotFound = errors.New("store: not found")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")
)

// RecordStore reads and merges the per-user engagement record.
type RecordStore interface {
	// GetRecord returns the user's record. A missing document is returned as
	// a zero record with a nil error.
	GetRecord(ctx context.Context, userID string) (models.EngagementRecord, error)
	// MergeRecord writes the set fields of u, creating the document if needed.
	MergeRecord(ctx context.Context, userID string, u models.RecordUpdate) error
}

// NoteStore manages a user's note collections.
type NoteStore interface {
	ListNotes(ctx context.Context, userID string, c Collection) ([]models.Note, error)
	GetNote(ctx context.Context, userID string, c Collection, id string) (models.Note, error)
	// AddNote creates a note under a store-assigned identifier.
	AddNote(ctx context.Context, userID string, c Collection, data models.NoteData) (string, error)
	// UpdateNote overwrites title and content of an existing note.
	UpdateNote(ctx context.Context, userID string, c Collection, id string, data models.NoteData) error
	// SetNote writes data under a caller-chosen identifier, replacing any
	// existing document.
	SetNote(ctx context.Context, userID string, c Collection, id string, data models.NoteData) error
	// DeleteNote removes the note. Deleting a missing note is not an error.
	DeleteNote(ctx context.Context, userID string, c Collection, id string) error
	// Watch delivers the full membership of the collection once on
	// subscription and again after every change, until ctx is done. The
	// channel is closed afterwards.
	Watch(ctx context.Context, userID string, c Collection) (<-chan []models.Note, error)
}

// Mover is implemented by stores that can move a note between collections
// in a single atomic write.
type Mover interface {
	MoveNote(ctx context.Context, userID string, from, to Collection, id string, data models.NoteData) error
}

// DocumentStore is the full remote store contract.
type DocumentStore interface {
	RecordStore
	NoteStore
	Close(ctx context.Context) error
}

func checkCollection(c Collection) error {
	if !c.Valid() {
		return fmt.Errorf("store: unknown collection %q", c)
	}
	return nil
}
