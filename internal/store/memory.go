package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/AnshRaj112/orally-backend/internal/models"
)

type memoryCollection struct {
	order []string
	docs  map[string]models.NoteData
}

type memoryWatcher struct {
	userID string
	coll   Collection
	ch     chan []models.Note
}

// MemoryStore is an in-process DocumentStore. It backs development runs and
// tests, and supports atomic moves.
type MemoryStore struct {
	mu       sync.Mutex
	closed   bool
	records  map[string]models.EngagementRecord
	notes    map[string]map[Collection]*memoryCollection
	watchers map[*memoryWatcher]struct{}
	newID    func() string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[string]models.EngagementRecord),
		notes:    make(map[string]map[Collection]*memoryCollection),
		watchers: make(map[*memoryWatcher]struct{}),
		newID:    uuid.NewString,
	}
}

func (s *MemoryStore) GetRecord(ctx context.Context, userID string) (models.EngagementRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.EngagementRecord{}, ErrClosed
	}
	return cloneRecord(s.records[userID]), nil
}

func (s *MemoryStore) MergeRecord(ctx context.Context, userID string, u models.RecordUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.records[userID] = s.records[userID].Apply(u)
	return nil
}

func (s *MemoryStore) ListNotes(ctx context.Context, userID string, c Collection) ([]models.Note, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.snapshotLocked(userID, c), nil
}

func (s *MemoryStore) GetNote(ctx context.Context, userID string, c Collection, id string) (models.Note, error) {
	if err := checkCollection(c); err != nil {
		return models.Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.Note{}, ErrClosed
	}
	data, ok := s.collLocked(userID, c).docs[id]
	if !ok {
		return models.Note{}, ErrNotFound
	}
	return models.Note{ID: id, NoteData: data}, nil
}

func (s *MemoryStore) AddNote(ctx context.Context, userID string, c Collection, data models.NoteData) (string, error) {
	if err := checkCollection(c); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	id := s.newID()
	s.putLocked(userID, c, id, data)
	s.notifyLocked(userID, c)
	return id, nil
}

func (s *MemoryStore) UpdateNote(ctx context.Context, userID string, c Collection, id string, data models.NoteData) error {
	if err := checkCollection(c); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	coll := s.collLocked(userID, c)
	if _, ok := coll.docs[id]; !ok {
		return fmt.Errorf("update %s/%s: %w", c, id, ErrNotFound)
	}
	coll.docs[id] = data
	s.notifyLocked(userID, c)
	return nil
}

func (s *MemoryStore) SetNote(ctx context.Context, userID string, c Collection, id string, data models.NoteData) error {
	if err := checkCollection(c); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.putLocked(userID, c, id, data)
	s.notifyLocked(userID, c)
	return nil
}

func (s *MemoryStore) DeleteNote(ctx context.Context, userID string, c Collection, id string) error {
	if err := checkCollection(c); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.removeLocked(userID, c, id) {
		s.notifyLocked(userID, c)
	}
	return nil
}

// MoveNote implements Mover. Both collections change under one lock, but
// watchers of the two collections are still notified independently.
func (s *MemoryStore) MoveNote(ctx context.Context, userID string, from, to Collection, id string, data models.NoteData) error {
	if err := checkCollection(from); err != nil {
		return err
	}
	if err := checkCollection(to); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.putLocked(userID, to, id, data)
	s.removeLocked(userID, from, id)
	s.notifyLocked(userID, to)
	s.notifyLocked(userID, from)
	return nil
}

func (s *MemoryStore) Watch(ctx context.Context, userID string, c Collection) (<-chan []models.Note, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	w := &memoryWatcher{userID: userID, coll: c, ch: make(chan []models.Note, 1)}
	s.watchers[w] = struct{}{}
	w.ch <- s.snapshotLocked(userID, c)
	s.mu.Unlock()

	out := make(chan []models.Note)
	go func() {
		defer close(out)
		defer s.unwatch(w)
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-w.ch:
				if !ok {
					return
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close stops all watchers. Further calls fail with ErrClosed.
func (s *MemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for w := range s.watchers {
		close(w.ch)
		delete(s.watchers, w)
	}
	return nil
}

func (s *MemoryStore) unwatch(w *memoryWatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.watchers[w]; ok {
		delete(s.watchers, w)
		close(w.ch)
	}
}

func (s *MemoryStore) collLocked(userID string, c Collection) *memoryCollection {
	byColl, ok := s.notes[userID]
	if !ok {
		byColl = make(map[Collection]*memoryCollection, 2)
		s.notes[userID] = byColl
	}
	coll, ok := byColl[c]
	if !ok {
		coll = &memoryCollection{docs: make(map[string]models.NoteData)}
		byColl[c] = coll
	}
	return coll
}

func (s *MemoryStore) putLocked(userID string, c Collection, id string, data models.NoteData) {
	coll := s.collLocked(userID, c)
	if _, ok := coll.docs[id]; !ok {
		coll.order = append(coll.order, id)
	}
	coll.docs[id] = data
}

func (s *MemoryStore) removeLocked(userID string, c Collection, id string) bool {
	coll := s.collLocked(userID, c)
	if _, ok := coll.docs[id]; !ok {
		return false
	}
	delete(coll.docs, id)
	for i, existing := range coll.order {
		if existing == id {
			coll.order = append(coll.order[:i], coll.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *MemoryStore) snapshotLocked(userID string, c Collection) []models.Note {
	coll := s.collLocked(userID, c)
	out := make([]models.Note, 0, len(coll.order))
	for _, id := range coll.order {
		out = append(out, models.Note{ID: id, NoteData: coll.docs[id]})
	}
	return out
}

// notifyLocked pushes the latest snapshot to every watcher of (userID, c).
// A snapshot the watcher has not consumed yet is replaced, never queued.
func (s *MemoryStore) notifyLocked(userID string, c Collection) {
	for w := range s.watchers {
		if w.userID != userID || w.coll != c {
			continue
		}
		snap := s.snapshotLocked(userID, c)
		select {
		case <-w.ch:
		default:
		}
		w.ch <- snap
	}
}

func cloneRecord(r models.EngagementRecord) models.EngagementRecord {
	out := models.EngagementRecord{Streak: r.Streak}
	if r.LastLoginDate != nil {
		out.LastLoginDate = models.Ptr(*r.LastLoginDate)
	}
	if r.DailyTip != nil {
		out.DailyTip = models.Ptr(*r.DailyTip)
	}
	if r.TipDate != nil {
		out.TipDate = models.Ptr(*r.TipDate)
	}
	return out
}

var (
	_ DocumentStore = (*MemoryStore)(nil)
	_ Mover         = (*MemoryStore)(nil)
)
