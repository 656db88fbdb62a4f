package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/AnshRaj112/orally-backend/internal/models"
	"github.com/AnshRaj112/orally-backend/pkg/datekey"
)

// NotesChannel is the LISTEN/NOTIFY channel the user_notes trigger publishes
// "<userID>|<collection>" payloads on.
const NotesChannel = "user_notes_changed"

const (
	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
	listenerPingInterval = 90 * time.Second
)

// PostgresStore is a DocumentStore on PostgreSQL. Tables and the notify
// trigger are created by database.InitPostgresTables.
type PostgresStore struct {
	db      *sql.DB
	connStr string
	logger  *slog.Logger
}

// NewPostgresStore wraps an open pool. connStr is used again to open a
// dedicated LISTEN connection per Watch.
func NewPostgresStore(db *sql.DB, connStr string, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, connStr: connStr, logger: logger}
}

func (s *PostgresStore) GetRecord(ctx context.Context, userID string) (models.EngagementRecord, error) {
	var (
		rec                    models.EngagementRecord
		lastLogin, tip, tipDay sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT streak, last_login_date, daily_tip, tip_date FROM user_records WHERE user_id = $1
	`, userID).Scan(&rec.Streak, &lastLogin, &tip, &tipDay)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EngagementRecord{}, nil
	}
	if err != nil {
		return models.EngagementRecord{}, fmt.Errorf("get record %s: %w", userID, err)
	}
	if lastLogin.Valid {
		rec.LastLoginDate = models.Ptr(datekey.Key(lastLogin.String))
	}
	if tip.Valid {
		rec.DailyTip = models.Ptr(tip.String)
	}
	if tipDay.Valid {
		rec.TipDate = models.Ptr(datekey.Key(tipDay.String))
	}
	return rec, nil
}

func (s *PostgresStore) MergeRecord(ctx context.Context, userID string, u models.RecordUpdate) error {
	if u.IsEmpty() {
		return nil
	}
	query, args := mergeRecordQuery(userID, u)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("merge record %s: %w", userID, err)
	}
	return nil
}

// mergeRecordQuery builds an upsert touching only the columns u sets.
func mergeRecordQuery(userID string, u models.RecordUpdate) (string, []any) {
	cols := []string{"user_id"}
	args := []any{userID}
	add := func(col string, v any) {
		cols = append(cols, col)
		args = append(args, v)
	}
	if u.Streak != nil {
		add("streak", *u.Streak)
	}
	if u.LastLoginDate != nil {
		add("last_login_date", string(*u.LastLoginDate))
	}
	if u.DailyTip != nil {
		add("daily_tip", *u.DailyTip)
	}
	if u.TipDate != nil {
		add("tip_date", string(*u.TipDate))
	}

	placeholders := make([]string, len(cols))
	sets := make([]string, 0, len(cols))
	for i, col := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if i > 0 {
			sets = append(sets, col+" = EXCLUDED."+col)
		}
	}
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(
		"INSERT INTO user_records (%s) VALUES (%s) ON CONFLICT (user_id) DO UPDATE SET %s",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(sets, ", "),
	)
	return query, args
}

func (s *PostgresStore) ListNotes(ctx context.Context, userID string, c Collection) ([]models.Note, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content FROM user_notes
		WHERE user_id = $1 AND collection = $2
		ORDER BY created_at, id
	`, userID, string(c))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content); err != nil {
			return nil, fmt.Errorf("list %s: %w", c, err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	return out, nil
}

func (s *PostgresStore) GetNote(ctx context.Context, userID string, c Collection, id string) (models.Note, error) {
	if err := checkCollection(c); err != nil {
		return models.Note{}, err
	}
	n := models.Note{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT title, content FROM user_notes WHERE user_id = $1 AND collection = $2 AND id = $3
	`, userID, string(c), id).Scan(&n.Title, &n.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, ErrNotFound
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("get %s/%s: %w", c, id, err)
	}
	return n, nil
}

func (s *PostgresStore) AddNote(ctx context.Context, userID string, c Collection, data models.NoteData) (string, error) {
	if err := checkCollection(c); err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_notes (user_id, collection, id, title, content) VALUES ($1, $2, $3, $4, $5)
	`, userID, string(c), id, data.Title, data.Content)
	if err != nil {
		return "", fmt.Errorf("add to %s: %w", c, err)
	}
	return id, nil
}

func (s *PostgresStore) UpdateNote(ctx context.Context, userID string, c Collection, id string, data models.NoteData) error {
	if err := checkCollection(c); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE user_notes SET title = $4, content = $5 WHERE user_id = $1 AND collection = $2 AND id = $3
	`, userID, string(c), id, data.Title, data.Content)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", c, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update %s/%s: %w", c, id, ErrNotFound)
	}
	return nil
}

const setNoteQuery = `
	INSERT INTO user_notes (user_id, collection, id, title, content) VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id, collection, id) DO UPDATE SET title = EXCLUDED.title, content = EXCLUDED.content
`

const deleteNoteQuery = `DELETE FROM user_notes WHERE user_id = $1 AND collection = $2 AND id = $3`

func (s *PostgresStore) SetNote(ctx context.Context, userID string, c Collection, id string, data models.NoteData) error {
	if err := checkCollection(c); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, setNoteQuery, userID, string(c), id, data.Title, data.Content); err != nil {
		return fmt.Errorf("set %s/%s: %w", c, id, err)
	}
	return nil
}

func (s *PostgresStore) DeleteNote(ctx context.Context, userID string, c Collection, id string) error {
	if err := checkCollection(c); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, deleteNoteQuery, userID, string(c), id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", c, id, err)
	}
	return nil
}

// MoveNote implements Mover inside one SQL transaction.
func (s *PostgresStore) MoveNote(ctx context.Context, userID string, from, to Collection, id string, data models.NoteData) error {
	if err := checkCollection(from); err != nil {
		return err
	}
	if err := checkCollection(to); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("move %s: begin: %w", id, err)
	}
	defer tx.Rollback()

	steps := []struct {
		q    string
		args []any
	}{
		{setNoteQuery, []any{userID, string(to), id, data.Title, data.Content}},
		{deleteNoteQuery, []any{userID, string(from), id}},
	}
	for _, st := range steps {
		if _, err := tx.ExecContext(ctx, st.q, st.args...); err != nil {
			return fmt.Errorf("move %s from %s to %s: %w", id, from, to, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("move %s: commit: %w", id, err)
	}
	return nil
}

// Watch opens a dedicated LISTEN connection and re-lists the collection
// whenever the trigger reports a change for (userID, c), or after the
// listener reconnects.
func (s *PostgresStore) Watch(ctx context.Context, userID string, c Collection) (<-chan []models.Note, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	listener := pq.NewListener(s.connStr, listenerMinReconnect, listenerMaxReconnect,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				s.logger.Warn("watch: listener event", "event", ev, "error", err)
			}
		})
	if err := listener.Listen(NotesChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("watch %s: listen: %w", c, err)
	}

	out := make(chan []models.Note)
	go func() {
		defer close(out)
		defer listener.Close()

		emit := func() bool {
			notes, err := s.ListNotes(ctx, userID, c)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Warn("watch: list failed", "collection", c, "user_id", userID, "error", err)
				}
				return ctx.Err() == nil
			}
			select {
			case out <- notes:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		ticker := time.NewTicker(listenerPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				// A nil notification means the connection was re-established
				// and events may have been missed.
				if n != nil {
					uid, coll, ok := parseNotification(n.Extra)
					if !ok || uid != userID || coll != c {
						continue
					}
				}
				if !emit() {
					return
				}
			case <-ticker.C:
				go listener.Ping()
			}
		}
	}()
	return out, nil
}

// Close closes the pool.
func (s *PostgresStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func parseNotification(payload string) (string, Collection, bool) {
	i := strings.LastIndex(payload, "|")
	if i <= 0 || i == len(payload)-1 {
		return "", "", false
	}
	c := Collection(payload[i+1:])
	if !c.Valid() {
		return "", "", false
	}
	return payload[:i], c, true
}

var (
	_ DocumentStore = (*PostgresStore)(nil)
	_ Mover         = (*PostgresStore)(nil)
)
