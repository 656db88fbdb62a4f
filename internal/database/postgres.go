package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres opens the pool, pings it and creates the schema.
func ConnectPostgres(postgresURI string) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	log.Println("✅ Connected to PostgreSQL")

	if err := InitPostgresTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitPostgresTables creates the engagement and notes tables and the trigger
// that publishes note changes on the user_notes_changed channel.
func InitPostgresTables(db *sql.DB) error {
	queries := []string{
		// One row per user; NULL columns are absent fields
		`CREATE TABLE IF NOT EXISTS user_records (
			user_id TEXT PRIMARY KEY,
			streak INTEGER NOT NULL DEFAULT 0,
			last_login_date TEXT,
			daily_tip TEXT,
			tip_date TEXT,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Both note collections share one table, split by the collection column
		`CREATE TABLE IF NOT EXISTS user_notes (
			user_id TEXT NOT NULL,
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, collection, id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_user_notes_listing ON user_notes(user_id, collection, created_at)`,

		`CREATE OR REPLACE FUNCTION notify_user_notes_changed() RETURNS trigger AS $$
		BEGIN
			IF TG_OP = 'DELETE' THEN
				PERFORM pg_notify('user_notes_changed', OLD.user_id || '|' || OLD.collection);
				RETURN OLD;
			END IF;
			PERFORM pg_notify('user_notes_changed', NEW.user_id || '|' || NEW.collection);
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql`,

		`DROP TRIGGER IF EXISTS user_notes_changed ON user_notes`,

		`CREATE TRIGGER user_notes_changed
			AFTER INSERT OR UPDATE OR DELETE ON user_notes
			FOR EACH ROW EXECUTE FUNCTION notify_user_notes_changed()`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}
