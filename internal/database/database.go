package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
)

func NewConnection(connectStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connectStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	log.Println("Database connection established")
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS presentations (
	id          SERIAL PRIMARY KEY,
	filename    TEXT NOT NULL,
	source_path TEXT NOT NULL,
	checksum    TEXT NOT NULL DEFAULT '',
	slide_count INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS presentations_checksum_idx ON presentations (checksum) WHERE checksum <> '';
CREATE TABLE IF NOT EXISTS slide_contents (
	id              SERIAL PRIMARY KEY,
	presentation_id INTEGER NOT NULL REFERENCES presentations(id) ON DELETE CASCADE,
	slide_number    INTEGER NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	text_content    TEXT[] NOT NULL DEFAULT '{}',
	full_text       TEXT NOT NULL DEFAULT '',
	ai_summary      TEXT NOT NULL DEFAULT '',
	UNIQUE (presentation_id, slide_number)
);
`

// EnsureSchema creates the tables used by the repository when missing.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
