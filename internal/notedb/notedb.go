// Package notedb provides the SQLite-backed clinical note store.
package notedb

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/ashwell/soapnote/internal/apperr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS clinical_notes (
	note_id        INTEGER PRIMARY KEY AUTOINCREMENT,
	patient_id     TEXT NOT NULL,
	physician_name TEXT NOT NULL,
	language       TEXT NOT NULL,
	timestamp      DATETIME NOT NULL,
	subjective     TEXT NOT NULL DEFAULT '[]',
	objective      TEXT NOT NULL DEFAULT '[]',
	assessment     TEXT NOT NULL DEFAULT '[]',
	plan           TEXT NOT NULL DEFAULT '[]',
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS audio_recordings (
	audio_id     INTEGER PRIMARY KEY AUTOINCREMENT,
	note_id      INTEGER NOT NULL REFERENCES clinical_notes(note_id) ON DELETE CASCADE,
	audio_data   BLOB NOT NULL,
	audio_format TEXT NOT NULL DEFAULT 'wav',
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notes_patient   ON clinical_notes(patient_id);
CREATE INDEX IF NOT EXISTS idx_notes_physician ON clinical_notes(physician_name);
CREATE INDEX IF NOT EXISTS idx_notes_timestamp ON clinical_notes(timestamp);
CREATE INDEX IF NOT EXISTS idx_audio_note      ON audio_recordings(note_id);
`

// DB wraps a sql.DB with note-store operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("notedb: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("notedb: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("notedb: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// wrapBusy maps SQLite lock contention onto the retryable apperr.ErrBusy
// sentinel; other errors pass through unchanged.
func wrapBusy(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("notedb: %w: %v", apperr.ErrBusy, err)
	}
	return err
}
