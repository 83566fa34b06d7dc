// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checkpoint records which (term, window) pairs a harvesting pass
// has fully processed, so an interrupted pass resumes behind the last
// completed window instead of re-spending quota on finished work.
package checkpoint

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Ledger is the SQLite-backed completion record.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path and ensures the
// schema exists. The path ":memory:" opens a throwaway in-process ledger
// for dry runs.
func Open(path string) (*Ledger, error) {
	dsn := path + "?_journal_mode=WAL"
	if path == ":memory:" {
		dsn = "file::memory:?mode=memory&cache=shared"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS completed_windows (
		term TEXT NOT NULL,
		window TEXT NOT NULL,
		completed_at TEXT NOT NULL,
		PRIMARY KEY (term, window)
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating checkpoint schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Done reports whether the window has already been completed for the term.
func (l *Ledger) Done(term, window string) (bool, error) {
	var n int
	err := l.db.QueryRow(
		`SELECT COUNT(*) FROM completed_windows WHERE term = ? AND window = ?`,
		term, window,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying checkpoint: %w", err)
	}
	return n > 0, nil
}

// MarkDone records the window as completed for the term. Marking the same
// pair twice is harmless.
func (l *Ledger) MarkDone(term, window string) error {
	_, err := l.db.Exec(
		`INSERT OR REPLACE INTO completed_windows (term, window, completed_at) VALUES (?, ?, ?)`,
		term, window, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording checkpoint: %w", err)
	}
	return nil
}

// Completed returns every completed window for the term, oldest first.
func (l *Ledger) Completed(term string) ([]string, error) {
	rows, err := l.db.Query(
		`SELECT window FROM completed_windows WHERE term = ? ORDER BY completed_at`,
		term,
	)
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}
	defer rows.Close()

	var windows []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("reading checkpoint row: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}
