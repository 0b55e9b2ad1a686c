// Package answers persists per-client decision answers in SQLite.
//
// Each client owns one answer map keyed by decision id, plus a version
// stamp that increments on every save. Saves run inside a transaction,
// so concurrent writes for the same client serialize; callers that read
// before writing can additionally pass the version they read and have a
// stale write rejected instead of silently overwritten.
package answers

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrStaleVersion is returned when a save presents a base version that
// no longer matches the client's current version.
var ErrStaleVersion = errors.New("answers: stale base version")

// NoVersionCheck disables the optimistic version check on save.
const NoVersionCheck = -1

// Answer is one saved decision answer for one client.
type Answer struct {
	SelectedOutcome string `json:"selected_outcome"`
	Rationale       string `json:"rationale,omitempty"`
	UpdatedAt       string `json:"updated_at"`
}

// Config holds store configuration.
type Config struct {
	DataDir string
}

// DefaultConfig stores under ~/.batchflow.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".batchflow")}
}

// Store is the SQLite-backed answer store.
type Store struct {
	db *sql.DB
}

// Open creates the data directory if needed, opens the database with
// WAL mode, and runs the schema bootstrap.
func Open(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("answers: create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(cfg.DataDir, "answers.db"))
	if err != nil {
		return nil, fmt.Errorf("answers: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("answers: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("answers: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS clients (
			name       TEXT PRIMARY KEY,
			version    INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS answers (
			client      TEXT NOT NULL,
			decision_id TEXT NOT NULL,
			outcome     TEXT NOT NULL,
			rationale   TEXT,
			created_at  TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at  TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (client, decision_id),
			FOREIGN KEY (client) REFERENCES clients(name)
		);

		CREATE INDEX IF NOT EXISTS idx_answers_client ON answers(client);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save upserts one answer for a client and bumps the client's version.
// baseVersion is the version the caller read before editing;
// NoVersionCheck skips the check. Answers are never deleted — a client
// amends its map in place, one decision at a time.
func (s *Store) Save(client, decisionID, outcome, rationale string, baseVersion int64) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("answers: begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)

	var current int64
	err = tx.QueryRow(`SELECT version FROM clients WHERE name = ?`, client).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.Exec(
			`INSERT INTO clients (name, version, updated_at) VALUES (?, 0, ?)`,
			client, now,
		); err != nil {
			return 0, fmt.Errorf("answers: create client %q: %w", client, err)
		}
		current = 0
	case err != nil:
		return 0, fmt.Errorf("answers: read client %q: %w", client, err)
	}

	if baseVersion != NoVersionCheck && baseVersion != current {
		return current, fmt.Errorf("%w: have %d, current is %d", ErrStaleVersion, baseVersion, current)
	}

	if _, err := tx.Exec(`
		INSERT INTO answers (client, decision_id, outcome, rationale, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (client, decision_id) DO UPDATE SET
			outcome    = excluded.outcome,
			rationale  = excluded.rationale,
			updated_at = excluded.updated_at
	`, client, decisionID, outcome, rationale, now, now); err != nil {
		return 0, fmt.Errorf("answers: save %q/%q: %w", client, decisionID, err)
	}

	next := current + 1
	if _, err := tx.Exec(
		`UPDATE clients SET version = ?, updated_at = ? WHERE name = ?`,
		next, now, client,
	); err != nil {
		return 0, fmt.Errorf("answers: bump version for %q: %w", client, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("answers: commit save: %w", err)
	}
	return next, nil
}

// List returns the client's full answer map and current version. An
// unknown client yields an empty map and version 0, not an error.
func (s *Store) List(client string) (map[string]Answer, int64, error) {
	var version int64
	err := s.db.QueryRow(`SELECT version FROM clients WHERE name = ?`, client).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return nil, 0, fmt.Errorf("answers: read client %q: %w", client, err)
	}

	rows, err := s.db.Query(`
		SELECT decision_id, outcome, COALESCE(rationale, ''), updated_at
		FROM answers WHERE client = ?
		ORDER BY decision_id
	`, client)
	if err != nil {
		return nil, 0, fmt.Errorf("answers: list for %q: %w", client, err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]Answer)
	for rows.Next() {
		var id string
		var a Answer
		if err := rows.Scan(&id, &a.SelectedOutcome, &a.Rationale, &a.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("answers: scan row: %w", err)
		}
		out[id] = a
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("answers: iterate rows: %w", err)
	}
	return out, version, nil
}

// Outcomes flattens the answer map to decision id -> selected outcome,
// the shape the workflow core consumes.
func (s *Store) Outcomes(client string) (map[string]string, int64, error) {
	full, version, err := s.List(client)
	if err != nil {
		return nil, 0, err
	}
	out := make(map[string]string, len(full))
	for id, a := range full {
		out[id] = a.SelectedOutcome
	}
	return out, version, nil
}
