// Package snapshots persists compiled workflow graphs per client.
//
// A snapshot is an opaque record of one compile call: the Mermaid
// source, the stage filter, the answer version the compile saw, and
// counts for quick inspection. The core never reads snapshots back
// into compilation — they exist for callers that want the last saved
// rendering without recompiling.
package snapshots

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no snapshot matches the query.
var ErrNotFound = errors.New("snapshots: not found")

// Snapshot is one saved compiled workflow.
type Snapshot struct {
	ID            string `json:"id"`
	Client        string `json:"client"`
	Stage         string `json:"stage,omitempty"`
	AnswerVersion int64  `json:"answer_version"`
	Mermaid       string `json:"mermaid"`
	NodeCount     int    `json:"node_count"`
	EdgeCount     int    `json:"edge_count"`
	CreatedAt     string `json:"created_at"`
}

// Config holds store configuration.
type Config struct {
	DataDir string
}

// Store is the SQLite-backed snapshot store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the snapshot database.
func Open(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("snapshots: create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(cfg.DataDir, "snapshots.db"))
	if err != nil {
		return nil, fmt.Errorf("snapshots: open database: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("snapshots: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("snapshots: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			id             TEXT PRIMARY KEY,
			client         TEXT    NOT NULL,
			stage          TEXT    NOT NULL DEFAULT '',
			answer_version INTEGER NOT NULL,
			mermaid        TEXT    NOT NULL,
			node_count     INTEGER NOT NULL,
			edge_count     INTEGER NOT NULL,
			created_at     TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_snap_client ON snapshots(client, created_at DESC);
	`)
	return err
}

// Save stores a new snapshot and returns it with id and timestamp set.
func (s *Store) Save(snap Snapshot) (Snapshot, error) {
	snap.ID = uuid.NewString()
	snap.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.Exec(`
		INSERT INTO snapshots (id, client, stage, answer_version, mermaid, node_count, edge_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.Client, snap.Stage, snap.AnswerVersion, snap.Mermaid, snap.NodeCount, snap.EdgeCount, snap.CreatedAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshots: save for %q: %w", snap.Client, err)
	}
	return snap, nil
}

// Latest returns the newest snapshot for a client.
func (s *Store) Latest(client string) (Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT id, client, stage, answer_version, mermaid, node_count, edge_count, created_at
		FROM snapshots WHERE client = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1
	`, client)
	return scanSnapshot(row)
}

// Get returns one snapshot by id.
func (s *Store) Get(id string) (Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT id, client, stage, answer_version, mermaid, node_count, edge_count, created_at
		FROM snapshots WHERE id = ?
	`, id)
	return scanSnapshot(row)
}

func scanSnapshot(row *sql.Row) (Snapshot, error) {
	var snap Snapshot
	err := row.Scan(&snap.ID, &snap.Client, &snap.Stage, &snap.AnswerVersion,
		&snap.Mermaid, &snap.NodeCount, &snap.EdgeCount, &snap.CreatedAt)
	if err == sql.ErrNoRows {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshots: scan: %w", err)
	}
	return snap, nil
}
