// Package history records the live topology before each profile load so the
// load can be undone.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	// DefaultKeep is how many snapshots Prune retains unless configured.
	DefaultKeep = 20

	defaultBusyTimeout = 5 * time.Second
)

// ErrNoSnapshots is returned by Latest on an empty history.
var ErrNoSnapshots = errors.New("no snapshots recorded")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS snapshots (
		id         TEXT PRIMARY KEY,
		profile    TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		blob       BLOB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS snapshots_created_at ON snapshots (created_at)`,
}

// Snapshot is one recorded topology, encoded with the profile codec.
type Snapshot struct {
	ID        string
	Profile   string
	CreatedAt time.Time
	Blob      []byte
}

// DB is a sqlite-backed snapshot history.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath returns ~/.local/share/monswitch/history.db, honouring
// XDG_DATA_HOME.
func DefaultPath() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "monswitch", "history.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "monswitch", "history.db"), nil
}

// Open opens (creating if needed) the history database at path.
func Open(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("history: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", int(defaultBusyTimeout.Milliseconds())),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: apply pragma %q: %w", pragma, err)
		}
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: apply schema: %w", err)
		}
	}
	return &DB{db: db, now: time.Now}, nil
}

// Close releases the database.
func (h *DB) Close() error {
	return h.db.Close()
}

// Record stores blob as the topology that was live before loading profile.
func (h *DB) Record(ctx context.Context, profile string, blob []byte) (string, error) {
	id := uuid.NewString()
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, profile, created_at, blob) VALUES (?, ?, ?, ?)`,
		id, profile, h.now().UnixNano(), blob)
	if err != nil {
		return "", fmt.Errorf("history: record snapshot: %w", err)
	}
	return id, nil
}

// Latest returns the most recent snapshot.
func (h *DB) Latest(ctx context.Context) (Snapshot, error) {
	row := h.db.QueryRowContext(ctx,
		`SELECT id, profile, created_at, blob FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshots
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("history: latest snapshot: %w", err)
	}
	return s, nil
}

// List returns up to limit snapshots, newest first. A limit <= 0 returns
// all of them.
func (h *DB) List(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, profile, created_at, blob FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("history: scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list snapshots: %w", err)
	}
	return out, nil
}

// Delete removes a snapshot. Deleting an unknown id is not an error.
func (h *DB) Delete(ctx context.Context, id string) error {
	if _, err := h.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("history: delete snapshot %s: %w", id, err)
	}
	return nil
}

// Prune keeps the newest keep snapshots and deletes the rest, returning the
// number removed.
func (h *DB) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := h.db.ExecContext(ctx, `
DELETE FROM snapshots WHERE id NOT IN (
	SELECT id FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?
)`, keep)
	if err != nil {
		return 0, fmt.Errorf("history: prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history: prune snapshots: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(s scanner) (Snapshot, error) {
	var (
		snap    Snapshot
		created int64
	)
	if err := s.Scan(&snap.ID, &snap.Profile, &created, &snap.Blob); err != nil {
		return Snapshot{}, err
	}
	snap.CreatedAt = time.Unix(0, created)
	return snap, nil
}
