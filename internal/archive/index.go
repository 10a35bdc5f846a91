package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Index records archive runs in a small sqlite database so the archive
// gate survives daemon restarts.
type Index struct {
	db *sql.DB
}

// OpenIndex opens (or creates) the archive index at path.
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive index: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set index journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set index busy timeout: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS archive_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	archived_at TEXT NOT NULL,
	bundle TEXT NOT NULL DEFAULT '',
	file_count INTEGER NOT NULL DEFAULT 0
)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize archive index schema: %w", err)
	}

	return &Index{db: db}, nil
}

func (i *Index) Close() error {
	if i == nil || i.db == nil {
		return nil
	}
	return i.db.Close()
}

// RecordRun appends a completed archive run.
func (i *Index) RecordRun(ctx context.Context, at time.Time, bundle string, files int) error {
	_, err := i.db.ExecContext(ctx,
		`INSERT INTO archive_runs (archived_at, bundle, file_count) VALUES (?, ?, ?)`,
		at.UTC().Format(time.RFC3339Nano), bundle, files)
	if err != nil {
		return fmt.Errorf("record archive run: %w", err)
	}
	return nil
}

// LastRun returns the most recent archive time, zero when none exists.
func (i *Index) LastRun(ctx context.Context) (time.Time, error) {
	var raw string
	err := i.db.QueryRowContext(ctx,
		`SELECT archived_at FROM archive_runs ORDER BY archived_at DESC LIMIT 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query last archive run: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse archived_at %q: %w", raw, err)
	}
	return t, nil
}
