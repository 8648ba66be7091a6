// Package store persists completed analyses in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultFileName is the database file created under the data directory.
const DefaultFileName = "history.db"

// DefaultKeep is the number of records retained by Prune.
const DefaultKeep = 500

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history store is closed")

// Record is one analysis attempt. Error is empty when the analysis
// succeeded.
type Record struct {
	ID         int64
	CreatedAt  time.Time
	Model      string
	Prompt     string
	Result     string
	Error      string
	ImageCount int
}

// Failed reports whether the analysis returned an error.
func (r Record) Failed() bool { return r.Error != "" }

// Store wraps the history database.
type Store struct {
	db     *sql.DB
	closed atomic.Bool
}

// Open opens or creates the database at path and applies pending
// migrations. ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history database path is required")
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("[DEBUG-STORE] history db opened", "path", path)
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// Add inserts rec and returns its row id. A zero CreatedAt is stamped with
// the current time.
func (s *Store) Add(ctx context.Context, rec Record) (int64, error) {
	if s == nil || s.closed.Load() {
		return 0, ErrClosed
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (created_at, model, prompt, result, error, image_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.CreatedAt.UnixMilli(), rec.Model, rec.Prompt, rec.Result, rec.Error, rec.ImageCount,
	)
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	return id, nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if s == nil || s.closed.Load() {
		return nil, ErrClosed
	}
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, model, prompt, result, error, image_count
		 FROM analyses ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var createdMS int64
		if err := rows.Scan(&rec.ID, &createdMS, &rec.Model, &rec.Prompt, &rec.Result, &rec.Error, &rec.ImageCount); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		rec.CreatedAt = time.UnixMilli(createdMS)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s == nil || s.closed.Load() {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count analyses: %w", err)
	}
	return n, nil
}

// Prune deletes everything except the newest keep records and returns the
// number removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if s == nil || s.closed.Load() {
		return 0, ErrClosed
	}
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM analyses WHERE id NOT IN (
		   SELECT id FROM analyses ORDER BY created_at DESC, id DESC LIMIT ?
		 )`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune analyses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune analyses: %w", err)
	}
	return n, nil
}
