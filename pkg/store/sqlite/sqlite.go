// Package sqlite implements store.Store on a single SQLite file using
// github.com/mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jfahler/loadmasterbot/pkg/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS mod_cache (
	mod_id       TEXT PRIMARY KEY,
	mod_name     TEXT NOT NULL,
	mod_size     REAL,
	last_updated INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS user_uploads (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	user_id     TEXT NOT NULL,
	server_id   TEXT NOT NULL,
	upload_time INTEGER NOT NULL,
	mod_list    TEXT NOT NULL,
	total_size  REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS user_uploads_pair
	ON user_uploads (user_id, server_id, upload_time);

CREATE TABLE IF NOT EXISTS mod_sizes (
	mod_id       TEXT PRIMARY KEY,
	size_gb      REAL NOT NULL,
	last_updated INTEGER NOT NULL
);
`

// Store is a SQLite-backed store.Store.
type Store struct {
	db *sql.DB

	mu  sync.RWMutex
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the
// schema. The parent directory is created when missing.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("sqlite open %s: %w", path, err)
	}
	// One writer at a time; WAL still lets readers proceed.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// SetClock replaces the time source. Used by tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Store) clock() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

func (s *Store) LastSubmission(ctx context.Context, submitterID, contextID string) (*store.Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, upload_time, mod_list, total_size FROM user_uploads
		WHERE user_id = ? AND server_id = ?
		ORDER BY upload_time DESC, seq DESC
		LIMIT 1`, submitterID, contextID)

	var (
		id, list string
		created  int64
		total    float64
	)
	if err := row.Scan(&id, &created, &list, &total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	sub := &store.Submission{
		SubmitterID: submitterID,
		ContextID:   contextID,
		TotalSizeGB: total,
		CreatedAt:   time.Unix(0, created).UTC(),
	}
	var err error
	if sub.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("submission %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(list), &sub.Identifiers); err != nil {
		return nil, fmt.Errorf("submission %s: decode identifiers: %w", id, err)
	}
	return sub, nil
}

func (s *Store) SaveSubmission(ctx context.Context, sub *store.Submission) error {
	store.Prepare(sub, s.clock())
	list, err := json.Marshal(sub.Identifiers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_uploads (id, user_id, server_id, upload_time, mod_list, total_size)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sub.ID.String(), sub.SubmitterID, sub.ContextID, sub.CreatedAt.UnixNano(), string(list), sub.TotalSizeGB)
	return err
}

func (s *Store) CachedMetadata(ctx context.Context, id string) (*store.CachedItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT mod_name, mod_size, last_updated FROM mod_cache WHERE mod_id = ?`, id)

	var (
		name    string
		size    sql.NullFloat64
		updated int64
	)
	if err := row.Scan(&name, &size, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	item := &store.CachedItem{ID: id, Name: name, UpdatedAt: time.Unix(0, updated).UTC()}
	if size.Valid {
		v := size.Float64
		item.SizeGB = &v
	}
	return item, nil
}

func (s *Store) CacheMetadata(ctx context.Context, item store.CachedItem) error {
	var size sql.NullFloat64
	if item.SizeGB != nil {
		size = sql.NullFloat64{Float64: *item.SizeGB, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO mod_cache (mod_id, mod_name, mod_size, last_updated)
		VALUES (?, ?, ?, ?)`, item.ID, item.Name, size, s.clock().UnixNano())
	return err
}

func (s *Store) SaveSize(ctx context.Context, id string, gb float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO mod_sizes (mod_id, size_gb, last_updated)
		VALUES (?, ?, ?)`, id, gb, s.clock().UnixNano())
	return err
}

func (s *Store) Size(ctx context.Context, id string) (float64, bool, error) {
	var gb float64
	err := s.db.QueryRowContext(ctx, `SELECT size_gb FROM mod_sizes WHERE mod_id = ?`, id).Scan(&gb)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return gb, true, nil
}

func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := s.clock().Add(-maxAge).UnixNano()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	total := 0
	for _, q := range []string{
		`DELETE FROM mod_cache WHERE last_updated < ?`,
		`DELETE FROM mod_sizes WHERE last_updated < ?`,
	} {
		res, err := tx.ExecContext(ctx, q, cutoff)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ store.Store = (*Store)(nil)
