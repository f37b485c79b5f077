package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache stores one JSON envelope per key under dir, fanned out into
// two-character subdirectories of the key digest. It is the CLI default, so
// workshop pages scraped by one run are reused by the next.
//
// Writes land in a temp file that is renamed into place; concurrent
// enrichment workers never see a partial entry.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache creates dir if needed and returns a cache rooted there.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

type fileEntry struct {
	Data      []byte    `json:"data"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func (e fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// readEntry decodes the envelope at path. Unreadable or corrupt files are
// removed and reported as absent.
func readEntry(path string) (fileEntry, bool, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileEntry{}, false, nil
	}
	if err != nil {
		return fileEntry{}, false, err
	}
	var e fileEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		_ = os.Remove(path)
		return fileEntry{}, false, nil
	}
	return e, true, nil
}

func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	e, ok, err := readEntry(path)
	if !ok || err != nil {
		return nil, false, err
	}
	if e.expired(c.now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Data, true, nil
}

func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := c.now()
	e := fileEntry{Data: data, StoredAt: now}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	path := c.path(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Prune deletes expired and corrupt entries and returns how many files were
// removed.
func (c *FileCache) Prune(ctx context.Context) (int, error) {
	now := c.now()
	return c.sweep(ctx, func(path string) bool {
		e, ok, err := readEntry(path)
		return err == nil && (!ok || e.expired(now))
	})
}

// Clear deletes every entry and returns how many were removed.
func (c *FileCache) Clear(ctx context.Context) (int, error) {
	return c.sweep(ctx, func(string) bool { return true })
}

// sweep visits every entry file and removes those for which drop reports
// true. Empty fan-out directories are removed afterwards.
func (c *FileCache) sweep(ctx context.Context, drop func(path string) bool) (int, error) {
	n := 0
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		if !drop(path) {
			return nil
		}
		// readEntry may already have removed a corrupt file.
		if err := os.Remove(path); err == nil || errors.Is(err, fs.ErrNotExist) {
			n++
		}
		return nil
	})
	if err != nil {
		return n, err
	}

	subdirs, _ := os.ReadDir(c.dir)
	for _, d := range subdirs {
		if d.IsDir() {
			_ = os.Remove(filepath.Join(c.dir, d.Name())) // fails unless empty
		}
	}
	return n, nil
}

// Close is a no-op.
func (c *FileCache) Close() error { return nil }

func (c *FileCache) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	digest := hex.EncodeToString(sum[:])
	return filepath.Join(c.dir, digest[:2], digest[2:]+".json")
}

var (
	_ Cache  = (*FileCache)(nil)
	_ Pruner = (*FileCache)(nil)
)
