package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process Cache keyed by string.
//
// Each entry remembers when it was inserted and its TTL. Expired entries are
// not swept by a background goroutine; they are evicted lazily when a read
// finds them stale, or in bulk by [MemoryCache.Prune].
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
	closed  bool
}

type memoryEntry struct {
	data       []byte
	insertedAt time.Time
	ttl        time.Duration
}

func (e memoryEntry) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.insertedAt) >= e.ttl
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns a copy of the value stored under key if it has not expired.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, false, ErrClosed
	}
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if e.expired(c.now()) {
		c.evict(key)
		return nil, false, nil
	}
	return append([]byte(nil), e.data...), true, nil
}

// evict removes key if it is still expired. A concurrent Set may have
// refreshed it between the read and the write lock.
func (c *MemoryCache) evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && e.expired(c.now()) {
		delete(c.entries, key)
	}
}

// Set stores a copy of data under key.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.entries[key] = memoryEntry{
		data:       append([]byte(nil), data...),
		insertedAt: c.now(),
		ttl:        ttl,
	}
	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Prune drops every expired entry and returns how many were removed.
func (c *MemoryCache) Prune(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, including expired ones that
// have not been evicted yet.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close drops all entries. Further use returns ErrClosed.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
	c.closed = true
	return nil
}

var (
	_ Cache  = (*MemoryCache)(nil)
	_ Pruner = (*MemoryCache)(nil)
)
