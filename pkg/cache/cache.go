// Package cache provides the key/value stores that back metadata caching.
//
// Every backend implements [Cache]: opaque byte values, a per-entry TTL, and
// context-aware operations. Backends are safe for concurrent use; concurrent
// writers for the same key race with last-write-wins semantics, which is
// acceptable because every writer stores an equivalent value for a given
// workshop item within one TTL window.
//
// Backends:
//   - [MemoryCache]: in-process map, expired entries evicted lazily on read
//   - [FileCache]: one JSON file per key, shared between CLI runs
//   - [RedisCache]: shared between API server replicas
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// Default TTLs for cached values.
const (
	// TTLItem is how long scraped workshop metadata stays fresh.
	TTLItem = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiration.
type Cache interface {
	// Get returns the value for key. hit is false when the key is absent or
	// expired; an error is reserved for backend failures.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl <= 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Pruner is implemented by backends that can drop expired entries on demand.
// Redis expires keys itself and does not implement it.
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}
