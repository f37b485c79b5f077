// Package store defines the persistence collaborator used by the analysis
// pipeline: submission history per (submitter, context) pair, a long-lived
// metadata cache, and a size table.
//
// Three implementations exist: [MemoryStore] in this package, a SQLite store
// in store/sqlite (the CLI default) and a MongoDB store in store/mongo for
// shared deployments. All of them satisfy the same behavioural suite in
// store/storetest.
//
// The pipeline reads the last submission, computes a diff and then writes
// the new submission without any locking. Two concurrent analyses for the
// same pair may both diff against the same baseline; that is accepted.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultCleanupAge is how long cached metadata and sizes are kept by
// [Store.Cleanup] when the caller has no preference.
const DefaultCleanupAge = 30 * 24 * time.Hour

// ErrNotFound is returned when a lookup has no row.
var ErrNotFound = errors.New("store: not found")

// Submission is one analysed mod list.
type Submission struct {
	ID          uuid.UUID `json:"id" bson:"_id"`
	SubmitterID string    `json:"submitter_id" bson:"submitter_id"`
	ContextID   string    `json:"context_id" bson:"context_id"`
	Identifiers []string  `json:"identifiers" bson:"identifiers"`
	TotalSizeGB float64   `json:"total_size_gb" bson:"total_size_gb"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// CachedItem is the slim metadata record kept across runs.
type CachedItem struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	SizeGB    *float64  `json:"size_gb,omitempty" bson:"size_gb,omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Store persists submissions and item metadata.
type Store interface {
	// LastSubmission returns the most recent submission for the pair, or
	// ErrNotFound.
	LastSubmission(ctx context.Context, submitterID, contextID string) (*Submission, error)

	// SaveSubmission appends a submission. A zero ID is replaced with a new
	// random UUID and a zero CreatedAt with the current time.
	SaveSubmission(ctx context.Context, s *Submission) error

	// CachedMetadata returns the cached record for id, or ErrNotFound.
	CachedMetadata(ctx context.Context, id string) (*CachedItem, error)

	// CacheMetadata inserts or replaces the record for item.ID, stamping
	// UpdatedAt with the current time.
	CacheMetadata(ctx context.Context, item CachedItem) error

	// SaveSize records a size in gigabytes for id.
	SaveSize(ctx context.Context, id string, gb float64) error

	// Size returns the recorded size for id. ok is false when none exists.
	Size(ctx context.Context, id string) (gb float64, ok bool, err error)

	// Cleanup removes cached metadata and sizes older than maxAge and
	// reports how many records were deleted. Submissions are kept.
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)

	Close() error
}

// Prepare fills in the generated fields of s before it is written.
func Prepare(s *Submission, now time.Time) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now.UTC()
	}
	if s.Identifiers == nil {
		s.Identifiers = []string{}
	}
}
