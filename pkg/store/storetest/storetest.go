// Package storetest holds the behavioural suite every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfahler/loadmasterbot/pkg/store"
)

// Clocked is implemented by stores whose time source can be replaced.
type Clocked interface {
	store.Store
	SetClock(now func() time.Time)
}

// Run exercises a store implementation. newStore must return a fresh, empty
// store for each call and register its own cleanup.
func Run(t *testing.T, newStore func(t *testing.T) Clocked) {
	t.Helper()

	open := func(t *testing.T) (Clocked, *clock) {
		s := newStore(t)
		c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
		s.SetClock(c.now)
		return s, c
	}

	t.Run("LastSubmissionEmpty", func(t *testing.T) {
		s, _ := open(t)
		_, err := s.LastSubmission(context.Background(), "u1", "g1")
		assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
	})

	t.Run("SubmissionRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		s, _ := open(t)

		sub := &store.Submission{SubmitterID: "u1", ContextID: "g1", Identifiers: []string{"2", "1"}, TotalSizeGB: 3.5}
		require.NoError(t, s.SaveSubmission(ctx, sub))
		assert.NotEqual(t, uuid.Nil, sub.ID)
		assert.False(t, sub.CreatedAt.IsZero())

		got, err := s.LastSubmission(ctx, "u1", "g1")
		require.NoError(t, err)
		assert.Equal(t, sub.ID, got.ID)
		assert.Equal(t, []string{"2", "1"}, got.Identifiers)
		assert.Equal(t, 3.5, got.TotalSizeGB)
		assert.WithinDuration(t, sub.CreatedAt, got.CreatedAt, time.Millisecond)
	})

	t.Run("LastSubmissionIsMostRecentPerPair", func(t *testing.T) {
		ctx := context.Background()
		s, c := open(t)

		require.NoError(t, s.SaveSubmission(ctx, &store.Submission{SubmitterID: "u1", ContextID: "g1", Identifiers: []string{"A"}}))
		c.advance(time.Minute)
		require.NoError(t, s.SaveSubmission(ctx, &store.Submission{SubmitterID: "u1", ContextID: "g1", Identifiers: []string{"B"}}))
		c.advance(time.Minute)
		require.NoError(t, s.SaveSubmission(ctx, &store.Submission{SubmitterID: "u1", ContextID: "g2", Identifiers: []string{"C"}}))
		require.NoError(t, s.SaveSubmission(ctx, &store.Submission{SubmitterID: "u2", ContextID: "g1", Identifiers: []string{"D"}}))

		got, err := s.LastSubmission(ctx, "u1", "g1")
		require.NoError(t, err)
		assert.Equal(t, []string{"B"}, got.Identifiers)

		got, err = s.LastSubmission(ctx, "u1", "g2")
		require.NoError(t, err)
		assert.Equal(t, []string{"C"}, got.Identifiers)
	})

	t.Run("EmptySubmission", func(t *testing.T) {
		ctx := context.Background()
		s, _ := open(t)
		require.NoError(t, s.SaveSubmission(ctx, &store.Submission{SubmitterID: "u", ContextID: "g"}))
		got, err := s.LastSubmission(ctx, "u", "g")
		require.NoError(t, err)
		assert.NotNil(t, got.Identifiers)
		assert.Empty(t, got.Identifiers)
	})

	t.Run("CachedMetadata", func(t *testing.T) {
		ctx := context.Background()
		s, _ := open(t)

		_, err := s.CachedMetadata(ctx, "42")
		assert.True(t, errors.Is(err, store.ErrNotFound))

		size := 2.25
		require.NoError(t, s.CacheMetadata(ctx, store.CachedItem{ID: "42", Name: "CBA_A3", SizeGB: &size}))
		require.NoError(t, s.CacheMetadata(ctx, store.CachedItem{ID: "43", Name: "Item 43"}))

		got, err := s.CachedMetadata(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, "CBA_A3", got.Name)
		require.NotNil(t, got.SizeGB)
		assert.Equal(t, 2.25, *got.SizeGB)
		assert.False(t, got.UpdatedAt.IsZero())

		got, err = s.CachedMetadata(ctx, "43")
		require.NoError(t, err)
		assert.Nil(t, got.SizeGB)

		require.NoError(t, s.CacheMetadata(ctx, store.CachedItem{ID: "42", Name: "CBA_A3 v2"}))
		got, err = s.CachedMetadata(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, "CBA_A3 v2", got.Name)
		assert.Nil(t, got.SizeGB, "replace drops the old size")
	})

	t.Run("Sizes", func(t *testing.T) {
		ctx := context.Background()
		s, _ := open(t)

		_, ok, err := s.Size(ctx, "7")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.SaveSize(ctx, "7", 1.2))
		require.NoError(t, s.SaveSize(ctx, "7", 0.8))
		gb, ok, err := s.Size(ctx, "7")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 0.8, gb)
	})

	t.Run("Cleanup", func(t *testing.T) {
		ctx := context.Background()
		s, c := open(t)

		require.NoError(t, s.CacheMetadata(ctx, store.CachedItem{ID: "old", Name: "Old"}))
		require.NoError(t, s.SaveSize(ctx, "old", 1))
		require.NoError(t, s.SaveSubmission(ctx, &store.Submission{SubmitterID: "u", ContextID: "g", Identifiers: []string{"old"}}))
		c.advance(31 * 24 * time.Hour)
		require.NoError(t, s.CacheMetadata(ctx, store.CachedItem{ID: "new", Name: "New"}))

		n, err := s.Cleanup(ctx, store.DefaultCleanupAge)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		_, err = s.CachedMetadata(ctx, "old")
		assert.True(t, errors.Is(err, store.ErrNotFound))
		_, ok, err := s.Size(ctx, "old")
		require.NoError(t, err)
		assert.False(t, ok)
		_, err = s.CachedMetadata(ctx, "new")
		assert.NoError(t, err)

		_, err = s.LastSubmission(ctx, "u", "g")
		assert.NoError(t, err, "submissions survive cleanup")
	})
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }
