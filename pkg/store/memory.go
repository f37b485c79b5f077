package store

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps everything in process memory. It backs tests and the
// "memory" store driver for throwaway runs.
type MemoryStore struct {
	mu          sync.RWMutex
	submissions []Submission
	items       map[string]CachedItem
	sizes       map[string]sizeRow
	now         func() time.Time
}

type sizeRow struct {
	gb        float64
	updatedAt time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]CachedItem),
		sizes: make(map[string]sizeRow),
		now:   time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *MemoryStore) LastSubmission(ctx context.Context, submitterID, contextID string) (*Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	best := -1
	for i, s := range m.submissions {
		if s.SubmitterID != submitterID || s.ContextID != contextID {
			continue
		}
		// Later appends win ties on CreatedAt.
		if best < 0 || !s.CreatedAt.Before(m.submissions[best].CreatedAt) {
			best = i
		}
	}
	if best >= 0 {
		out := m.submissions[best]
		out.Identifiers = slices.Clone(out.Identifiers)
		return &out, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) SaveSubmission(ctx context.Context, s *Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	Prepare(s, m.now())
	cp := *s
	cp.Identifiers = slices.Clone(s.Identifiers)
	m.submissions = append(m.submissions, cp)
	return nil
}

func (m *MemoryStore) CachedMetadata(ctx context.Context, id string) (*CachedItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if it.SizeGB != nil {
		v := *it.SizeGB
		it.SizeGB = &v
	}
	return &it, nil
}

func (m *MemoryStore) CacheMetadata(ctx context.Context, item CachedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.UpdatedAt = m.now().UTC()
	if item.SizeGB != nil {
		v := *item.SizeGB
		item.SizeGB = &v
	}
	m.items[item.ID] = item
	return nil
}

func (m *MemoryStore) SaveSize(ctx context.Context, id string, gb float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sizes[id] = sizeRow{gb: gb, updatedAt: m.now().UTC()}
	return nil
}

func (m *MemoryStore) Size(ctx context.Context, id string) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.sizes[id]
	return row.gb, ok, nil
}

func (m *MemoryStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-maxAge)
	n := 0
	for id, it := range m.items {
		if it.UpdatedAt.Before(cutoff) {
			delete(m.items, id)
			n++
		}
	}
	for id, row := range m.sizes {
		if row.updatedAt.Before(cutoff) {
			delete(m.sizes, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
