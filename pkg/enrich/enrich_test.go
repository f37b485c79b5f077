package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfahler/loadmasterbot/pkg/catalog"
	"github.com/jfahler/loadmasterbot/pkg/mod"
)

type fetchFunc func(ctx context.Context, id string, refresh bool) (*mod.Metadata, error)

func (f fetchFunc) FetchItem(ctx context.Context, id string, refresh bool) (*mod.Metadata, error) {
	return f(ctx, id, refresh)
}

func quiet() *log.Logger { return log.New(io.Discard) }

func failing() Fetcher {
	return fetchFunc(func(context.Context, string, bool) (*mod.Metadata, error) {
		return nil, errors.New("status 503")
	})
}

func TestEnrichAllFail(t *testing.T) {
	e := New(failing(), Options{Concurrency: 4, Sizes: catalog.Default(), Logger: quiet()})
	ids := []string{"111111111", "222222222", "333333333"}

	items := e.Enrich(context.Background(), ids)

	require.Len(t, items, 3)
	for _, id := range ids {
		it, ok := items[id]
		require.True(t, ok, "missing %s", id)
		assert.Equal(t, "Item "+id, it.Name)
		assert.Nil(t, it.SizeGB)
		assert.True(t, it.IsFallback())
		assert.Equal(t, "status 503", it.Reason)
	}
}

func TestEnrichTotalUnderFailure(t *testing.T) {
	for _, n := range []int{0, 1, 7, 64} {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("%09d", i)
		}
		for _, limit := range []int{-1, 0, 1, 3} {
			items := New(failing(), Options{Concurrency: limit, Logger: quiet()}).Enrich(context.Background(), ids)
			assert.Len(t, items, n, "n=%d limit=%d", n, limit)
		}
	}
}

func TestEnrichMixed(t *testing.T) {
	f := fetchFunc(func(_ context.Context, id string, _ bool) (*mod.Metadata, error) {
		switch id {
		case "1":
			return &mod.Metadata{ID: "1", Name: "CBA_A3", SizeGB: mod.Float(0.1)}, nil
		case "2":
			return nil, nil
		case "3":
			panic("boom")
		}
		return nil, errors.New("not found")
	})
	e := New(f, Options{BaseURL: "https://example.test/?id=", Sizes: catalog.Default(), Logger: quiet()})

	items := e.Enrich(context.Background(), []string{"1", "2", "3", "123456789", "1"})
	require.Len(t, items, 4, "duplicates collapse")

	assert.False(t, items["1"].IsFallback())
	assert.Equal(t, "CBA_A3", items["1"].Name)

	assert.Equal(t, "no metadata returned", items["2"].Reason)
	assert.Contains(t, items["3"].Reason, "panicked")
	assert.Equal(t, "https://example.test/?id=3", items["3"].URL)

	// Placeholders take their size from the static table.
	require.NotNil(t, items["123456789"].SizeGB)
	assert.Equal(t, 1.2, *items["123456789"].SizeGB)

	ok, fallback := Counts(items)
	assert.Equal(t, 1, ok)
	assert.Equal(t, 3, fallback)
}

func TestEnrichRespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	f := fetchFunc(func(_ context.Context, id string, _ bool) (*mod.Metadata, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return &mod.Metadata{ID: id, Name: id}, nil
	})

	ids := make([]string, 20)
	for i := range ids {
		ids[i] = fmt.Sprint(i)
	}
	items := New(f, Options{Concurrency: 3, Logger: quiet()}).Enrich(context.Background(), ids)

	assert.Len(t, items, 20)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestEnrichPassesRefresh(t *testing.T) {
	var mu sync.Mutex
	seen := map[bool]int{}
	f := fetchFunc(func(_ context.Context, id string, refresh bool) (*mod.Metadata, error) {
		mu.Lock()
		seen[refresh]++
		mu.Unlock()
		return &mod.Metadata{ID: id, Name: id}, nil
	})

	New(f, Options{Refresh: true, Logger: quiet()}).Enrich(context.Background(), []string{"a", "b"})
	assert.Equal(t, 2, seen[true])
	assert.Zero(t, seen[false])
}

func TestEnrichCancelledContext(t *testing.T) {
	f := fetchFunc(func(ctx context.Context, id string, _ bool) (*mod.Metadata, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	items := New(f, Options{Logger: quiet()}).Enrich(ctx, []string{"1", "2"})
	assert.Len(t, items, 2)
	assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
}

func TestNewDiscardsLogsByDefault(t *testing.T) {
	e := New(failing(), Options{})
	require.NotNil(t, e.opts.Logger)
	assert.NotSame(t, log.Default(), e.opts.Logger)
}
