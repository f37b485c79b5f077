// Package enrich fans workshop metadata fetches out over a bounded pool.
//
// Enrichment never fails as a whole: every identifier gets an entry, either
// the fetched metadata or a placeholder tagged with the reason the fetch
// failed. Callers that need a deadline wrap ctx and check ctx.Err() after
// [Enricher.Enrich] returns.
package enrich

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/jfahler/loadmasterbot/pkg/mod"
	"github.com/jfahler/loadmasterbot/pkg/modlist"
	"github.com/jfahler/loadmasterbot/pkg/observability"
)

// DefaultConcurrency is the fetch pool size used by the CLI and server
// when none is configured.
const DefaultConcurrency = 16

// Fetcher retrieves metadata for one workshop item. If refresh is true,
// cached data is bypassed.
type Fetcher interface {
	FetchItem(ctx context.Context, id string, refresh bool) (*mod.Metadata, error)
}

// Options configures an Enricher.
type Options struct {
	// Concurrency caps in-flight fetches. Zero or negative means unbounded.
	Concurrency int

	// Refresh bypasses cached metadata.
	Refresh bool

	// BaseURL prefixes placeholder URLs (the id is appended).
	BaseURL string

	// Sizes supplies placeholder sizes from the static table. Optional.
	Sizes mod.SizeLookup

	// Logger receives one warning per failed fetch. Nil discards.
	Logger *log.Logger
}

// Enricher runs fetches for a batch of identifiers.
type Enricher struct {
	fetcher Fetcher
	opts    Options
}

// New creates an Enricher.
func New(f Fetcher, opts Options) *Enricher {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Enricher{fetcher: f, opts: opts}
}

// Enrich fetches every identifier and returns one item per distinct id.
// Completion order is irrelevant; the map is assembled after all fetches
// settle.
func (e *Enricher) Enrich(ctx context.Context, ids []string) map[string]mod.Item {
	ids = modlist.Dedupe(ids)
	items := make(map[string]mod.Item, len(ids))
	if len(ids) == 0 {
		return items
	}

	var mu sync.Mutex
	var g errgroup.Group
	if e.opts.Concurrency > 0 {
		g.SetLimit(e.opts.Concurrency)
	}

	for _, id := range ids {
		id := id
		g.Go(func() error {
			start := time.Now()
			item := e.fetchOne(ctx, id)
			observability.Analysis().OnItemEnriched(ctx, id, item.IsFallback(), time.Since(start))

			mu.Lock()
			items[id] = item
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	_, fallback := Counts(items)
	e.opts.Logger.Info("enriched items", "count", len(items), "fallback", fallback)
	return items
}

// fetchOne never fails: errors, empty results and panics in the fetcher all
// become placeholders.
func (e *Enricher) fetchOne(ctx context.Context, id string) (item mod.Item) {
	defer func() {
		if r := recover(); r != nil {
			item = e.placeholder(id, fmt.Sprintf("fetch panicked: %v", r))
		}
	}()

	meta, err := e.fetcher.FetchItem(ctx, id, e.opts.Refresh)
	switch {
	case err != nil:
		return e.placeholder(id, err.Error())
	case meta == nil:
		return e.placeholder(id, "no metadata returned")
	}
	return mod.OK(*meta)
}

func (e *Enricher) placeholder(id, reason string) mod.Item {
	e.opts.Logger.Warn("workshop fetch failed, using placeholder", "id", id, "reason", reason)
	return mod.Fallback(mod.Placeholder(id, e.opts.BaseURL, e.opts.Sizes), reason)
}

// Counts returns how many items are genuine and how many are placeholders.
func Counts(items map[string]mod.Item) (ok, fallback int) {
	for _, it := range items {
		if it.IsFallback() {
			fallback++
		} else {
			ok++
		}
	}
	return ok, fallback
}
