package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jfahler/loadmasterbot/pkg/analysis"
	"github.com/jfahler/loadmasterbot/pkg/catalog"
	"github.com/jfahler/loadmasterbot/pkg/enrich"
	errs "github.com/jfahler/loadmasterbot/pkg/errors"
	"github.com/jfahler/loadmasterbot/pkg/integrations"
	"github.com/jfahler/loadmasterbot/pkg/integrations/workshop"
	"github.com/jfahler/loadmasterbot/pkg/mod"
	"github.com/jfahler/loadmasterbot/pkg/modlist"
	"github.com/jfahler/loadmasterbot/pkg/observability"
	"github.com/jfahler/loadmasterbot/pkg/store"
)

// Runner encapsulates analysis execution.
// Both CLI and API use it to avoid duplicating history and timeout logic.
//
// The Runner is stateless except for its collaborators - it doesn't keep
// results. Multiple goroutines can safely use the same Runner.
type Runner struct {
	Fetcher enrich.Fetcher
	Store   store.Store
	Catalog *catalog.Catalog
	BaseURL string // prefix for placeholder item URLs
	Logger  *log.Logger
}

// NewRunner creates a runner around a metadata fetcher and a store.
// If st is nil, an in-memory store is used (history lasts for the process).
// The catalog defaults to the embedded one.
func NewRunner(f enrich.Fetcher, st store.Store, logger *log.Logger) *Runner {
	if st == nil {
		st = store.NewMemoryStore()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Fetcher: f,
		Store:   st,
		Catalog: catalog.Default(),
		BaseURL: workshop.DefaultBaseURL,
		Logger:  logger,
	}
}

// Analyze runs one complete analysis.
func (r *Runner) Analyze(ctx context.Context, opts Options) (result *Result, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	// Stage 1: Extract
	ids := modlist.Parse(opts.Document)
	if ids == nil {
		ids = []string{}
	}
	extractTime := time.Since(start)
	logger.Info("extracted identifiers", "count", len(ids), "duration", extractTime)

	hooks := observability.Analysis()
	hooks.OnAnalysisStart(ctx, len(ids))
	defer func() {
		hooks.OnAnalysisComplete(ctx, len(ids), time.Since(start), err)
	}()

	// Stage 2: Enrich
	enrichStart := time.Now()
	enricher := enrich.New(r.Fetcher, enrich.Options{
		Concurrency: opts.Concurrency,
		Refresh:     opts.Refresh,
		BaseURL:     r.BaseURL,
		Sizes:       r.Catalog,
		Logger:      logger,
	})
	items := enricher.Enrich(ctx, ids)
	if err := deadline(ctx); err != nil {
		return nil, err
	}
	_, fallback := enrich.Counts(items)

	// Stage 3: Analyse
	result = &Result{
		Identifiers:   ids,
		Items:         items,
		Compatibility: analysis.CheckCompatibility(ids, items, r.Catalog, opts.Rule),
		Requirements:  analysis.CheckRequirements(items),
		Size:          analysis.EstimateSize(items),
		Categories:    analysis.Categorize(items),
		TotalItems:    len(ids),
		FallbackCount: fallback,
	}
	result.Stats.ExtractTime = extractTime
	result.Stats.EnrichTime = time.Since(enrichStart)

	// Stage 4: History
	if opts.Tracked() {
		if err := r.recordHistory(ctx, opts, result); err != nil {
			return nil, err
		}
	}
	r.cacheItems(ctx, logger, items)

	if err := deadline(ctx); err != nil {
		return nil, err
	}
	result.Stats.TotalTime = time.Since(start)

	logger.Info("analysis complete",
		"items", result.TotalItems,
		"fallback", result.FallbackCount,
		"total_gb", fmt.Sprintf("%.1f", result.Size.TotalGB),
		"issues", result.Compatibility.HasIssues || !result.Requirements.AllMet,
		"duration", result.Stats.TotalTime)
	return result, nil
}

// recordHistory diffs against the previous submission and records the new
// one. Read and write are not atomic; concurrent runs for the same pair may
// share a baseline.
func (r *Runner) recordHistory(ctx context.Context, opts Options, result *Result) error {
	logger := opts.Logger

	prev, err := r.Store.LastSubmission(ctx, opts.SubmitterID, opts.ContextID)
	switch {
	case err == nil:
		result.Diff = analysis.Compare(result.Identifiers, prev.Identifiers)
	case errors.Is(err, store.ErrNotFound):
	default:
		if derr := deadline(ctx); derr != nil {
			return derr
		}
		logger.Warn("could not load previous submission", "submitter", opts.SubmitterID, "context", opts.ContextID, "err", err)
	}

	sub := &store.Submission{
		SubmitterID: opts.SubmitterID,
		ContextID:   opts.ContextID,
		Identifiers: result.Identifiers,
		TotalSizeGB: result.Size.TotalGB,
	}
	if err := r.Store.SaveSubmission(ctx, sub); err != nil {
		if derr := deadline(ctx); derr != nil {
			return derr
		}
		logger.Warn("could not record submission", "submitter", opts.SubmitterID, "err", err)
		return nil
	}
	result.SubmissionID = sub.ID
	return nil
}

// cacheItems writes fetched names and sizes to the long-lived store.
// Placeholders are skipped so a transient failure never overwrites a good
// record.
func (r *Runner) cacheItems(ctx context.Context, logger *log.Logger, items map[string]mod.Item) {
	for id, it := range items {
		if it.IsFallback() {
			continue
		}
		if err := r.Store.CacheMetadata(ctx, store.CachedItem{ID: id, Name: it.Name, SizeGB: it.SizeGB}); err != nil {
			logger.Warn("could not cache metadata", "id", id, "err", err)
			continue
		}
		if it.SizeGB != nil {
			if err := r.Store.SaveSize(ctx, id, *it.SizeGB); err != nil {
				logger.Warn("could not save size", "id", id, "err", err)
			}
		}
	}
}

// LastAnalysis rebuilds the most recent submission for the pair from cached
// metadata. Items that were never cached get placeholders. No network
// requests are made.
func (r *Runner) LastAnalysis(ctx context.Context, submitterID, contextID string) (*History, error) {
	if err := errs.ValidateSubmitter("submitter id", submitterID); err != nil {
		return nil, err
	}
	if err := errs.ValidateSubmitter("context id", contextID); err != nil {
		return nil, err
	}

	sub, err := r.Store.LastSubmission(ctx, submitterID, contextID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errs.New(errs.ErrCodeNotFound, "no previous mod list for %s in %s", submitterID, contextID)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "load submission for %s", submitterID)
	}

	h := &History{
		Submission: sub,
		Items:      make([]mod.Item, 0, len(sub.Identifiers)),
		TotalItems: len(sub.Identifiers),
	}
	for _, id := range sub.Identifiers {
		cached, err := r.Store.CachedMetadata(ctx, id)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				r.Logger.Warn("could not read cached metadata", "id", id, "err", err)
			}
			h.Items = append(h.Items, mod.Fallback(mod.Placeholder(id, r.BaseURL, nil), "not cached"))
			continue
		}
		h.Items = append(h.Items, mod.OK(mod.Metadata{
			ID:        id,
			Name:      cached.Name,
			SizeGB:    cached.SizeGB,
			URL:       r.BaseURL + id,
			FetchedAt: cached.UpdatedAt,
		}))
	}
	return h, nil
}

// Inspect fetches a single item. Unlike Analyze, failures are reported
// rather than replaced with a placeholder.
func (r *Runner) Inspect(ctx context.Context, id string, refresh bool) (*mod.Metadata, error) {
	if err := errs.ValidateIdentifier(id); err != nil {
		return nil, err
	}
	meta, err := r.Fetcher.FetchItem(ctx, id, refresh)
	switch {
	case err == nil:
		return meta, nil
	case errors.Is(err, context.DeadlineExceeded):
		return nil, errs.Wrap(errs.ErrCodeTimeout, err, "fetch workshop item %s", id)
	case errors.Is(err, integrations.ErrNotFound):
		return nil, errs.Wrap(errs.ErrCodeNotFound, err, "workshop item %s", id)
	case errors.Is(err, context.Canceled):
		return nil, err
	}
	return nil, errs.Wrap(errs.ErrCodeNetwork, err, "fetch workshop item %s", id)
}

// Close releases resources held by the runner (primarily the store).
func (r *Runner) Close() error {
	if r.Store != nil {
		return r.Store.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// deadline converts an expired or cancelled context into the error returned
// to the caller.
func deadline(ctx context.Context) error {
	switch err := ctx.Err(); {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return errs.Timeout(err)
	default:
		return err
	}
}
