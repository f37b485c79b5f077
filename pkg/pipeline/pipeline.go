// Package pipeline runs mod list analyses end to end.
//
// This package implements the extract → enrich → analyse → persist pipeline
// shared by the CLI and the HTTP API. By centralizing this logic, both entry
// points apply the same timeouts, history rules and cache updates.
//
// # Architecture
//
// One analysis consists of:
//
//  1. Extract: collect workshop ids from the uploaded document
//  2. Enrich: fetch metadata for every id over a bounded pool
//  3. Analyse: compatibility, requirements, size and categories
//  4. History: diff against the submitter's previous list and record the new one
//
// The whole run is wrapped in a deadline. When it expires the caller gets a
// TIMEOUT error and no partial result.
//
// # Usage
//
//	runner := pipeline.NewRunner(workshopClient, st, logger)
//	result, err := runner.Analyze(ctx, pipeline.Options{
//	    Document:    html,
//	    SubmitterID: "user-1",
//	    ContextID:   "guild-1",
//	})
//	if errors.IsTimeout(err) {
//	    // ask the user to try again later
//	}
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/jfahler/loadmasterbot/pkg/analysis"
	"github.com/jfahler/loadmasterbot/pkg/catalog"
	"github.com/jfahler/loadmasterbot/pkg/enrich"
	errs "github.com/jfahler/loadmasterbot/pkg/errors"
	"github.com/jfahler/loadmasterbot/pkg/mod"
	"github.com/jfahler/loadmasterbot/pkg/store"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultTimeout bounds one whole analysis, enrichment included.
	DefaultTimeout = 3 * time.Minute

	// DefaultConcurrency caps in-flight workshop fetches.
	DefaultConcurrency = enrich.DefaultConcurrency
)

// =============================================================================
// Options - Analysis Configuration
// =============================================================================

// Options contains all configuration for one analysis.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Document is the uploaded mod list, usually an HTML preset export. Any
	// text is accepted; size limits belong to whoever read the upload.
	Document string `json:"document"`

	// SubmitterID and ContextID select the history the list is diffed
	// against. Both empty means an anonymous run: no diff, nothing recorded.
	SubmitterID string `json:"submitter_id,omitempty"`
	ContextID   string `json:"context_id,omitempty"`

	// Refresh bypasses cached workshop metadata.
	Refresh bool `json:"refresh,omitempty"`

	// Rule selects how installed expansions are detected.
	Rule catalog.Rule `json:"rule,omitempty"`

	// Runtime options (not serialized)
	Concurrency int           `json:"-"` // 0 selects DefaultConcurrency, negative is unbounded
	Timeout     time.Duration `json:"-"`
	Logger      *log.Logger   `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks the input and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.SubmitterID != "" || o.ContextID != "" {
		if err := errs.ValidateSubmitter("submitter id", o.SubmitterID); err != nil {
			return err
		}
		if err := errs.ValidateSubmitter("context id", o.ContextID); err != nil {
			return err
		}
	}
	if o.Rule == "" {
		o.Rule = catalog.RuleCompanion
	}
	if _, err := catalog.ParseRule(string(o.Rule)); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "detection rule")
	}
	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Tracked reports whether the run reads and writes submission history.
func (o *Options) Tracked() bool {
	return o.SubmitterID != "" && o.ContextID != ""
}

// =============================================================================
// Result
// =============================================================================

// Result is the outcome of one analysis. It is never persisted as a whole.
type Result struct {
	// SubmissionID identifies the recorded submission. Nil for anonymous
	// runs or when recording failed.
	SubmissionID uuid.UUID `json:"submission_id"`

	// Identifiers are the distinct workshop ids in first-seen order.
	Identifiers []string `json:"identifiers"`

	// Items holds one entry per identifier, fetched or placeholder.
	Items map[string]mod.Item `json:"items"`

	Compatibility analysis.Compatibility `json:"compatibility"`
	Requirements  analysis.Requirements  `json:"requirements"`

	// Diff is nil when the submitter has no previous list.
	Diff *analysis.Diff `json:"diff"`

	Size       analysis.SizeEstimate `json:"size"`
	Categories map[string][]string   `json:"categories"`

	TotalItems    int `json:"total_items"`
	FallbackCount int `json:"fallback_count"`

	Stats Stats `json:"stats"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ExtractTime time.Duration `json:"extract_time"`
	EnrichTime  time.Duration `json:"enrich_time"`
	TotalTime   time.Duration `json:"total_time"`
}

// History is a previous submission rebuilt from cached metadata.
type History struct {
	Submission *store.Submission `json:"submission"`
	Items      []mod.Item        `json:"items"`
	TotalItems int               `json:"total_items"`
}
