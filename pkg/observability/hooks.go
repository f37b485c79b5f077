// Package observability lets loadmaster report what it is doing without
// depending on a metrics backend.
//
// Three hook sets exist: [AnalysisHooks] for whole runs and per-item
// enrichment, [CacheHooks] for workshop page cache lookups, and [HTTPHooks]
// for outgoing requests. Each defaults to a no-op. The binary installs real
// implementations once at startup, typically the Prometheus collector in the
// prom subpackage when `loadmaster serve` exposes /metrics:
//
//	m := prom.New(registry)
//	m.Register()
//	defer observability.Reset()
//
// Library code only reads the current hooks:
//
//	observability.Analysis().OnAnalysisStart(ctx, len(ids))
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// AnalysisHooks observes pipeline runs.
type AnalysisHooks interface {
	OnAnalysisStart(ctx context.Context, identifiers int)
	OnAnalysisComplete(ctx context.Context, identifiers int, duration time.Duration, err error)

	// OnItemEnriched fires once per identifier; fallback marks a placeholder.
	OnItemEnriched(ctx context.Context, id string, fallback bool, duration time.Duration)
}

// CacheHooks observes cache traffic. keyType is the key family, e.g. "item".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks observes outgoing requests.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	OnError(ctx context.Context, method, host, path string, err error)
}

type NoopAnalysisHooks struct{}

func (NoopAnalysisHooks) OnAnalysisStart(context.Context, int)                          {}
func (NoopAnalysisHooks) OnAnalysisComplete(context.Context, int, time.Duration, error) {}
func (NoopAnalysisHooks) OnItemEnriched(context.Context, string, bool, time.Duration)   {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// registry holds the installed hooks. It is replaced wholesale on every
// Set call so readers never observe a half-updated set.
type registry struct {
	analysis AnalysisHooks
	cache    CacheHooks
	http     HTTPHooks
}

func defaults() *registry {
	return &registry{NoopAnalysisHooks{}, NoopCacheHooks{}, NoopHTTPHooks{}}
}

var current atomic.Pointer[registry]

func init() { current.Store(defaults()) }

// update applies fn to a copy of the current registry and installs it.
func update(fn func(r *registry)) {
	for {
		old := current.Load()
		next := *old
		fn(&next)
		if current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// SetAnalysisHooks installs h. A nil h is ignored.
func SetAnalysisHooks(h AnalysisHooks) {
	if h != nil {
		update(func(r *registry) { r.analysis = h })
	}
}

// SetCacheHooks installs h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(r *registry) { r.cache = h })
	}
}

// SetHTTPHooks installs h. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(r *registry) { r.http = h })
	}
}

func Analysis() AnalysisHooks { return current.Load().analysis }
func Cache() CacheHooks       { return current.Load().cache }
func HTTP() HTTPHooks         { return current.Load().http }

// Reset reinstalls the no-op hooks.
func Reset() { current.Store(defaults()) }
