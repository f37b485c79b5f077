// Package integrations provides HTTP clients for the remote services loadmaster
// reads from.
//
// # Overview
//
// The only remote source today is the Steam Workshop, in [workshop]. Its item
// pages are unversioned HTML, so the client scrapes them heuristically.
//
// # Client Pattern
//
// Source clients embed [Client] and follow one pattern:
//
//	client := workshop.NewClient(backend, workshop.Options{})
//	meta, err := client.FetchItem(ctx, "463939057", false) // false = use cache
//
// [Client] handles:
//   - HTTP requests with retry and client-side rate limiting
//   - Caching parsed records in a [cache.Cache] with a configurable TTL
//   - Reporting requests and cache traffic to the observability hooks
//
// Errors are classified as [ErrNotFound] (404) or [ErrNetwork] (transport
// failures and other non-200 responses). Transient failures are wrapped in
// [httputil.RetryableError] and retried before being returned.
//
// [workshop]: github.com/jfahler/loadmasterbot/pkg/integrations/workshop
// [cache.Cache]: github.com/jfahler/loadmasterbot/pkg/cache.Cache
// [httputil.RetryableError]: github.com/jfahler/loadmasterbot/pkg/httputil.RetryableError
package integrations
