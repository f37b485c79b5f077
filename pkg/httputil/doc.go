// Package httputil holds the outbound HTTP plumbing used when scraping
// workshop pages: a retry [Policy] and a token-bucket [RateLimited]
// transport built on golang.org/x/time/rate.
//
// Only failures wrapped in [RetryableError] are retried. The integrations
// client marks transport errors, 429 and 5xx responses that way and leaves
// 404 and other statuses permanent:
//
//	p := httputil.Policy{Attempts: 3, Delay: time.Second, MaxDelay: 8 * time.Second}
//	err := p.Do(ctx, func() error { return fetch(ctx, id) })
//
// Enrichment runs many fetches at once, so the limiter sits on the shared
// transport rather than in each worker:
//
//	hc := &http.Client{Transport: httputil.RateLimited(nil, httputil.DefaultRate, httputil.DefaultBurst)}
//
// Caching of scraped records lives in the cache package, not here.
package httputil
