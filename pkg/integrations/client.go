package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jfahler/loadmasterbot/pkg/cache"
	"github.com/jfahler/loadmasterbot/pkg/httputil"
	"github.com/jfahler/loadmasterbot/pkg/observability"
)

// ClientOptions configures a [Client]. Zero values select defaults.
type ClientOptions struct {
	TTL        time.Duration     // lifetime of cached records
	Headers    map[string]string // sent with every request
	HTTP       HTTPOptions       // ignored when HTTPClient is set
	HTTPClient *http.Client
	Retry      *httputil.Policy // default httputil.DefaultPolicy
}

// Client is the page fetcher shared by source clients. It is safe for
// concurrent use.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	ttl     time.Duration
	retry   httputil.Policy
	headers http.Header
}

// NewClient builds a Client over backend. A nil backend disables caching.
func NewClient(backend cache.Cache, opts ClientOptions) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = NewHTTPClient(opts.HTTP)
	}
	retry := httputil.DefaultPolicy
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	headers := make(http.Header, len(opts.Headers))
	for k, v := range opts.Headers {
		headers.Set(k, v)
	}
	return &Client{http: hc, cache: backend, ttl: opts.TTL, retry: retry, headers: headers}
}

// Cached fills v from the cache entry at key, or runs fetch under the retry
// policy and stores v on success. refresh skips the cache read but still
// writes. Errors from fetch leave the cache untouched.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	family := keyFamily(key)
	if !refresh && c.load(ctx, key, v) {
		observability.Cache().OnCacheHit(ctx, family)
		return nil
	}
	if !refresh {
		observability.Cache().OnCacheMiss(ctx, family)
	}

	if err := c.retry.Do(ctx, fetch); err != nil {
		return err
	}

	if data, err := json.Marshal(v); err == nil && c.cache.Set(ctx, key, data, c.ttl) == nil {
		observability.Cache().OnCacheSet(ctx, family, len(data))
	}
	return nil
}

// load reports whether a decodable entry for key was found. Backend errors
// count as a miss.
func (c *Client) load(ctx context.Context, key string, v any) bool {
	data, ok, err := c.cache.Get(ctx, key)
	return err == nil && ok && json.Unmarshal(data, v) == nil
}

// keyFamily labels "<source>:<family>:<id>" keys for metrics.
func keyFamily(key string) string {
	if _, rest, ok := strings.Cut(key, ":"); ok {
		if family, _, ok := strings.Cut(rest, ":"); ok {
			return family
		}
	}
	return "other"
}

// FetchPage GETs url and returns at most maxBodyBytes of the body.
func (c *Client) FetchPage(ctx context.Context, url string) (string, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", retryable(fmt.Errorf("%w: read body: %v", ErrNetwork, err))
	}
	return string(data), nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range c.headers {
		req.Header[k] = vs
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if err := statusError(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// statusError classifies a response code. 429 and 5xx are retried.
func statusError(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	}
	err := fmt.Errorf("%w: status %d", ErrNetwork, code)
	if code == http.StatusTooManyRequests || code >= 500 {
		return retryable(err)
	}
	return err
}

func retryable(err error) error { return &httputil.RetryableError{Err: err} }
