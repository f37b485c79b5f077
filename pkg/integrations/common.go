package integrations

import (
	"errors"
	"net/http"
	"time"

	"github.com/jfahler/loadmasterbot/pkg/httputil"
)

const (
	httpTimeout  = 10 * time.Second
	maxBodyBytes = 16 << 20
)

var (
	// ErrNotFound is returned when the remote resource doesn't exist.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// HTTPOptions configures [NewHTTPClient]. Zero values select defaults.
type HTTPOptions struct {
	Timeout time.Duration // per request; default 10s
	Rate    float64       // requests per second; 0 selects httputil.DefaultRate, < 0 disables limiting
	Burst   int           // default httputil.DefaultBurst
}

// NewHTTPClient creates an HTTP client with a per-request timeout and a
// client-side rate limit shared by every request made through it.
func NewHTTPClient(opts HTTPOptions) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = httpTimeout
	}
	if opts.Rate == 0 {
		opts.Rate = httputil.DefaultRate
	}
	if opts.Burst <= 0 {
		opts.Burst = httputil.DefaultBurst
	}
	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: httputil.RateLimited(http.DefaultTransport, opts.Rate, opts.Burst),
	}
}
