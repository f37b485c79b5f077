package httputil

import (
	"net/http"

	"golang.org/x/time/rate"
)

// Default pacing for outbound requests.
const (
	DefaultRate  = 10.0
	DefaultBurst = 10
)

// limitedTransport waits on a token bucket before each round trip.
type limitedTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

// RateLimited wraps next so that requests are issued at most perSecond times
// per second with the given burst. A perSecond <= 0 disables limiting and
// returns next unchanged. A nil next uses http.DefaultTransport.
func RateLimited(next http.RoundTripper, perSecond float64, burst int) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &limitedTransport{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// RoundTrip implements http.RoundTripper. A cancelled request context aborts
// the wait.
func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}
