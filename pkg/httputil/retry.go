package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a failure as transient (network errors, 5xx
// responses). [Policy.Do] re-runs only operations that fail with this type.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Policy describes how often and how patiently to retry.
type Policy struct {
	Attempts int           // total tries, at least 1
	Delay    time.Duration // wait before the second try, doubled after each failure
	MaxDelay time.Duration // upper bound on a single wait; 0 means unbounded
}

// DefaultPolicy is 3 attempts starting at 1 second.
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second, MaxDelay: 8 * time.Second}

// Do runs fn under the policy. Non-retryable errors return immediately; a
// cancelled ctx returns ctx.Err() while waiting between attempts.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !isRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return lastErr
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
