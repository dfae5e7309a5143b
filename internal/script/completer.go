package script

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Completer is the language-model generation capability. Implementations
// must surface rate limiting, oversize payloads, and quota exhaustion as the
// typed errors below so the generator's retry and fallback logic can
// distinguish them.
type Completer interface {
	Name() string
	Complete(ctx context.Context, system, user string, maxTokens int64, temperature float64) (string, error)
}

// RateLimitError signals provider-side throttling. RetryAfter is zero when
// the provider gave no hint.
type RateLimitError struct {
	RetryAfter time.Duration
	Body       string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %s", e.RetryAfter, e.Body)
	}
	return fmt.Sprintf("rate limited: %s", e.Body)
}

// OversizeError signals the request payload exceeded the provider's size
// limit. Never retried as-is; the generator switches to chunked generation.
type OversizeError struct {
	Body string
}

func (e *OversizeError) Error() string {
	return fmt.Sprintf("request too large: %s", e.Body)
}

// QuotaError signals a usage quota or credit balance has been exhausted.
// Terminal: retrying cannot help until the budget resets.
type QuotaError struct {
	Body string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exhausted: %s", e.Body)
}

// RetryPolicy is the single retry implementation shared by the
// whole-document and chunked generation paths.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	JitterFrac  float64 // ±fraction applied to rate-limit backoff
}

// DefaultRetry bounds each generation request at five attempts with a
// doubling, capped backoff.
var DefaultRetry = RetryPolicy{
	MaxAttempts: 5,
	BaseDelay:   2 * time.Second,
	MaxDelay:    30 * time.Second,
	JitterFrac:  0.2,
}

// Run executes fn with exponential backoff. Oversize and quota errors are
// returned immediately. Rate-limit errors honor the provider's retry-after
// hint when present, otherwise use jittered backoff so concurrent chunk
// requests do not retry in lockstep.
func (p RetryPolicy) Run(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := p.BaseDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn()
		if err == nil {
			return nil
		}

		var oversize *OversizeError
		var quota *QuotaError
		if errors.As(err, &oversize) || errors.As(err, &quota) {
			return err
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}

		wait := delay
		var rl *RateLimitError
		if errors.As(err, &rl) {
			if rl.RetryAfter > 0 {
				wait = rl.RetryAfter
			} else {
				wait = jitter(delay, p.JitterFrac)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return lastErr
}

func jitter(d time.Duration, frac float64) time.Duration {
	if frac <= 0 {
		return d
	}
	spread := 2*rand.Float64() - 1 // [-1, 1)
	return d + time.Duration(float64(d)*frac*spread)
}
