// Package retry provides a small retry policy used by upstream clients
// and the publish pipeline
package retry

import (
	"context"
	"time"

	perr "noterelay/internal/platform/errors"
)

// Backoff maps a 1-based attempt index to a wait before the next attempt
type Backoff func(attempt int) time.Duration

// Linear waits base*attempt between attempts
func Linear(base time.Duration) Backoff {
	return func(attempt int) time.Duration { return base * time.Duration(attempt) }
}

// Exponential waits base<<(attempt-1) between attempts, capped at ceil
func Exponential(base, ceil time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := base << uint(attempt-1)
		if ceil > 0 && d > ceil {
			return ceil
		}
		return d
	}
}

// Policy bundles attempt count, backoff, and a retryable predicate
// the zero value is not usable, construct with the fields filled in
type Policy struct {
	MaxAttempts int
	Backoff     Backoff
	// Retryable decides whether a failed attempt should be retried
	// nil means the platform default (transient errors only)
	Retryable func(error) bool

	// sleep is a seam for tests
	Sleep func(time.Duration)
}

// Do runs fn up to MaxAttempts times and returns the last error
// waits Backoff(attempt) between attempts and stops early when the
// context is done or the error is not retryable
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = perr.Retryable
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = fn(attempt)
		if last == nil {
			return nil
		}
		if attempt == attempts || !retryable(last) {
			return last
		}
		if p.Backoff != nil {
			sleep(p.Backoff(attempt))
		}
	}
	return last
}
