// Package retry provides an explicit retry policy object shared by the
// escalation orchestrator and the statistical scorer client. Retries live
// here, not inline in request code, so every caller applies the same rules:
// bounded attempts, backoff between attempts, and a retryable-error predicate
// that keeps non-transient failures (validation errors) from being retried.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy defines a bounded retry strategy.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// 1 means no retry.
	MaxAttempts int

	// Backoff is the delay before the second attempt; doubled each attempt
	// after that, capped at MaxBackoff.
	Backoff    time.Duration
	MaxBackoff time.Duration

	// Retryable reports whether an error is worth another attempt.
	// A nil predicate retries everything.
	Retryable func(error) bool
}

// SingleRetry returns the policy used on the crisis path: one retry with a
// short backoff. A user in danger is better served by a fast degraded answer
// than by a long retry loop.
func SingleRetry(backoff time.Duration) Policy {
	return Policy{
		MaxAttempts: 2,
		Backoff:     backoff,
		MaxBackoff:  4 * backoff,
		Retryable:   IsTransient,
	}
}

// None returns a policy that performs exactly one attempt.
func None() Policy {
	return Policy{MaxAttempts: 1}
}

// Do runs fn under the policy. It returns nil on the first success, the last
// error once attempts are exhausted, or the context error if the context ends
// between attempts. fn is responsible for honoring ctx during an attempt.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := p.Backoff
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}

		if backoff > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			backoff *= 2
			if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
				backoff = p.MaxBackoff
			}
		}
	}
	return lastErr
}

// Transient marks an error as retryable. Wrap network and timeout errors in
// this before returning them to callers that retry.
type Transient struct {
	Err error
}

func (t *Transient) Error() string { return t.Err.Error() }
func (t *Transient) Unwrap() error { return t.Err }

// MarkTransient wraps err so IsTransient reports true for it.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &Transient{Err: err}
}

// IsTransient reports whether err (or anything it wraps) was marked transient
// or is a context deadline, which on the crisis path always means a timeout
// against a downstream rather than caller cancellation mid-attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var t *Transient
	if errors.As(err, &t) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
