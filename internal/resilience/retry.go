// Package resilience provides retry with exponential backoff for pipeline
// stages and collaborator calls that can fail transiently.
package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Default backoff bounds used when a policy leaves them unset.
const (
	DefaultBaseDelay = 100 * time.Millisecond
	DefaultMaxDelay  = 30 * time.Second
)

// RetryPolicy defines the retry behavior for an operation.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration

	// UseJitter scales each delay by a random factor in [0.5, 1.5).
	UseJitter bool

	// RetryableErrors restricts retries to errors matching one of these.
	// If empty, every error not marked permanent is retried.
	RetryableErrors []error

	// OnRetry, if set, is called before sleeping ahead of attempt number
	// next (1-based), with the error that triggered the retry.
	OnRetry func(next int, err error, delay time.Duration)
}

// Retry calls fn until it succeeds, returns a non-retryable error, the
// attempts are exhausted, or ctx is done. It returns the last error.
// Cancellation of ctx itself is never retried.
func Retry(ctx context.Context, policy RetryPolicy, fn func(attempt int) error) error {
	var lastErr error
	maxAttempts := max(policy.MaxRetries, 0) + 1

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == maxAttempts || ctx.Err() != nil || !isRetryable(err, policy.RetryableErrors) {
			break
		}

		delay := CalculateBackoff(attempt-1, policy.BaseDelay, policy.MaxDelay, policy.UseJitter)
		if policy.OnRetry != nil {
			policy.OnRetry(attempt+1, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return unwrapPermanent(lastErr)
}

// CalculateBackoff returns baseDelay * 2^attempt, capped at maxDelay.
func CalculateBackoff(attempt int, baseDelay, maxDelay time.Duration, useJitter bool) time.Duration {
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}

	delay := baseDelay
	for range attempt {
		delay *= 2
		if delay >= maxDelay {
			delay = maxDelay
			break
		}
	}

	if useJitter {
		delay = time.Duration(float64(delay) * (0.5 + rand.Float64()))
	}
	return min(delay, maxDelay)
}

// permanentError marks an error as not worth retrying.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so that Retry returns it without further attempts.
// Retry strips the wrapper before returning.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

func unwrapPermanent(err error) error {
	if p, ok := err.(*permanentError); ok {
		return p.err
	}
	return err
}

// IsRetryableError reports whether err should be retried under a policy
// without an explicit RetryableErrors list.
func IsRetryableError(err error) bool {
	return isRetryable(err, nil)
}

func isRetryable(err error, retryable []error) bool {
	if err == nil || IsPermanent(err) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if len(retryable) == 0 {
		return true
	}
	for _, target := range retryable {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
