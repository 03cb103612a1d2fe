package utils

import (
	"errors"
	"fmt"
	"time"
)

// ErrRetriesExhausted is returned once a bounded policy has used all of its attempts.
var ErrRetriesExhausted = errors.New("retries exhausted")

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying; RetryPolicy.Do returns the wrapped error immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryPolicy runs an operation until it succeeds.
// MaxAttempts <= 0 means no cap: the operation is retried until it succeeds
// or returns a Permanent error.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Sleeper     Sleeper
}

// ConstantBackoff waits d between every attempt.
func ConstantBackoff(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// ExponentialBackoff waits base*2^attempt: 2s, 4s, 8s... for base=1s.
func ExponentialBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base * time.Duration(1<<uint(attempt))
	}
}

// JitterBackoff draws every wait from jitter(min, max).
func JitterBackoff(jitter JitterFunc, min, max time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return jitter(min, max) }
}

// Do calls fn with a 1-based attempt number.
//
// Usage:
//
//	err := utils.RetryPolicy{MaxAttempts: 3, Backoff: utils.ConstantBackoff(time.Second)}.Do(func(int) error {
//	    return session.Load(url)
//	})
func (p RetryPolicy) Do(fn func(attempt int) error) error {
	sleeper := p.Sleeper
	if sleeper == nil {
		sleeper = RealSleeper
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = ExponentialBackoff(time.Second)
	}

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
		}

		wait := backoff(attempt)
		Debug("Attempt %d failed: %v, retrying in %v", attempt, err, wait)
		sleeper.Sleep(wait)
	}
}
