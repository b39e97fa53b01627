// Package retry runs remote operations under a configurable retry policy.
//
// The engine's default policy is Forever(): retry indefinitely with
// exponential backoff. Under it an operation either eventually returns a
// terminal result or never returns; transient failures are absorbed here
// and never surface to the caller. Bounded policies exist so tests and
// production-hardened deployments can substitute a give-up condition.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/pushsync/backoff"
)

// Policy controls how an operation is retried.
type Policy struct {
	// Strategy computes the delay before each retry attempt.
	Strategy backoff.Strategy

	// MaxAttempts bounds the total number of attempts. Zero means
	// unbounded: keep retrying until the operation returns a terminal
	// result or the context is cancelled.
	MaxAttempts int
}

// Forever returns the default policy: unbounded retries with the default
// exponential backoff.
func Forever() Policy {
	return Policy{Strategy: backoff.DefaultStrategy()}
}

// Limit returns a policy bounded to n total attempts.
func Limit(n int, s backoff.Strategy) Policy {
	return Policy{Strategy: s, MaxAttempts: n}
}

// transientError marks an error as retryable.
type transientError struct {
	err error
}

// Transient wraps err so Do will retry it. A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// Error implements error.
func (t *transientError) Error() string { return t.err.Error() }

// Unwrap exposes the wrapped error to errors.Is/As.
func (t *transientError) Unwrap() error { return t.err }

// IsTransient reports whether err (or any error it wraps) was marked
// retryable via Transient.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// Do runs fn under the policy. Terminal errors (anything not marked
// transient) and successes return immediately. Transient errors are
// retried with the policy's backoff until MaxAttempts is exhausted or the
// context is cancelled; both return the last error observed.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	strategy := p.Strategy
	if strategy == nil {
		strategy = backoff.DefaultStrategy()
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return err
		}

		timer := time.NewTimer(strategy.Delay(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
