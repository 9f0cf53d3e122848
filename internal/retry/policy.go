// Package retry holds the one backoff policy shared by every upstream client.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrExhausted is returned (wrapped) when every attempt failed with a transient error.
var ErrExhausted = errors.New("retries exhausted")

// transientError marks an error as worth retrying
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as retryable (network failure, HTTP 5xx, 429).
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked with Transient.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// Policy is an exponential backoff with a fixed attempt ceiling.
// The zero value is not usable; start from Default().
type Policy struct {
	MaxAttempts    int           // total attempts including the first
	BaseDelay      time.Duration // delay before the second attempt
	MaxDelay       time.Duration // cap on any single delay
	Multiplier     float64       // growth factor between delays
	Jitter         float64       // randomization factor in [0,1]
	AttemptTimeout time.Duration // per-attempt deadline, 0 = none

	// Notify is called before each retry sleep. Optional.
	Notify func(attempt int, err error, next time.Duration)
}

// Default returns the policy used by the fetchers unless configured otherwise
func Default() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    3 * time.Second,
		Multiplier:  2,
		Jitter:      0.2,
	}
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0 // bounded by attempts, not wall time
	b.Reset()

	retries := p.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// Do runs op until it succeeds, returns a non-transient error, the context
// ends, or MaxAttempts is reached. In the last case the returned error
// wraps both ErrExhausted and the final attempt's error.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := 0
	var last error

	run := func() error {
		attempts++
		attemptCtx := ctx
		if p.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, p.AttemptTimeout)
			defer cancel()
		}

		err := op(attemptCtx)
		if err == nil {
			return nil
		}
		last = err
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		if p.Notify != nil {
			p.Notify(attempts, err, next)
		}
	}

	err := backoff.RetryNotify(run, p.backOff(ctx), notify)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		if last != nil && !errors.Is(last, ctx.Err()) {
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), last)
		}
		return ctx.Err()
	}
	if IsTransient(err) {
		return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, err)
	}
	return err
}
