// Package retry wraps outbound calls to publishing destinations with
// bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/custodia-labs/reqtrace/internal/logger"
)

// DefaultMaxAttempts is used when a policy is built with a non-positive attempt count.
const DefaultMaxAttempts = 3

// Policy controls how failed calls are retried.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// NewPolicy returns a policy with the given attempt budget and default intervals.
func NewPolicy(maxAttempts int) Policy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return Policy{
		MaxAttempts:     maxAttempts,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Do returns it immediately.
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

// Do calls op until it succeeds, returns a permanent error, the attempt
// budget is spent, or ctx is cancelled. The last error is returned.
func (p Policy) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	if p.MaxAttempts <= 0 {
		p = NewPolicy(p.MaxAttempts)
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.MaxInterval = p.MaxInterval
	exp.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithMaxRetries(exp, uint64(p.MaxAttempts-1))
	b = backoff.WithContext(b, ctx)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		logger.Debug("%s: attempt %d failed, retrying in %s: %v", name, attempt, wait, err)
	})
	if err == nil {
		return nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	var pe *permanentError
	if errors.As(err, &pe) {
		return pe.err
	}
	return err
}
