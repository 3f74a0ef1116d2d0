package cache

import (
	"context"
	"errors"
	"time"
)

// maxRetryDelay caps the backoff between attempts.
const maxRetryDelay = 10 * time.Second

// RetryableError marks an error as transient.
type RetryableError struct{ Err error }

// Retryable marks err as transient. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff calls fn with attempt numbers 1..attempts until it
// succeeds, doubling delay after each failure up to a cap. Only errors marked
// with Retryable are retried. The returned error is the last one fn produced
// with the Retryable mark removed, or ctx.Err() when ctx ends while waiting.
func RetryWithBackoff(ctx context.Context, attempts int, delay time.Duration, fn func(attempt int) error) error {
	attempts = max(attempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay = min(delay*2, maxRetryDelay)
		}
	}

	var re *RetryableError
	if errors.As(err, &re) {
		return re.Err
	}
	return err
}
