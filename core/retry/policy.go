// Package retry provides the single retry policy every remote calendar call
// goes through: a bounded number of attempts, a fixed cooldown between
// attempts on retryable errors, and a pacing delay after each successful call.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted wraps the last error once MaxAttempts retryable failures occurred.
var ErrExhausted = errors.New("retry attempts exhausted")

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy describes how a call is retried.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first. Values below 1 mean 1.
	MaxAttempts int
	// Cooldown is the fixed wait before retrying a retryable failure.
	Cooldown time.Duration
	// Pacing is the wait applied after every successful call.
	Pacing time.Duration
	// Retryable decides whether an error warrants another attempt. Nil means never.
	Retryable func(error) bool
	// Sleep performs the waits. Nil means a context-aware timer.
	Sleep SleepFunc
	// OnRetry is called before each cooldown with the attempt number that failed.
	OnRetry func(attempt int, err error)
}

// Do runs fn under the policy. Non-retryable errors are returned unchanged
// after the first failure; retryable ones are retried up to MaxAttempts and
// then returned wrapped in ErrExhausted.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			if p.Pacing > 0 {
				_ = p.sleep(ctx, p.Pacing)
			}
			return nil
		}

		if p.Retryable == nil || !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr)
		}
		if err := p.sleep(ctx, p.Cooldown); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, lastErr)
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
