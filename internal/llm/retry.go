package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/papercat/papercat/internal/logger"
)

// RetryPolicy retries transient failures with exponential backoff: the
// wait after attempt n is BaseDelay * 2^(n-1).
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy makes three attempts, waiting 1s then 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
}

// Delay returns the wait after the given 1-based attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay * time.Duration(1<<uint(attempt-1))
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempts run out. onRetry, if set, is told about each failed attempt that
// will be retried. Once attempts are exhausted the last error is returned
// wrapped in ErrRetriesExhausted.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error, onRetry func(attempt int, wait time.Duration, err error)) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		wait := p.Delay(attempt)
		if onRetry != nil {
			onRetry(attempt, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w (%d attempts): %w", ErrRetriesExhausted, attempts, lastErr)
}

// RetryingCompleter wraps a Completer with a retry policy.
type RetryingCompleter struct {
	Completer Completer
	Policy    RetryPolicy
	Logger    *logger.Logger
}

// Complete calls the wrapped Completer under the retry policy.
func (r *RetryingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	var out string
	err := r.Policy.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.Completer.Complete(ctx, prompt)
		return err
	}, func(attempt int, wait time.Duration, err error) {
		if r.Logger != nil {
			r.Logger.Warn("model request failed, retrying",
				"attempt", attempt,
				"max_attempts", r.Policy.MaxAttempts,
				"backoff", wait.String(),
				"error", err)
		}
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
