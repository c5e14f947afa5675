// Package retry provides a bounded retry/backoff executor for outbound
// network calls. Every external call in the system (data store reads, AI
// oracle requests) goes through one of the policies defined here instead of
// hand-rolling its own loop.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Class labels an error for the executor.
type Class int

const (
	// Retryable errors are worth another attempt after backing off.
	Retryable Class = iota
	// Terminal errors abort the loop immediately.
	Terminal
)

// BackoffFunc maps a 1-based attempt number to the delay taken after that
// attempt fails.
type BackoffFunc func(attempt int) time.Duration

// Linear returns base*1, base*2, base*3, ...
func Linear(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

// Exponential returns base, base*2, base*4, ... capped at max. A max of 0
// means uncapped.
func Exponential(base, max time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
			if max > 0 && d >= max {
				return max
			}
		}
		if max > 0 && d > max {
			return max
		}
		return d
	}
}

// Policy describes how an operation is retried.
type Policy struct {
	// Name appears in logs and exhaustion errors.
	Name string
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// Backoff supplies the sleep taken between attempts.
	Backoff BackoffFunc
	// Classify decides whether an error is worth retrying. When nil every
	// error is treated as retryable.
	Classify func(error) Class
}

// ExhaustedError wraps the last error after all attempts failed.
type ExhaustedError struct {
	Op       string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

func (p Policy) classify(err error) Class {
	if p.Classify == nil {
		return Retryable
	}
	return p.Classify(err)
}

// Do executes op under the policy. Terminal errors are returned as-is;
// retryable errors are returned wrapped in an ExhaustedError once attempts
// run out. The backoff sleep respects context cancellation.
func (p Policy) Do(ctx context.Context, logger zerolog.Logger, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if p.classify(err) == Terminal {
			return err
		}
		if attempt == attempts {
			break
		}

		delay := time.Duration(0)
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		logger.Warn().
			Str("op", p.Name).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("backoff", delay).
			Err(err).
			Msg("retrying")

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	return &ExhaustedError{Op: p.Name, Attempts: attempts, Last: lastErr}
}

// DoValue is Do for operations that return a value.
func DoValue[T any](ctx context.Context, p Policy, logger zerolog.Logger, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, logger, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// DoValueOrDefault runs op under the policy but swallows the final error,
// returning the zero value instead. Used on read paths where a degraded
// empty result keeps the caller usable.
func DoValueOrDefault[T any](ctx context.Context, p Policy, logger zerolog.Logger, op func(ctx context.Context) (T, error)) T {
	result, err := DoValue(ctx, p, logger, op)
	if err != nil {
		logger.Error().Str("op", p.Name).Err(err).Msg("degrading to empty result")
		var zero T
		return zero
	}
	return result
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
