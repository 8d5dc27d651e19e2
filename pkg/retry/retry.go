package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "pixgallery/pkg/errors"
	"pixgallery/pkg/logger"
)

// Operation is a function that might need retrying
type Operation func() error

// OperationWithResult is an Operation that also returns a value
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts counts the first try; 1 disables retrying.
	MaxAttempts int
	// Backoff is used when ByErrorType is nil.
	Backoff     BackoffStrategy
	ByErrorType *ErrorTypeBackoff
	RetryIf     func(error) bool
	OnRetry     func(attempt int, err error, delay time.Duration)
	Logger      logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		ByErrorType: NewErrorTypeBackoff(),
		RetryIf:     DefaultRetryIf,
		Logger:      logger.GetLogger(),
	}
}

// DefaultRetryIf retries classified transient errors only. Unclassified
// errors (disk, decoding) will not get better on a second try.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return errs.IsRetryable(apiErr.Type)
	}
	return false
}

func (c *Config) delay(attempt int, err error) time.Duration {
	if c.ByErrorType != nil {
		return c.ByErrorType.For(err).NextDelay(attempt)
	}
	if c.Backoff != nil {
		return c.Backoff.NextDelay(attempt)
	}
	return DefaultExponentialBackoff().NextDelay(attempt)
}

// Do executes op until it succeeds, fails permanently, runs out of
// attempts or ctx is done.
func Do(ctx context.Context, op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = op()
		if lastErr == nil {
			if attempt > 1 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		if !retryIf(lastErr) {
			return lastErr
		}
		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			log.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
				"attempts":   attempt,
				"last_error": lastErr.Error(),
			})
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		delay := cfg.delay(attempt, lastErr)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr, delay)
		}
		log.WarnWithFields("retrying operation", map[string]interface{}{
			"attempt":  attempt,
			"error":    lastErr.Error(),
			"delay_ms": delay.Milliseconds(),
		})

		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult is Do for operations that produce a value
func DoWithResult[T any](ctx context.Context, op OperationWithResult[T], cfg *Config) (T, error) {
	var result T
	err := Do(ctx, func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)
	return result, err
}
