package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"imgrab/pkg/config"
	errs "imgrab/pkg/errors"
	"imgrab/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	// Backoff strategy to use
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// HonorRetryAfter uses the wait carried by a RateLimitError instead of the backoff
	HonorRetryAfter bool
	// MaxWait caps any single delay (0 means uncapped)
	MaxWait time.Duration
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	// Context for cancellation
	Context context.Context
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:     3,
		Backoff:         NewErrorTypeBackoff(),
		RetryIf:         DefaultRetryIf,
		HonorRetryAfter: true,
		MaxWait:         5 * time.Minute,
		Context:         context.Background(),
		Logger:          logger.NewNopLogger(),
	}
}

// FromConfig translates the retry section of the application config. A disabled
// section yields a single attempt.
func FromConfig(cfg config.RetryConfig, log logger.Logger) *Config {
	c := DefaultConfig()
	c.Logger = logger.OrNop(log)
	c.HonorRetryAfter = cfg.HonorRetryAfter
	c.MaxWait = cfg.MaxWait

	c.MaxAttempts = cfg.MaxAttempts
	if !cfg.Enabled || c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}

	if cfg.BaseDelay > 0 {
		etb := NewErrorTypeBackoff()
		etb.DefaultBackoff = &ExponentialBackoff{
			BaseDelay:    cfg.BaseDelay,
			MaxDelay:     60 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		}
		c.Backoff = etb
	}
	return c
}

// DefaultRetryIf is the default retry predicate
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	// Check for context errors (don't retry)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return errs.IsRetryable(err)
}

// Do executes an operation with retry logic
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	log := logger.OrNop(cfg.Logger)

	attempt := 0
	for {
		attempt++

		// Execute the operation
		err := op()
		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		// Check if we should retry this error
		if !retryIf(err) {
			log.DebugWithFields("error is not retryable", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		}

		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			log.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
				"attempts":   attempt,
				"last_error": err.Error(),
			})
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, err)
		}

		delay := nextDelay(cfg, attempt, err)

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		log.WarnWithFields("retrying operation", map[string]interface{}{
			"attempt":      attempt,
			"error":        err.Error(),
			"delay_ms":     delay.Milliseconds(),
			"max_attempts": cfg.MaxAttempts,
		})

		if err := Wait(ctx, delay); err != nil {
			log.WarnWithFields("retry cancelled", map[string]interface{}{
				"attempt": attempt,
				"reason":  err.Error(),
			})
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// nextDelay picks the delay before the next attempt
func nextDelay(cfg *Config, attempt int, err error) time.Duration {
	var delay time.Duration
	if wait, ok := errs.RetryAfter(err); ok && cfg.HonorRetryAfter {
		delay = wait
	} else if aware, ok := cfg.Backoff.(errorAwareBackoff); ok {
		delay = aware.NextDelayFor(attempt, err)
	} else if cfg.Backoff != nil {
		delay = cfg.Backoff.NextDelay(attempt)
	}

	if cfg.MaxWait > 0 && delay > cfg.MaxWait {
		delay = cfg.MaxWait
	}
	return delay
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var result T

	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)

	return result, err
}
