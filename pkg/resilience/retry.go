package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/richxcame/osrm-route/pkg/logger"
	"go.uber.org/zap"
)

// RetryConfig defines the configuration for retry behavior
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, including the first one
	MaxAttempts int
	// InitialBackoff is the initial backoff duration
	InitialBackoff time.Duration
	// MaxBackoff is the maximum backoff duration
	MaxBackoff time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff (typically 2.0)
	BackoffMultiplier float64
	// EnableJitter randomizes each backoff between zero and its nominal value
	EnableJitter bool
	// RetryableChecker decides whether an error is worth another attempt.
	// Nil retries everything except context and breaker errors.
	RetryableChecker func(error) bool
}

// DefaultRetryConfig returns the retry configuration used for route fetches.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
		EnableJitter:      true,
	}
}

// Retry executes the operation with exponential backoff and records metrics
// under operationName.
func Retry(ctx context.Context, config RetryConfig, operationName string, operation Operation) ([]byte, error) {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}

	startTime := time.Now()
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			recordRetryOperation(operationName, time.Since(startTime).Seconds(), false)
			return nil, err
		}

		result, err := operation(ctx)
		if err == nil {
			recordRetryAttempt(operationName, true)
			recordRetryOperation(operationName, time.Since(startTime).Seconds(), true)

			if attempt > 1 {
				logger.WithContext(ctx).Info("operation succeeded after retry",
					zap.Int("attempt", attempt),
					zap.String("operation", operationName),
				)
			}
			return result, nil
		}

		recordRetryAttempt(operationName, false)
		lastErr = err

		if !shouldRetry(err, config) {
			recordRetryOperation(operationName, time.Since(startTime).Seconds(), false)
			return nil, err
		}

		if attempt == config.MaxAttempts {
			logger.WithContext(ctx).Warn("operation failed after all retry attempts",
				zap.Error(err),
				zap.Int("attempts", attempt),
				zap.String("operation", operationName),
			)
			break
		}

		backoff := calculateBackoff(attempt, config)
		recordRetryBackoff(operationName, backoff.Seconds())

		logger.WithContext(ctx).Info("retrying operation after backoff",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", config.MaxAttempts),
			zap.Duration("backoff", backoff),
			zap.String("operation", operationName),
			zap.Error(err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			recordRetryOperation(operationName, time.Since(startTime).Seconds(), false)
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	recordRetryOperation(operationName, time.Since(startTime).Seconds(), false)
	return nil, lastErr
}

// RetryWithBreaker retries an operation that goes through breaker. An open
// breaker ends the retry loop immediately.
func RetryWithBreaker(ctx context.Context, config RetryConfig, breaker *CircuitBreaker, operation Operation) ([]byte, error) {
	return Retry(ctx, config, breaker.Name(), func(ctx context.Context) ([]byte, error) {
		return breaker.Execute(ctx, operation)
	})
}

// calculateBackoff returns initial * multiplier^(attempt-1), capped at MaxBackoff.
func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	backoff := float64(config.InitialBackoff) * math.Pow(config.BackoffMultiplier, float64(attempt-1))

	if config.MaxBackoff > 0 && backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}

	duration := time.Duration(backoff)
	if config.EnableJitter {
		duration = addJitter(duration)
	}

	return duration
}

// addJitter uses "full jitter": a random value between 0 and duration.
func addJitter(duration time.Duration) time.Duration {
	if duration <= 0 {
		return duration
	}
	return time.Duration(rand.Int63n(int64(duration)))
}

func shouldRetry(err error, config RetryConfig) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, ErrCircuitOpen) {
		return false
	}

	if config.RetryableChecker != nil {
		return config.RetryableChecker(err)
	}

	return true
}

// IsRetryableHTTPStatus reports whether a response status is transient:
// 408, 429, 500, 502, 503 and 504.
func IsRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
