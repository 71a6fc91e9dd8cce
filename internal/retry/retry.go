// Package retry provides a small retry helper with exponential backoff for
// transient external failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMaxAttemptsExceeded is returned when every attempt has failed.
var ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")

// Config configures retry behavior.
type Config struct {
	MaxAttempts  int           // total attempts, including the first
	InitialDelay time.Duration // delay before the first retry
	MaxDelay     time.Duration // cap on the backoff delay
	Multiplier   float64       // backoff multiplier per attempt
	IsRetryable  func(error) bool
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		IsRetryable:  IsTransient,
	}
}

// IsTransient reports whether an error looks like a transient network or
// availability failure worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"no such host",
		"temporary failure",
		"network is unreachable",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// Do executes fn, retrying retryable failures with exponential backoff until
// it succeeds, a non-retryable error occurs, the context is cancelled, or
// MaxAttempts is exhausted.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.IsRetryable == nil {
		cfg.IsRetryable = IsTransient
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !cfg.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxAttemptsExceeded, cfg.MaxAttempts, lastErr)
}
