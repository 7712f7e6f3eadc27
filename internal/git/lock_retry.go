// Package git provides the git operations autosync runs against a checkout.
// This file retries operations that hit git's index or ref lock files.
package git

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/autosync/internal/constants"
)

// LockRetryConfig configures retry behavior for lock file errors.
// It shares the shape of RetryConfig; only the defaults differ.
type LockRetryConfig = RetryConfig

// DefaultLockRetryConfig returns defaults for lock file retry. Delays are
// much shorter than for network retries since an editor or IDE integration
// releases index.lock within milliseconds.
func DefaultLockRetryConfig() LockRetryConfig {
	return LockRetryConfig{
		MaxAttempts:  constants.DefaultLockRetryAttempts,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}
}

// RunWithLockRetry executes operation, retrying with backoff only while it
// fails with a lock file error. Other errors are returned immediately.
func RunWithLockRetry[R any](
	ctx context.Context,
	config LockRetryConfig,
	logger zerolog.Logger,
	operation func(ctx context.Context) (R, error),
) (R, error) {
	op := &SimpleRetryOperation[R]{
		AttemptFunc: func(ctx context.Context, _ int) (R, bool, error) {
			if err := ctx.Err(); err != nil {
				var zero R
				return zero, false, err
			}
			res, err := operation(ctx)
			return res, err == nil, err
		},
		ShouldRetryFunc: func(err error) bool {
			return err != nil && ctx.Err() == nil && MatchesLockFileError(err.Error())
		},
		OnRetryWaitFunc: func(attempt int, delay time.Duration) {
			logger.Debug().
				Int("attempt", attempt).
				Int("max_attempts", config.MaxAttempts).
				Dur("delay", delay).
				Msg("git lock file busy, retrying")
		},
	}

	result, attempts, err := ExecuteWithRetry(ctx, config, op, logger)
	if err != nil && attempts == config.MaxAttempts && MatchesLockFileError(err.Error()) {
		logger.Warn().Int("attempts", attempts).Err(err).Msg("git lock file retry exhausted")
	}
	return result, err
}

// RunWithLockRetryVoid is RunWithLockRetry for operations without a result.
func RunWithLockRetryVoid(
	ctx context.Context,
	config LockRetryConfig,
	logger zerolog.Logger,
	operation func(ctx context.Context) error,
) error {
	_, err := RunWithLockRetry(ctx, config, logger, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	})
	return err
}
