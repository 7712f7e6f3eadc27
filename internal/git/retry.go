package git

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RetryableOperation is one unit of work ExecuteWithRetry may repeat.
type RetryableOperation[R any] interface {
	// Attempt runs once. success reports whether the result is final.
	Attempt(ctx context.Context, attempt int) (result R, success bool, err error)

	// ShouldRetry reports whether err is worth another attempt.
	ShouldRetry(err error) bool

	// OnRetryWait runs before sleeping delay ahead of attempt+1.
	OnRetryWait(attempt int, delay time.Duration)
}

// backoff yields the wait before each further attempt.
type backoff struct {
	cfg  RetryConfig
	next time.Duration
}

func newBackoff(cfg RetryConfig) *backoff {
	return &backoff{cfg: cfg, next: cfg.InitialDelay}
}

// step returns the current delay and advances to the following one.
func (b *backoff) step() time.Duration {
	d := b.next
	mult := b.cfg.Multiplier
	if mult < 1 {
		mult = 1
	}
	b.next = time.Duration(float64(b.next) * mult)
	if b.cfg.MaxDelay > 0 && b.next > b.cfg.MaxDelay {
		b.next = b.cfg.MaxDelay
	}
	return d
}

// sleepCtx waits d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
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

// ExecuteWithRetry runs op until it succeeds, stops being retryable, or
// cfg.MaxAttempts is reached. It always makes at least one attempt and
// returns the last result alongside the attempt count.
func ExecuteWithRetry[R any](
	ctx context.Context,
	cfg RetryConfig,
	op RetryableOperation[R],
	logger zerolog.Logger,
) (result R, attempts int, err error) {
	limit := max(cfg.MaxAttempts, 1)
	wait := newBackoff(cfg)

	for attempts = 1; ; attempts++ {
		var ok bool
		result, ok, err = op.Attempt(ctx, attempts)
		if ok {
			return result, attempts, nil
		}
		if attempts >= limit || !op.ShouldRetry(err) {
			break
		}

		delay := wait.step()
		op.OnRetryWait(attempts, delay)
		if ctxErr := sleepCtx(ctx, delay); ctxErr != nil {
			return result, attempts, ctxErr
		}
	}

	if attempts > 1 {
		logger.Debug().Int("attempts", attempts).Err(err).Msg("retries exhausted")
	}
	return result, attempts, err
}

// SimpleRetryOperation builds a RetryableOperation from funcs. A nil
// ShouldRetryFunc never retries.
type SimpleRetryOperation[R any] struct {
	AttemptFunc     func(ctx context.Context, attempt int) (R, bool, error)
	ShouldRetryFunc func(err error) bool
	OnRetryWaitFunc func(attempt int, delay time.Duration)
}

func (s *SimpleRetryOperation[R]) Attempt(ctx context.Context, attempt int) (R, bool, error) {
	return s.AttemptFunc(ctx, attempt)
}

func (s *SimpleRetryOperation[R]) ShouldRetry(err error) bool {
	return s.ShouldRetryFunc != nil && s.ShouldRetryFunc(err)
}

func (s *SimpleRetryOperation[R]) OnRetryWait(attempt int, delay time.Duration) {
	if s.OnRetryWaitFunc != nil {
		s.OnRetryWaitFunc(attempt, delay)
	}
}

var _ RetryableOperation[any] = (*SimpleRetryOperation[any])(nil)
