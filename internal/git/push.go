// Package git provides the git operations autosync runs against a checkout.
// This file implements push with retry on transient failures.
package git

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/autosync/internal/constants"
	"github.com/mrz1836/autosync/internal/ctxutil"
	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
)

// PushErrorType classifies push failures for appropriate handling.
type PushErrorType int

const (
	// PushErrorNone indicates no error occurred.
	PushErrorNone PushErrorType = iota
	// PushErrorAuth indicates authentication failed - don't retry.
	PushErrorAuth
	// PushErrorNetwork indicates a network issue - retry with backoff.
	PushErrorNetwork
	// PushErrorTimeout indicates a timeout - retry with backoff.
	PushErrorTimeout
	// PushErrorNonFastForward indicates remote has commits local doesn't - needs rebase.
	PushErrorNonFastForward
	// PushErrorOther indicates an unknown error - don't retry.
	PushErrorOther
)

// String returns a string representation of the error type.
func (t PushErrorType) String() string {
	switch t {
	case PushErrorNone:
		return "none"
	case PushErrorAuth:
		return "auth"
	case PushErrorNetwork:
		return "network"
	case PushErrorTimeout:
		return "timeout"
	case PushErrorNonFastForward:
		return "non_fast_forward"
	case PushErrorOther:
		return "other"
	}
	return "other"
}

// PushOptions configures the push operation.
type PushOptions struct {
	// Remote is the remote to push to (default: "origin").
	Remote string
	// Branch is the branch to push.
	Branch string
	// SetUpstream sets the upstream tracking reference if true.
	SetUpstream bool
}

// PushResult contains the outcome of a push operation.
type PushResult struct {
	// Success indicates whether the push succeeded.
	Success bool
	// Report is the per-ref outcome of the last attempt, when git produced one.
	Report *PushReport
	// ErrorType classifies the error if push failed.
	ErrorType PushErrorType
	// Attempts is the number of push attempts made.
	Attempts int
	// FinalErr is the final error if push failed.
	FinalErr error
}

// RetryConfig configures retry behavior for operations.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (default: 3).
	MaxAttempts int
	// InitialDelay is the initial delay between retries (default: 2s).
	InitialDelay time.Duration
	// MaxDelay is the maximum delay cap (default: 30s).
	MaxDelay time.Duration
	// Multiplier is the delay multiplier per attempt (default: 2.0).
	Multiplier float64
}

// DefaultRetryConfig returns the default retry configuration for push operations.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  constants.MaxRetryAttempts,
		InitialDelay: constants.InitialBackoff,
		MaxDelay:     constants.MaxBackoff,
		Multiplier:   2.0,
	}
}

// PushService provides high-level push operations with retry.
type PushService interface {
	// Push pushes commits to the remote repository with retry logic.
	Push(ctx context.Context, opts PushOptions) (*PushResult, error)
}

// Compile-time interface check.
var _ PushService = (*PushRunner)(nil)

// PushRunner implements PushService using the git Runner.
type PushRunner struct {
	runner Runner
	logger zerolog.Logger
	config RetryConfig
}

// PushRunnerOption configures a PushRunner.
type PushRunnerOption func(*PushRunner)

// NewPushRunner creates a PushRunner with the given git runner.
func NewPushRunner(runner Runner, opts ...PushRunnerOption) *PushRunner {
	pr := &PushRunner{
		runner: runner,
		logger: zerolog.Nop(),
		config: DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(pr)
	}
	return pr
}

// WithPushLogger sets the logger for push operations.
func WithPushLogger(logger zerolog.Logger) PushRunnerOption {
	return func(pr *PushRunner) {
		pr.logger = logger
	}
}

// WithPushRetryConfig sets custom retry configuration.
func WithPushRetryConfig(config RetryConfig) PushRunnerOption {
	return func(pr *PushRunner) {
		pr.config = config
	}
}

// Push pushes commits to the remote repository, retrying network and timeout failures.
// The returned result is non-nil whenever err is not a context error.
func (p *PushRunner) Push(ctx context.Context, opts PushOptions) (*PushResult, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	if opts.Remote == "" {
		opts.Remote = "origin"
	}
	if opts.Branch == "" {
		return nil, fmt.Errorf("branch name cannot be empty: %w", autosyncerrors.ErrEmptyValue)
	}

	op := &SimpleRetryOperation[pushAttemptResult]{
		AttemptFunc: func(ctx context.Context, attempt int) (pushAttemptResult, bool, error) {
			result := p.attemptPush(ctx, opts, attempt)
			return result, result.err == nil, result.err
		},
		ShouldRetryFunc: func(err error) bool {
			errType := classifyPushError(err)
			return errType == PushErrorNetwork || errType == PushErrorTimeout
		},
		OnRetryWaitFunc: func(attempt int, delay time.Duration) {
			p.logger.Info().
				Int("next_attempt", attempt+1).
				Dur("delay", delay).
				Msg("retrying push")
		},
	}

	attemptResult, attempts, err := ExecuteWithRetry(ctx, p.config, op, p.logger)

	result := &PushResult{Attempts: attempts, Report: attemptResult.report}
	if err == nil {
		result.Success = true
		p.logger.Debug().
			Int("attempts", attempts).
			Bool("up_to_date", result.Report.UpToDate()).
			Msg("push succeeded")
		return result, nil
	}

	// A canceled parent context is reported as-is; a per-command deadline is a retryable timeout.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	result.ErrorType = classifyPushError(err)
	result.FinalErr = err

	return result, p.buildFinalError(result)
}

// pushAttemptResult holds the result of a single push attempt.
type pushAttemptResult struct {
	report *PushReport
	err    error
}

func (p *PushRunner) attemptPush(ctx context.Context, opts PushOptions, attempt int) pushAttemptResult {
	p.logger.Debug().
		Int("attempt", attempt).
		Str("remote", opts.Remote).
		Str("branch", opts.Branch).
		Msg("pushing to remote")

	report, err := p.runner.Push(ctx, opts.Remote, opts.Branch, opts.SetUpstream)
	if err != nil {
		p.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Str("error_type", classifyPushError(err).String()).
			Msg("push failed")
	}

	return pushAttemptResult{report: report, err: err}
}

// buildFinalError maps the classified failure to its sentinel.
func (p *PushRunner) buildFinalError(result *PushResult) error {
	switch result.ErrorType {
	case PushErrorNone:
		return nil
	case PushErrorAuth:
		return fmt.Errorf("authentication failed: %w", autosyncerrors.ErrPushAuthFailed)
	case PushErrorNetwork, PushErrorTimeout:
		return fmt.Errorf("push failed after %d attempts: %w", result.Attempts, autosyncerrors.ErrPushNetworkFailed)
	case PushErrorNonFastForward:
		if errors.Is(result.FinalErr, autosyncerrors.ErrPushRejected) {
			return result.FinalErr
		}
		return fmt.Errorf("%w: %w", autosyncerrors.ErrPushRejected, result.FinalErr)
	case PushErrorOther:
		return fmt.Errorf("failed to push: %w", result.FinalErr)
	}
	return fmt.Errorf("failed to push: %w", result.FinalErr)
}

// classifyPushError classifies a push error for retry handling.
func classifyPushError(err error) PushErrorType {
	if err == nil {
		return PushErrorNone
	}

	if errors.Is(err, autosyncerrors.ErrPushRejected) {
		return PushErrorNonFastForward
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return PushErrorTimeout
	}

	errStr := err.Error()
	if MatchesAuthError(errStr) {
		return PushErrorAuth
	}
	if MatchesNetworkError(errStr) {
		return PushErrorNetwork
	}
	if MatchesNonFastForwardError(errStr) {
		return PushErrorNonFastForward
	}

	return PushErrorOther
}
