// Package errors provides centralized error handling for autosync.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrGitOperation indicates that a git command (remote, fetch, add, commit, etc.)
	// exited non-zero.
	ErrGitOperation = errors.New("git operation failed")

	// ErrNotGitRepo indicates the working directory is not inside a git checkout.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrEmptyValue indicates a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrRebaseConflict indicates that the pre-commit rebase stopped on conflicts
	// that need manual resolution.
	ErrRebaseConflict = errors.New("rebase has conflicts")

	// ErrPushRejected indicates the remote refused the push because it is not a
	// fast-forward of the remote branch.
	ErrPushRejected = errors.New("push rejected by remote")

	// ErrPushAuthFailed indicates push failed due to authentication issues.
	ErrPushAuthFailed = errors.New("push authentication failed")

	// ErrPushNetworkFailed indicates push failed due to network issues after retries.
	ErrPushNetworkFailed = errors.New("push network failure")

	// ErrLockHeld indicates another autosync run already holds the repository lock.
	ErrLockHeld = errors.New("sync already in progress")

	// ErrInvalidTemplate indicates the commit message template cannot be parsed
	// or renders to an empty message.
	ErrInvalidTemplate = errors.New("invalid commit message template")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidSync indicates an invalid sync configuration value.
	ErrConfigInvalidSync = errors.New("invalid sync configuration")

	// ErrConfigInvalidPush indicates an invalid push retry configuration value.
	ErrConfigInvalidPush = errors.New("invalid push configuration")

	// ErrConfigInvalidGit indicates an invalid git configuration value.
	ErrConfigInvalidGit = errors.New("invalid git configuration")

	// ErrConfigInvalidSchedule indicates an invalid schedule configuration value.
	ErrConfigInvalidSchedule = errors.New("invalid schedule configuration")

	// ErrConfigExists indicates the project config file already exists.
	ErrConfigExists = errors.New("config file already exists")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrUnsupportedOutputFormat indicates the output format is not supported.
	ErrUnsupportedOutputFormat = errors.New("unsupported output format")

	// ErrInteractiveRequired indicates that interactive prompts are required but not available.
	ErrInteractiveRequired = errors.New("interactive prompt required")

	// ErrOperationCanceled indicates the user or a signal canceled the operation.
	ErrOperationCanceled = errors.New("operation canceled")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
