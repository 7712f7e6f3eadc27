// Package git provides the git operations autosync runs against a checkout.
// This file contains error classification by stderr pattern.
package git

import "strings"

// ErrorType represents the classification of a git error.
type ErrorType int

const (
	// ErrorTypeUnknown indicates the error could not be classified.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeAuth indicates an authentication error.
	ErrorTypeAuth
	// ErrorTypeNetwork indicates a network connectivity error.
	ErrorTypeNetwork
	// ErrorTypeNotFound indicates the remote repository or ref does not exist.
	ErrorTypeNotFound
	// ErrorTypeNonFastForward indicates a non-fast-forward push rejection.
	ErrorTypeNonFastForward
	// ErrorTypeLockFile indicates another git process holds index.lock or a ref lock.
	ErrorTypeLockFile
)

// String returns a human-readable name for the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeUnknown:
		return "unknown"
	case ErrorTypeAuth:
		return "authentication"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeNonFastForward:
		return "non_fast_forward"
	case ErrorTypeLockFile:
		return "lock_file"
	default:
		return "unknown"
	}
}

// PatternMatcher checks if a string contains any of a list of lowercase patterns.
type PatternMatcher struct {
	patterns []string
}

// NewPatternMatcher creates a new PatternMatcher with the given patterns.
// All patterns should be lowercase.
func NewPatternMatcher(patterns ...string) *PatternMatcher {
	return &PatternMatcher{patterns: patterns}
}

// Matches returns true if the input string contains any of the patterns.
// The input is lowercased before matching.
func (m *PatternMatcher) Matches(s string) bool {
	return m.MatchesLower(strings.ToLower(s))
}

// MatchesLower checks an already-lowercased string.
func (m *PatternMatcher) MatchesLower(lower string) bool {
	for _, pattern := range m.patterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

//nolint:gochecknoglobals // Package-level immutable pattern matchers
var (
	authPatterns = NewPatternMatcher(
		"authentication failed",
		"could not read username",
		"could not read password",
		"terminal prompts disabled",
		"permission denied",
		"invalid username or password",
		"access denied",
		"authentication required",
		"host key verification failed",
	)

	networkPatterns = NewPatternMatcher(
		"could not resolve host",
		"connection refused",
		"connection reset",
		"network is unreachable",
		"connection timed out",
		"operation timed out",
		"unable to access",
		"no route to host",
		"failed to connect",
		"the remote end hung up unexpectedly",
		"timeout",
	)

	notFoundPatterns = NewPatternMatcher(
		"repository not found",
		"does not appear to be a git repository",
		"does not exist",
		"not found",
	)

	nonFastForwardPatterns = NewPatternMatcher(
		"non-fast-forward",
		"[rejected]",
		"updates were rejected",
		"fetch first",
		"tip of your current branch is behind",
		"rejected because the remote contains work",
	)

	lockFilePatterns = NewPatternMatcher(
		"index.lock",
		".lock': file exists",
		"unable to create '",
		"another git process seems to be running",
	)

	conflictPatterns = NewPatternMatcher(
		"conflict",
		"could not apply",
		"resolve all conflicts manually",
	)
)

// ErrorClassifier groups the pattern matchers used to classify git stderr.
type ErrorClassifier struct {
	auth           *PatternMatcher
	network        *PatternMatcher
	notFound       *PatternMatcher
	nonFastForward *PatternMatcher
	lockFile       *PatternMatcher
}

//nolint:gochecknoglobals // Singleton classifier for package use
var defaultClassifier = &ErrorClassifier{
	auth:           authPatterns,
	network:        networkPatterns,
	notFound:       notFoundPatterns,
	nonFastForward: nonFastForwardPatterns,
	lockFile:       lockFilePatterns,
}

// ClassifyError determines the error type from an error string.
//
// Classification priority (first match wins):
//  1. Lock file (local, retried quickly)
//  2. Authentication (user must fix credentials)
//  3. Network (often transient)
//  4. Non-fast-forward (remote moved on)
//  5. Not found
func ClassifyError(errStr string) ErrorType {
	return defaultClassifier.Classify(errStr)
}

// Classify determines the error type from an error string.
func (c *ErrorClassifier) Classify(errStr string) ErrorType {
	lower := strings.ToLower(errStr)
	switch {
	case c.lockFile.MatchesLower(lower):
		return ErrorTypeLockFile
	case c.auth.MatchesLower(lower):
		return ErrorTypeAuth
	case c.network.MatchesLower(lower):
		return ErrorTypeNetwork
	case c.nonFastForward.MatchesLower(lower):
		return ErrorTypeNonFastForward
	case c.notFound.MatchesLower(lower):
		return ErrorTypeNotFound
	default:
		return ErrorTypeUnknown
	}
}

// MatchesAuthError checks if the error string indicates an authentication error.
func MatchesAuthError(errStr string) bool {
	return authPatterns.Matches(errStr)
}

// MatchesNetworkError checks if the error string indicates a network error.
func MatchesNetworkError(errStr string) bool {
	return networkPatterns.Matches(errStr)
}

// MatchesNotFoundError checks if the error string indicates a missing remote or ref.
func MatchesNotFoundError(errStr string) bool {
	return notFoundPatterns.Matches(errStr)
}

// MatchesNonFastForwardError checks if the error string indicates a non-fast-forward rejection.
func MatchesNonFastForwardError(errStr string) bool {
	return nonFastForwardPatterns.Matches(errStr)
}

// MatchesLockFileError checks if the error string indicates git lock contention.
func MatchesLockFileError(errStr string) bool {
	return lockFilePatterns.Matches(errStr)
}

// MatchesConflictError checks if the error string indicates merge or rebase conflicts.
func MatchesConflictError(errStr string) bool {
	return conflictPatterns.Matches(errStr)
}
