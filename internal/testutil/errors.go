// Package testutil provides testing utilities for autosync.
//
// This package contains mock errors and git repository fixtures used across
// test files. It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors carrying the stderr text git prints for common failures, so
// they classify the same way real failures do.
var (
	// ErrMockNetwork looks like an unreachable remote.
	ErrMockNetwork = errors.New("fatal: unable to access 'https://example.com/repo.git/': Could not resolve host: example.com")

	// ErrMockAuth looks like rejected credentials.
	ErrMockAuth = errors.New("fatal: Authentication failed for 'https://example.com/repo.git/'")

	// ErrMockIndexLock looks like a concurrent git process holding the index.
	ErrMockIndexLock = errors.New("fatal: Unable to create '/repo/.git/index.lock': File exists")

	// ErrMockGitFailed is a generic git failure.
	ErrMockGitFailed = errors.New("fatal: git command failed")
)
