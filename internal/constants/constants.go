// Package constants provides centralized constant values used throughout autosync.
// This package has no dependencies on other internal packages.
package constants

import "time"

// Directory names.
const (
	// AutosyncHome is the name of the autosync home directory (under the user's home).
	AutosyncHome = ".autosync"

	// ProjectConfigDir is the directory inside a repository that holds project configuration.
	ProjectConfigDir = ".autosync"

	// LogsDir is the subdirectory of AutosyncHome holding CLI logs.
	LogsDir = "logs"
)

// Sync defaults.
const (
	// DefaultRemote is the remote name autosync pins and pushes to.
	DefaultRemote = "origin"

	// DefaultBranch is used when the current branch cannot be determined.
	DefaultBranch = "master"

	// DefaultTimestampFormat renders commit and completion timestamps.
	DefaultTimestampFormat = "2006-01-02 15:04:05"

	// DefaultMessageTemplate is the commit message for plain sync runs.
	DefaultMessageTemplate = "Auto-sync: {{.Timestamp}}"

	// DefaultRebaseMessageTemplate is the commit message when syncing before commit.
	DefaultRebaseMessageTemplate = "Auto-sync [{{.Branch}}]: {{.Timestamp}}"

	// PushRejectedFail reports a rejected push and stops.
	PushRejectedFail = "fail"

	// PushRejectedRebase fetches, rebases once and retries the push.
	PushRejectedRebase = "rebase"
)

// Timeouts and retry defaults.
const (
	// DefaultCommandTimeout bounds a single git invocation.
	DefaultCommandTimeout = 5 * time.Minute

	// MaxRetryAttempts is the default number of push attempts for transient failures.
	MaxRetryAttempts = 3

	// InitialBackoff is the first delay between push attempts.
	InitialBackoff = 2 * time.Second

	// MaxBackoff caps the delay between push attempts.
	MaxBackoff = 30 * time.Second

	// DefaultLockRetryAttempts is how often index.lock contention is retried.
	DefaultLockRetryAttempts = 5
)

// Schedule defaults.
const (
	// DefaultInterval is how often watch mode syncs without file events.
	DefaultInterval = 5 * time.Minute

	// DefaultDebounce is the quiet period after a file event before syncing.
	DefaultDebounce = 10 * time.Second

	// ProcessTerminationTimeout is how long watch mode waits for an in-flight run on shutdown.
	ProcessTerminationTimeout = 2 * time.Minute
)
