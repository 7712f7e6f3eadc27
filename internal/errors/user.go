package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// Using a slice (not a map) because errors.Is() requires chain traversal.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Synchronization
	// ===================
	{
		err: ErrRebaseConflict,
		info: ErrorInfo{
			Message: "Rebase onto the remote branch stopped on conflicts. Nothing was committed or pushed.",
			Action:  "Resolve the conflicts, then run 'git rebase --continue' (or 'git rebase --abort') and sync again.",
		},
	},
	{
		err: ErrPushRejected,
		info: ErrorInfo{
			Message: "The remote has commits this checkout does not. The push was rejected.",
			Action:  "Enable sync.sync_before_commit or set sync.on_push_rejected to 'rebase', or pull manually.",
		},
	},
	{
		err: ErrPushAuthFailed,
		info: ErrorInfo{
			Message: "Authentication with the remote failed.",
			Action:  "Check the credentials or SSH key configured for the remote URL.",
		},
	},
	{
		err: ErrPushNetworkFailed,
		info: ErrorInfo{
			Message: "Could not reach the remote after several attempts.",
			Action:  "Check your network connection. The local commit is kept and will be pushed on the next run.",
		},
	},
	{
		err: ErrLockHeld,
		info: ErrorInfo{
			Message: "Another autosync run is already working on this repository.",
			Action:  "Wait for it to finish, or stop the running 'autosync watch'.",
		},
	},

	// ===================
	// Git
	// ===================
	{
		err: ErrNotGitRepo,
		info: ErrorInfo{
			Message: "The working directory is not a git repository.",
			Action:  "Pass --dir pointing at a git checkout, or run 'git init' first.",
		},
	},
	{
		err: ErrGitOperation,
		info: ErrorInfo{
			Message: "A git command failed. See the log output for the underlying error.",
		},
	},

	// ===================
	// Configuration
	// ===================
	{
		err: ErrInvalidTemplate,
		info: ErrorInfo{
			Message: "The commit message template is invalid.",
			Action:  "Fix sync.message_template; available fields are {{.Timestamp}}, {{.Branch}} and {{.Host}}.",
		},
	},
	{
		err: ErrConfigExists,
		info: ErrorInfo{
			Message: "A config file already exists.",
			Action:  "Use 'autosync init --force' to overwrite it.",
		},
	},
	{
		err: ErrConfigInvalidSync,
		info: ErrorInfo{
			Message: "The sync configuration is invalid.",
			Action:  "Run 'autosync config show' to inspect the effective values.",
		},
	},
	{
		err: ErrConfigInvalidPush,
		info: ErrorInfo{
			Message: "The push retry configuration is invalid.",
			Action:  "Run 'autosync config show' to inspect the effective values.",
		},
	},
	{
		err: ErrConfigInvalidSchedule,
		info: ErrorInfo{
			Message: "The schedule configuration is invalid.",
			Action:  "Run 'autosync config show' to inspect the effective values.",
		},
	},
	{
		err: ErrInteractiveRequired,
		info: ErrorInfo{
			Message: "This command needs an interactive terminal.",
			Action:  "Pass the values as flags or use --no-interactive.",
		},
	},
	{
		err: ErrOperationCanceled,
		info: ErrorInfo{
			Message: "Operation canceled.",
		},
	},
}

// getErrorInfo looks up the ErrorInfo for a given error.
// Returns an ErrorInfo with the original error message if not found.
func getErrorInfo(err error) ErrorInfo {
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve or work around the issue.
//
// For errors that have no clear action, the action string will be empty.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
