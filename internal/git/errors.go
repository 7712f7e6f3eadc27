// Package git provides the git operations autosync runs against a checkout.
// This file provides error sentinel re-exports from internal/errors.
package git

import (
	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
)

// Re-exported sentinels so callers of this package can use errors.Is without a second import.
var (
	ErrGitOperation   = autosyncerrors.ErrGitOperation
	ErrNotGitRepo     = autosyncerrors.ErrNotGitRepo
	ErrRebaseConflict = autosyncerrors.ErrRebaseConflict
	ErrPushRejected   = autosyncerrors.ErrPushRejected
)
