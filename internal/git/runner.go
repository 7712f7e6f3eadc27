// Package git provides the git operations autosync runs against a checkout.
// This file defines the Runner interface for git CLI operations.
package git

import "context"

// Runner defines the git operations one sync run needs.
// All operations run in the runner's working directory and use context for cancellation.
type Runner interface {
	// WorkDir returns the directory commands run in.
	WorkDir() string

	// Status returns the current working tree status including staged, unstaged, and untracked files.
	Status(ctx context.Context) (*Status, error)

	// Add stages files for commit. If paths is empty, stages all changes
	// (additions, modifications and deletions).
	Add(ctx context.Context, paths []string) error

	// HasStagedChanges reports whether the index differs from HEAD.
	HasStagedChanges(ctx context.Context) (bool, error)

	// Commit creates a commit with the given message.
	Commit(ctx context.Context, message string) error

	// Push pushes HEAD to refs/heads/<branch> on remote and returns the parsed per-ref report.
	// A rejected update returns both the report and an error wrapping ErrPushRejected.
	Push(ctx context.Context, remote, branch string, setUpstream bool) (*PushReport, error)

	// CurrentBranch returns the branch HEAD points at, or "" when HEAD is detached.
	CurrentBranch(ctx context.Context) (string, error)

	// HeadSHA returns the commit HEAD resolves to, or "" on an unborn branch.
	HeadSHA(ctx context.Context) (string, error)

	// RemoteURL returns the fetch URL of remote, or "" when the remote is not configured.
	RemoteURL(ctx context.Context, remote string) (string, error)

	// SetRemoteURL binds remote to url, adding the remote when missing.
	// Returns true if the binding changed.
	SetRemoteURL(ctx context.Context, remote, url string) (bool, error)

	// Fetch downloads objects and refs from a remote repository without merging.
	Fetch(ctx context.Context, remote string) error

	// RemoteBranchExists reports whether refs/remotes/<remote>/<branch> exists locally.
	RemoteBranchExists(ctx context.Context, remote, branch string) (bool, error)

	// Rebase replays local commits on top of onto, stashing local edits around it.
	// Returns an error wrapping ErrRebaseConflict if the rebase stops on conflicts;
	// the rebase is left in progress.
	Rebase(ctx context.Context, onto string) error

	// IsRebaseInProgress reports whether a stopped rebase is waiting for resolution.
	IsRebaseInProgress(ctx context.Context) (bool, error)
}
