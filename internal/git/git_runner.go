// Package git provides the git operations autosync runs against a checkout.
// This file implements the CLIRunner which wraps git CLI commands.
package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/autosync/internal/constants"
	"github.com/mrz1836/autosync/internal/ctxutil"
	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
	"github.com/mrz1836/autosync/internal/logging"
)

// DefaultCommandTimeout bounds a single git invocation when the caller's context has no deadline.
const DefaultCommandTimeout = constants.DefaultCommandTimeout

// CLIRunner implements Runner using the git CLI.
type CLIRunner struct {
	workDir   string
	timeout   time.Duration
	lockRetry LockRetryConfig
	logger    zerolog.Logger
}

// Compile-time interface check.
var _ Runner = (*CLIRunner)(nil)

// RunnerOption configures a CLIRunner.
type RunnerOption func(*CLIRunner)

// WithCommandTimeout sets the per-command timeout. Zero disables it.
func WithCommandTimeout(d time.Duration) RunnerOption {
	return func(r *CLIRunner) {
		r.timeout = d
	}
}

// WithLockRetryConfig sets the retry policy for index.lock contention.
func WithLockRetryConfig(cfg LockRetryConfig) RunnerOption {
	return func(r *CLIRunner) {
		r.lockRetry = cfg
	}
}

// WithRunnerLogger sets the logger used for debug output of git invocations.
func WithRunnerLogger(logger zerolog.Logger) RunnerOption {
	return func(r *CLIRunner) {
		r.logger = logger
	}
}

// NewRunner creates a new CLIRunner for the given working directory.
// Returns an error if the directory is not a git repository.
func NewRunner(ctx context.Context, workDir string, opts ...RunnerOption) (*CLIRunner, error) {
	if workDir == "" {
		return nil, fmt.Errorf("work directory cannot be empty: %w", autosyncerrors.ErrEmptyValue)
	}

	r := &CLIRunner{
		workDir:   workDir,
		timeout:   DefaultCommandTimeout,
		lockRetry: DefaultLockRetryConfig(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if _, err := r.runGitCommand(ctx, "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("%w: %w", autosyncerrors.ErrNotGitRepo, err)
	}

	return r, nil
}

// WorkDir returns the directory commands run in.
func (r *CLIRunner) WorkDir() string {
	return r.workDir
}

// Status returns the current working tree status.
func (r *CLIRunner) Status(ctx context.Context) (*Status, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	output, err := r.runGitCommand(ctx, "status", "--porcelain", "-uall", "--branch")
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	return parseGitStatus(output), nil
}

// Add stages files for commit.
func (r *CLIRunner) Add(ctx context.Context, paths []string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	args := []string{"add"}
	if len(paths) == 0 {
		args = append(args, "-A")
	} else {
		args = append(args, "--")
		args = append(args, paths...)
	}

	err := RunWithLockRetryVoid(ctx, r.lockRetry, r.logger, func(ctx context.Context) error {
		_, err := r.runGitCommand(ctx, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to add files: %w", err)
	}

	return nil
}

// HasStagedChanges reports whether the index differs from HEAD.
// On an unborn branch every staged path counts.
func (r *CLIRunner) HasStagedChanges(ctx context.Context) (bool, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return false, err
	}

	output, err := r.runGitCommand(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return false, fmt.Errorf("failed to inspect index: %w", err)
	}

	return output != "", nil
}

// Commit creates a commit with the given message.
func (r *CLIRunner) Commit(ctx context.Context, message string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("commit message cannot be empty: %w", autosyncerrors.ErrEmptyValue)
	}

	err := RunWithLockRetryVoid(ctx, r.lockRetry, r.logger, func(ctx context.Context) error {
		_, err := r.runGitCommand(ctx, "commit", "-m", message, "--cleanup=strip")
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// Push pushes branch to remote using porcelain output.
func (r *CLIRunner) Push(ctx context.Context, remote, branch string, setUpstream bool) (*PushReport, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	if branch == "" {
		return nil, fmt.Errorf("branch name cannot be empty: %w", autosyncerrors.ErrEmptyValue)
	}

	args := []string{"push", "--porcelain"}
	if setUpstream {
		args = append(args, "--set-upstream")
	}
	// HEAD rather than the branch ref, so a commit made on a detached HEAD is
	// what lands on the fallback branch.
	args = append(args, remote, "HEAD:refs/heads/"+branch)

	ctx, cancel := ctxutil.WithDefaultTimeout(ctx, r.timeout)
	defer cancel()

	out, err := runCommand(ctx, r.workDir, args...)
	report := ParsePushPorcelain(out.Stdout)
	if len(report.Refs) == 0 && strings.Contains(out.Stderr, "Everything up-to-date") {
		report.Refs = append(report.Refs, RefUpdate{
			Local:  "HEAD",
			Remote: "refs/heads/" + branch,
			Status: RefUpToDate,
		})
	}

	if rejected, ok := report.Rejected(); ok {
		return report, fmt.Errorf("push of %s to %s rejected (%s): %w",
			branch, remote, rejected.Reason, autosyncerrors.ErrPushRejected)
	}
	if err != nil {
		return report, fmt.Errorf("failed to push: %w", err)
	}

	return report, nil
}

// CurrentBranch returns the branch HEAD points at, or "" when HEAD is detached.
func (r *CLIRunner) CurrentBranch(ctx context.Context) (string, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return "", err
	}

	output, err := r.runGitCommand(ctx, "symbolic-ref", "--short", "-q", "HEAD")
	if err != nil {
		// -q makes a detached HEAD exit 1 without a message.
		if ExitCode(err) == 1 {
			return "", nil
		}
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}

	return output, nil
}

// HeadSHA returns the commit HEAD resolves to, or "" on an unborn branch.
func (r *CLIRunner) HeadSHA(ctx context.Context) (string, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return "", err
	}

	output, err := r.runGitCommand(ctx, "rev-parse", "--verify", "-q", "HEAD")
	if err != nil {
		if ExitCode(err) == 1 {
			return "", nil
		}
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	return output, nil
}

// RemoteURL returns the URL remote is bound to, or "" if it does not exist.
func (r *CLIRunner) RemoteURL(ctx context.Context, remote string) (string, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return "", err
	}

	output, err := r.runGitCommand(ctx, "remote", "get-url", remote)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "no such remote") {
			return "", nil
		}
		return "", fmt.Errorf("failed to read url of remote %s: %w", remote, err)
	}

	return output, nil
}

// SetRemoteURL binds remote to url. An existing binding is overwritten.
func (r *CLIRunner) SetRemoteURL(ctx context.Context, remote, url string) (bool, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return false, err
	}

	if remote == "" || url == "" {
		return false, fmt.Errorf("remote name and url are required: %w", autosyncerrors.ErrEmptyValue)
	}

	current, err := r.RemoteURL(ctx, remote)
	if err != nil {
		return false, err
	}
	if current == url {
		return false, nil
	}

	args := []string{"remote", "set-url", remote, url}
	if current == "" {
		args = []string{"remote", "add", remote, url}
	}
	if _, err := r.runGitCommand(ctx, args...); err != nil {
		return false, fmt.Errorf("failed to bind remote %s: %w", remote, err)
	}

	return true, nil
}

// Fetch downloads objects and refs from a remote repository.
func (r *CLIRunner) Fetch(ctx context.Context, remote string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	if remote == "" {
		remote = "origin"
	}

	if _, err := r.runGitCommand(ctx, "fetch", "--prune", remote); err != nil {
		return fmt.Errorf("failed to fetch from %s: %w", remote, err)
	}

	return nil
}

// RemoteBranchExists reports whether the remote-tracking ref for branch exists.
func (r *CLIRunner) RemoteBranchExists(ctx context.Context, remote, branch string) (bool, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return false, err
	}

	_, err := r.runGitCommand(ctx, "rev-parse", "--verify", "-q", "refs/remotes/"+remote+"/"+branch)
	if err != nil {
		if ExitCode(err) == 1 {
			return false, nil
		}
		return false, fmt.Errorf("failed to check remote branch %s/%s: %w", remote, branch, err)
	}
	return true, nil
}

// Rebase replays local commits on top of onto.
func (r *CLIRunner) Rebase(ctx context.Context, onto string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	if onto == "" {
		return fmt.Errorf("rebase target cannot be empty: %w", autosyncerrors.ErrEmptyValue)
	}

	_, err := r.runGitCommand(ctx, "rebase", "--autostash", onto)
	if err == nil {
		return nil
	}

	if ctxutil.Canceled(ctx) != nil {
		return err
	}

	inProgress, checkErr := r.IsRebaseInProgress(ctx)
	if checkErr == nil && inProgress {
		return fmt.Errorf("rebase onto %s stopped: %w", onto, autosyncerrors.ErrRebaseConflict)
	}
	if MatchesConflictError(err.Error()) {
		return fmt.Errorf("rebase onto %s has conflicts: %w", onto, autosyncerrors.ErrRebaseConflict)
	}

	return fmt.Errorf("failed to rebase onto %s: %w", onto, err)
}

// IsRebaseInProgress checks for the rebase-merge and rebase-apply state directories.
func (r *CLIRunner) IsRebaseInProgress(ctx context.Context) (bool, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return false, err
	}

	for _, name := range []string{"rebase-merge", "rebase-apply"} {
		p, err := r.runGitCommand(ctx, "rev-parse", "--git-path", name)
		if err != nil {
			return false, fmt.Errorf("failed to locate %s: %w", name, err)
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(r.workDir, p)
		}
		if _, err := os.Stat(p); err == nil {
			return true, nil
		}
	}

	return false, nil
}

// runGitCommand executes a git command in the runner's workDir, bounded by the command timeout.
func (r *CLIRunner) runGitCommand(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := ctxutil.WithDefaultTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Debug().Strs("args", logging.SafeArgs(args)).Msg("git")
	return RunCommand(ctx, r.workDir, args...)
}

// parseGitStatus parses git status --porcelain --branch output.
func parseGitStatus(output string) *Status {
	status := &Status{
		Staged:    []FileChange{},
		Unstaged:  []FileChange{},
		Untracked: []string{},
		Unmerged:  []string{},
	}

	for _, line := range strings.Split(output, "\n") {
		if len(line) < 2 {
			continue
		}

		if strings.HasPrefix(line, "## ") {
			parseBranchLine(line, status)
			continue
		}

		if len(line) < 4 {
			continue
		}

		// XY PATH or XY ORIG -> PATH (for renames)
		indexStatus := line[0]
		workTreeStatus := line[1]
		path := strings.TrimSpace(line[3:])

		var oldPath string
		if strings.Contains(path, " -> ") {
			parts := strings.SplitN(path, " -> ", 2)
			oldPath = parts[0]
			path = parts[1]
		}

		if indexStatus == '?' && workTreeStatus == '?' {
			status.Untracked = append(status.Untracked, path)
			continue
		}

		if isUnmerged(indexStatus, workTreeStatus) {
			status.Unmerged = append(status.Unmerged, path)
			continue
		}

		if indexStatus != ' ' && indexStatus != '?' {
			status.Staged = append(status.Staged, FileChange{
				Path:    path,
				Status:  ChangeType(string(indexStatus)),
				OldPath: oldPath,
			})
		}

		if workTreeStatus != ' ' && workTreeStatus != '?' {
			status.Unstaged = append(status.Unstaged, FileChange{
				Path:    path,
				Status:  ChangeType(string(workTreeStatus)),
				OldPath: oldPath,
			})
		}
	}

	return status
}

// isUnmerged matches the porcelain v1 conflict codes: DD AU UD UA DU AA UU.
func isUnmerged(x, y byte) bool {
	if x == 'U' || y == 'U' {
		return true
	}
	return (x == 'A' && y == 'A') || (x == 'D' && y == 'D')
}

// parseBranchLine parses the branch line from git status --porcelain --branch.
// Format: ## branch...origin/branch [ahead N, behind M]
func parseBranchLine(line string, status *Status) {
	line = strings.TrimPrefix(line, "## ")

	switch {
	case strings.HasPrefix(line, "No commits yet on "):
		status.Branch = strings.TrimPrefix(line, "No commits yet on ")
		return
	case strings.HasPrefix(line, "Initial commit on "):
		status.Branch = strings.TrimPrefix(line, "Initial commit on ")
		return
	case strings.HasPrefix(line, "HEAD (no branch)"):
		status.Detached = true
		return
	}

	parts := strings.SplitN(line, "...", 2)
	status.Branch = parts[0]

	if len(parts) < 2 {
		return
	}

	remotePart := parts[1]
	bracketStart := strings.Index(remotePart, " [")
	if bracketStart == -1 {
		status.Upstream = remotePart
		return
	}
	status.Upstream = remotePart[:bracketStart]

	if len(remotePart) < bracketStart+4 || remotePart[len(remotePart)-1] != ']' {
		return
	}

	info := remotePart[bracketStart+2 : len(remotePart)-1]
	status.Ahead = parseAheadBehind(info, "ahead ")
	status.Behind = parseAheadBehind(info, "behind ")
}

// parseAheadBehind extracts the count from "ahead N" or "behind N" in the info string.
func parseAheadBehind(info, prefix string) int {
	idx := strings.Index(info, prefix)
	if idx == -1 {
		return 0
	}

	numStr := info[idx+len(prefix):]
	if commaIdx := strings.Index(numStr, ","); commaIdx != -1 {
		numStr = numStr[:commaIdx]
	}

	n, err := strconv.Atoi(strings.TrimSpace(numStr))
	if err != nil {
		return 0
	}
	return n
}
