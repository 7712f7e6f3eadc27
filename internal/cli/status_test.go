package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/autosync/internal/flock"
	"github.com/mrz1836/autosync/internal/testutil"
	"github.com/mrz1836/autosync/internal/tui"
)

func TestStatus_JSON(t *testing.T) {
	isolateCLI(t)
	repo, remote := testutil.RepoWithRemote(t)
	testutil.WriteFile(t, repo, "new.txt", "n\n")
	testutil.WriteFile(t, repo, "README.md", "# changed\n")
	testutil.WriteFile(t, repo, "staged.txt", "s\n")
	testutil.GitCmd(t, repo, "add", "staged.txt")

	out, _, err := executeCLI(context.Background(), t, "-o", "json", "status", "-C", repo)
	require.NoError(t, err)

	var got statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "master", got.Branch)
	assert.Equal(t, "origin", got.Remote)
	assert.Equal(t, []string{remote}, got.RemoteURLs)
	assert.True(t, got.URLPinned, "no canonical URL configured")
	assert.Equal(t, 0, got.Ahead)
	assert.Equal(t, 0, got.Behind)
	assert.Equal(t, 1, got.Staged)
	assert.Equal(t, 1, got.Unstaged)
	assert.Equal(t, 1, got.Untracked)
	assert.False(t, got.SyncRunning)
	assert.False(t, got.RebaseInProgress)
}

func TestStatus_ReportsRunningSyncAndURLDrift(t *testing.T) {
	isolateCLI(t)
	repo, _ := testutil.RepoWithRemote(t)
	testutil.WriteFile(t, repo, ".autosync/config.yaml", "sync:\n  remote_url: git@example.com:me/notes.git\n")

	gitDir := testutil.GitCmd(t, repo, "rev-parse", "--absolute-git-dir")
	lock, err := flock.Acquire(filepath.Join(gitDir, flock.LockFileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = lock.Release() })

	report, err := collectStatus(context.Background(), repo, "")
	require.NoError(t, err)
	assert.True(t, report.SyncRunning)
	assert.Positive(t, report.SyncPID)
	assert.False(t, report.URLPinned)
	assert.Equal(t, "git@example.com:me/notes.git", report.CanonicalURL)
}

func TestPrintStatus_Text(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	err := printStatus(tui.NewOutput(&buf, tui.FormatText), OutputText, &statusReport{
		WorkDir:          "/work/notes",
		Detached:         true,
		Head:             "0123456789abcdef",
		Remote:           "origin",
		CanonicalURL:     "git@example.com:me/notes.git",
		Ahead:            -1,
		Behind:           -1,
		Unmerged:         2,
		RebaseInProgress: true,
		SyncRunning:      true,
		SyncPID:          4242,
	})
	require.NoError(t, err)

	text := buf.String()
	assert.Contains(t, text, "(detached HEAD)")
	assert.Contains(t, text, "0123456")
	assert.Contains(t, text, "(not configured) -> git@example.com:me/notes.git on next run")
	assert.Contains(t, text, "no tracking ref")
	assert.Contains(t, text, "2 unmerged")
	assert.Contains(t, text, "yes (pid 4242)")
	assert.Contains(t, text, "A rebase is in progress")
}

func TestShortHash(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(none)", shortHash(""))
	assert.Equal(t, "abc", shortHash("abc"))
	assert.Equal(t, "0123456", shortHash("0123456789"))
}
