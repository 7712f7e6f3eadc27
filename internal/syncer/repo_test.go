package syncer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/autosync/internal/clock"
	"github.com/mrz1836/autosync/internal/config"
	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
	"github.com/mrz1836/autosync/internal/flock"
	"github.com/mrz1836/autosync/internal/testutil"
)

// openRepo wires a Syncer over a real checkout with fast push retries.
func openRepo(t *testing.T, repo string, mutate func(*config.Config)) (*Syncer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Push.InitialDelay = time.Millisecond
	cfg.Push.MaxDelay = time.Millisecond
	cfg.Push.MaxAttempts = 1
	if mutate != nil {
		mutate(cfg)
	}

	out, diag := &bytes.Buffer{}, &bytes.Buffer{}
	s, err := Open(context.Background(), repo, cfg, zerolog.Nop(),
		WithClock(clock.FixedClock{Time: testTime}),
		WithOutput(out),
		WithDiagnostics(diag),
	)
	require.NoError(t, err)
	return s, out, diag
}

func commitCount(t *testing.T, repo string) int {
	t.Helper()
	return len(strings.Split(testutil.GitCmd(t, repo, "rev-list", "HEAD"), "\n"))
}

func TestRepo_CleanCheckoutIsNoOp(t *testing.T) {
	repo, remote := testutil.RepoWithRemote(t)
	before := testutil.GitCmd(t, remote, "rev-parse", "master")
	s, out, _ := openRepo(t, repo, nil)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoOp, res.Outcome)
	assert.Equal(t, 1, commitCount(t, repo))
	assert.Equal(t, before, testutil.GitCmd(t, remote, "rev-parse", "master"))
	assert.Contains(t, out.String(), testStamp, "completion is still reported")
}

func TestRepo_UncommittedChangesAreCommittedAndPushed(t *testing.T) {
	repo, remote := testutil.RepoWithRemote(t)
	testutil.WriteFile(t, repo, "notes/today.md", "new file\n")
	testutil.WriteFile(t, repo, "README.md", "# edited\n")
	s, _, _ := openRepo(t, repo, nil)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCommittedAndPushed, res.Outcome)
	assert.Equal(t, 2, commitCount(t, repo), "exactly one new commit")
	assert.Equal(t, "Auto-sync: "+testStamp, testutil.GitCmd(t, repo, "log", "-1", "--format=%s"))

	head := testutil.GitCmd(t, repo, "rev-parse", "HEAD")
	assert.Equal(t, head, res.CommitSHA)
	assert.Equal(t, head, testutil.GitCmd(t, remote, "rev-parse", "master"), "remote tip equals the new local commit")
	assert.Empty(t, testutil.GitCmd(t, repo, "status", "--porcelain"))
}

func TestRepo_DeletionsAreStaged(t *testing.T) {
	repo, remote := testutil.RepoWithRemote(t)
	require.NoError(t, os.Remove(filepath.Join(repo, "README.md")))
	s, _, _ := openRepo(t, repo, nil)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommittedAndPushed, res.Outcome)
	assert.Empty(t, testutil.GitCmd(t, remote, "ls-tree", "--name-only", "master"))
}

func TestRepo_LocalCommitsArePushed(t *testing.T) {
	repo, remote := testutil.RepoWithRemote(t)
	testutil.WriteFile(t, repo, "a.txt", "a")
	head := testutil.CommitAll(t, repo, "made by another tool")
	s, _, _ := openRepo(t, repo, nil)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomePushed, res.Outcome)
	assert.False(t, res.Committed)
	assert.Equal(t, head, testutil.GitCmd(t, remote, "rev-parse", "master"))
}

func TestRepo_BackToBackRuns(t *testing.T) {
	repo, _ := testutil.RepoWithRemote(t)
	testutil.WriteFile(t, repo, "a.txt", "a")
	s, _, _ := openRepo(t, repo, nil)

	first, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommittedAndPushed, first.Outcome)

	second, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoOp, second.Outcome)
	assert.Equal(t, 2, commitCount(t, repo))
}

func TestRepo_RemoteURLOverwrite(t *testing.T) {
	repo, remote := testutil.RepoWithRemote(t)

	t.Run("same URL is idempotent", func(t *testing.T) {
		s, _, _ := openRepo(t, repo, func(c *config.Config) { c.Sync.RemoteURL = remote })

		for i := 0; i < 2; i++ {
			res, err := s.Run(context.Background())
			require.NoError(t, err)
			assert.False(t, res.RemoteURLChanged)
		}
		assert.Equal(t, remote, testutil.GitCmd(t, repo, "remote", "get-url", "origin"))
	})

	t.Run("different URL is forced", func(t *testing.T) {
		mirror := testutil.BareRemote(t)
		s, _, _ := openRepo(t, repo, func(c *config.Config) { c.Sync.RemoteURL = mirror })

		res, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.True(t, res.RemoteURLChanged)
		assert.Equal(t, mirror, testutil.GitCmd(t, repo, "remote", "get-url", "origin"))
		assert.Equal(t, testutil.GitCmd(t, repo, "rev-parse", "HEAD"), testutil.GitCmd(t, mirror, "rev-parse", "master"),
			"first push to the new remote creates the branch")
	})
}

func TestRepo_SyncBeforeCommit(t *testing.T) {
	repo, remote := testutil.RepoWithRemote(t)
	theirs := testutil.PushFromClone(t, remote, "theirs.txt", "from elsewhere\n")
	testutil.WriteFile(t, repo, "mine.txt", "local edit\n")
	s, _, _ := openRepo(t, repo, func(c *config.Config) { c.Sync.SyncBeforeCommit = true })

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCommittedAndPushed, res.Outcome)
	assert.Equal(t, "origin/master", res.RebaseOnto)
	assert.Equal(t, "Auto-sync [master]: "+testStamp, testutil.GitCmd(t, repo, "log", "-1", "--format=%s"))
	assert.Equal(t, theirs, testutil.GitCmd(t, repo, "rev-parse", "HEAD~1"), "local commit sits on top of the remote")
	assert.Equal(t, testutil.GitCmd(t, repo, "rev-parse", "HEAD"), testutil.GitCmd(t, remote, "rev-parse", "master"))
}

func TestRepo_SyncBeforeCommitConflictHalts(t *testing.T) {
	repo, remote := testutil.RepoWithRemote(t)
	before := testutil.PushFromClone(t, remote, "README.md", "theirs\n")
	testutil.WriteFile(t, repo, "README.md", "ours\n")
	testutil.CommitAll(t, repo, "our edit")
	testutil.WriteFile(t, repo, "pending.txt", "not yet committed\n")
	s, out, diag := openRepo(t, repo, func(c *config.Config) { c.Sync.SyncBeforeCommit = true })

	res, err := s.Run(context.Background())
	require.ErrorIs(t, err, autosyncerrors.ErrRebaseConflict)

	assert.Equal(t, OutcomeAbortedConflict, res.Outcome)
	assert.False(t, res.Committed)
	assert.Equal(t, before, testutil.GitCmd(t, remote, "rev-parse", "master"), "nothing was pushed")
	assert.Empty(t, out.String())
	assert.Contains(t, diag.String(), "resolve them manually")

	rebaseDir := testutil.GitCmd(t, repo, "rev-parse", "--git-path", "rebase-merge")
	if !filepath.IsAbs(rebaseDir) {
		rebaseDir = filepath.Join(repo, rebaseDir)
	}
	assert.DirExists(t, rebaseDir, "rebase is left in progress")

	t.Run("next run refuses until resolved", func(t *testing.T) {
		res, err := s.Run(context.Background())
		require.ErrorIs(t, err, autosyncerrors.ErrRebaseConflict)
		assert.Equal(t, OutcomeAbortedConflict, res.Outcome)
	})
}

func TestRepo_PushRejectedPolicies(t *testing.T) {
	t.Run("fail", func(t *testing.T) {
		repo, remote := testutil.RepoWithRemote(t)
		theirs := testutil.PushFromClone(t, remote, "theirs.txt", "x\n")
		testutil.WriteFile(t, repo, "mine.txt", "y\n")
		s, _, _ := openRepo(t, repo, nil)

		res, err := s.Run(context.Background())
		require.ErrorIs(t, err, autosyncerrors.ErrPushRejected)
		assert.Equal(t, OutcomePushRejected, res.Outcome)
		assert.True(t, res.Committed)
		assert.Equal(t, theirs, testutil.GitCmd(t, remote, "rev-parse", "master"))
		assert.Equal(t, 1, res.Ahead, "the local commit is still waiting")
	})

	t.Run("rebase", func(t *testing.T) {
		repo, remote := testutil.RepoWithRemote(t)
		testutil.PushFromClone(t, remote, "theirs.txt", "x\n")
		testutil.WriteFile(t, repo, "mine.txt", "y\n")
		s, _, _ := openRepo(t, repo, func(c *config.Config) { c.Sync.OnPushRejected = "rebase" })

		res, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, OutcomeCommittedAndPushed, res.Outcome)
		assert.True(t, res.RebasedAfterReject)
		head := testutil.GitCmd(t, repo, "rev-parse", "HEAD")
		assert.Equal(t, head, res.CommitSHA)
		assert.Equal(t, head, testutil.GitCmd(t, remote, "rev-parse", "master"))
	})
}

func TestRepo_DetachedHeadPushesToDefaultBranch(t *testing.T) {
	repo, remote := testutil.RepoWithRemote(t)
	testutil.GitCmd(t, repo, "checkout", "-q", "--detach")
	testutil.WriteFile(t, repo, "detached.txt", "d\n")
	s, _, _ := openRepo(t, repo, nil)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.BranchFallback)
	assert.Equal(t, "master", res.Branch)
	assert.Equal(t, testutil.GitCmd(t, repo, "rev-parse", "HEAD"), testutil.GitCmd(t, remote, "rev-parse", "master"))
}

func TestRepo_FirstPushCreatesBranch(t *testing.T) {
	remote := testutil.BareRemote(t)
	repo := testutil.InitRepo(t)
	testutil.WriteFile(t, repo, "first.txt", "1\n")
	s, _, _ := openRepo(t, repo, func(c *config.Config) {
		c.Sync.RemoteURL = remote
		c.Sync.SyncBeforeCommit = true
	})

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommittedAndPushed, res.Outcome)
	assert.True(t, res.RemoteURLChanged, "origin is added when missing")
	assert.Equal(t, testutil.GitCmd(t, repo, "rev-parse", "HEAD"), testutil.GitCmd(t, remote, "rev-parse", "master"))
	assert.Equal(t, "origin/master", testutil.GitCmd(t, repo, "rev-parse", "--abbrev-ref", "@{upstream}"))
}

func TestRepo_UnbornBranchIsNoOp(t *testing.T) {
	repo := testutil.InitRepo(t)
	testutil.GitCmd(t, repo, "remote", "add", "origin", testutil.BareRemote(t))
	s, _, _ := openRepo(t, repo, nil)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoOp, res.Outcome)
	assert.True(t, res.PushSkipped)
}

func TestRepo_LockFileLivesInGitDir(t *testing.T) {
	repo, _ := testutil.RepoWithRemote(t)
	s, _, _ := openRepo(t, repo, nil)

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(repo, ".git", flock.LockFileName))
	assert.Empty(t, testutil.GitCmd(t, repo, "status", "--porcelain"), "lock file is not picked up by add -A")
}

func TestOpen_NotARepository(t *testing.T) {
	_, err := Open(context.Background(), t.TempDir(), config.DefaultConfig(), zerolog.Nop())
	require.ErrorIs(t, err, autosyncerrors.ErrNotGitRepo)
}

func TestOpen_NilConfig(t *testing.T) {
	_, err := Open(context.Background(), t.TempDir(), nil, zerolog.Nop())
	require.ErrorIs(t, err, autosyncerrors.ErrConfigNil)
}
