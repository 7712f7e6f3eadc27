package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
)

func TestInspect(t *testing.T) {
	t.Run("unborn repo without remote", func(t *testing.T) {
		repoPath := setupTestRepo(t)

		snap, err := Inspect(repoPath, "origin")
		require.NoError(t, err)
		assert.Equal(t, "master", snap.Branch)
		assert.Empty(t, snap.Head)
		assert.Empty(t, snap.RemoteURLs)
		assert.Equal(t, -1, snap.Ahead)
	})

	t.Run("in sync with remote", func(t *testing.T) {
		repoPath, remote := setupRepoWithRemote(t)

		snap, err := Inspect(repoPath, "origin")
		require.NoError(t, err)
		assert.Equal(t, []string{remote}, snap.RemoteURLs)
		assert.Equal(t, gitCmd(t, repoPath, "rev-parse", "HEAD"), snap.Head)
		assert.Equal(t, snap.Head, snap.TrackingHead)
		assert.Equal(t, 0, snap.Ahead)
		assert.Equal(t, 0, snap.Behind)
	})

	t.Run("ahead and behind after divergence", func(t *testing.T) {
		repoPath, remote := setupRepoWithRemote(t)

		other := cloneRemote(t, remote)
		createFile(t, other, "o.txt", "o")
		commitAll(t, other, "theirs")
		gitCmd(t, other, "push", "origin", "master")

		createFile(t, repoPath, "a.txt", "a")
		commitAll(t, repoPath, "ours 1")
		createFile(t, repoPath, "b.txt", "b")
		commitAll(t, repoPath, "ours 2")
		gitCmd(t, repoPath, "fetch", "origin")

		snap, err := Inspect(repoPath, "origin")
		require.NoError(t, err)
		assert.Equal(t, 2, snap.Ahead)
		assert.Equal(t, 1, snap.Behind)
	})

	t.Run("detached head", func(t *testing.T) {
		repoPath, _ := setupRepoWithRemote(t)
		gitCmd(t, repoPath, "checkout", "-q", "--detach")

		snap, err := Inspect(repoPath, "origin")
		require.NoError(t, err)
		assert.True(t, snap.Detached)
		assert.Empty(t, snap.Branch)
		assert.NotEmpty(t, snap.Head)
	})

	t.Run("not a repository", func(t *testing.T) {
		_, err := Inspect(t.TempDir(), "origin")
		require.ErrorIs(t, err, autosyncerrors.ErrNotGitRepo)
	})
}
