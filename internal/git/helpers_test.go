package git

import (
	"testing"

	"github.com/mrz1836/autosync/internal/testutil"
)

// Thin aliases over testutil so the git tests read like the rest of the package.

func gitCmd(t *testing.T, dir string, args ...string) string {
	t.Helper()
	return testutil.GitCmd(t, dir, args...)
}

func setupTestRepo(t *testing.T) string {
	t.Helper()
	return testutil.InitRepo(t)
}

func cloneRemote(t *testing.T, remote string) string {
	t.Helper()
	return testutil.Clone(t, remote)
}

func createFile(t *testing.T, repoPath, filename, content string) {
	t.Helper()
	testutil.WriteFile(t, repoPath, filename, content)
}

func commitAll(t *testing.T, repoPath, message string) string {
	t.Helper()
	return testutil.CommitAll(t, repoPath, message)
}

func setupRepoWithRemote(t *testing.T) (repo, remote string) {
	t.Helper()
	return testutil.RepoWithRemote(t)
}
