package testutil

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// GitCmd runs git in dir and returns trimmed stdout, failing the test on error.
func GitCmd(t testing.TB, dir string, args ...string) string {
	t.Helper()

	cmd := exec.CommandContext(context.Background(), "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

// ConfigureUser sets a commit identity so tests don't depend on global git config.
func ConfigureUser(t testing.TB, dir string) {
	t.Helper()
	GitCmd(t, dir, "config", "user.email", "test@autosync.local")
	GitCmd(t, dir, "config", "user.name", "Autosync Test")
	GitCmd(t, dir, "config", "commit.gpgsign", "false")
}

// InitRepo creates a temporary git repository on branch master.
func InitRepo(t testing.TB) string {
	t.Helper()

	dir := t.TempDir()
	GitCmd(t, dir, "init", "--initial-branch=master")
	ConfigureUser(t, dir)
	return dir
}

// BareRemote creates an empty bare repository and returns its path.
func BareRemote(t testing.TB) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "remote.git")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	GitCmd(t, dir, "init", "--bare", "--initial-branch=master")
	return dir
}

// Clone clones remote into a fresh temp dir with a commit identity configured.
func Clone(t testing.TB, remote string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "clone")
	GitCmd(t, filepath.Dir(dir), "clone", "-q", remote, dir)
	ConfigureUser(t, dir)
	return dir
}

// WriteFile writes content to name inside repo, creating parent directories.
func WriteFile(t testing.TB, repo, name, content string) {
	t.Helper()
	path := filepath.Join(repo, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// CommitAll stages everything, commits with message and returns the new HEAD.
func CommitAll(t testing.TB, repo, message string) string {
	t.Helper()
	GitCmd(t, repo, "add", "-A")
	GitCmd(t, repo, "commit", "-q", "-m", message)
	return GitCmd(t, repo, "rev-parse", "HEAD")
}

// RepoWithRemote returns a repo whose single commit is pushed to a bare origin
// with master tracking origin/master.
func RepoWithRemote(t testing.TB) (repo, remote string) {
	t.Helper()

	remote = BareRemote(t)
	repo = InitRepo(t)
	GitCmd(t, repo, "remote", "add", "origin", remote)
	WriteFile(t, repo, "README.md", "# test\n")
	CommitAll(t, repo, "initial commit")
	GitCmd(t, repo, "push", "-q", "-u", "origin", "master")
	return repo, remote
}

// PushFromClone commits a file in a second clone of remote and pushes it,
// so the first checkout falls behind.
func PushFromClone(t testing.TB, remote, name, content string) string {
	t.Helper()

	other := Clone(t, remote)
	WriteFile(t, other, name, content)
	head := CommitAll(t, other, "remote change "+name)
	GitCmd(t, other, "push", "-q", "origin", "HEAD")
	return head
}
