package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/autosync/internal/constants"
	"github.com/mrz1836/autosync/internal/errors"
)

// isolateEnv points HOME at an empty directory and clears AUTOSYNC_* variables.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, env := range os.Environ() {
		key, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(key, EnvPrefix+"_") {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
	return home
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_ReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load(context.Background(), t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, constants.DefaultMessageTemplate, cfg.Sync.MessageTemplateOrDefault())
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	home := isolateEnv(t)
	repo := t.TempDir()

	writeConfig(t, filepath.Join(home, constants.AutosyncHome, constants.GlobalConfigName), `
sync:
  remote: upstream
  default_branch: trunk
schedule:
  interval: 2m
`)
	writeConfig(t, ProjectConfigPath(repo), `
sync:
  default_branch: main
  sync_before_commit: true
`)

	cfg, err := Load(context.Background(), repo)
	require.NoError(t, err)

	assert.Equal(t, "upstream", cfg.Sync.Remote, "global value survives when project does not set it")
	assert.Equal(t, "main", cfg.Sync.DefaultBranch, "project overrides global")
	assert.True(t, cfg.Sync.SyncBeforeCommit)
	assert.Equal(t, 2*time.Minute, cfg.Schedule.Interval, "durations decode from strings")
	assert.Equal(t, constants.DefaultRebaseMessageTemplate, cfg.Sync.MessageTemplateOrDefault())
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	isolateEnv(t)
	repo := t.TempDir()
	writeConfig(t, ProjectConfigPath(repo), "sync:\n  remote_url: https://example.com/a.git\n")

	t.Setenv("AUTOSYNC_SYNC_REMOTE_URL", "git@example.com:b.git")
	t.Setenv("AUTOSYNC_SYNC_ON_PUSH_REJECTED", "rebase")

	cfg, err := Load(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, "git@example.com:b.git", cfg.Sync.RemoteURL)
	assert.Equal(t, constants.PushRejectedRebase, cfg.Sync.OnPushRejected)
}

func TestLoad_InvalidFileValue(t *testing.T) {
	isolateEnv(t)
	repo := t.TempDir()
	writeConfig(t, ProjectConfigPath(repo), "sync:\n  on_push_rejected: force\n")

	_, err := Load(context.Background(), repo)
	require.ErrorIs(t, err, errors.ErrConfigInvalidSync)
}

func TestLoad_MalformedYAML(t *testing.T) {
	isolateEnv(t)
	repo := t.TempDir()
	writeConfig(t, ProjectConfigPath(repo), "sync: [unterminated\n")

	_, err := Load(context.Background(), repo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read project config")
}

func TestLoadWithWorktree(t *testing.T) {
	isolateEnv(t)
	mainRepo := t.TempDir()
	worktree := t.TempDir()

	writeConfig(t, ProjectConfigPath(mainRepo), "sync:\n  remote: upstream\n  default_branch: main\n")
	writeConfig(t, ProjectConfigPath(worktree), "sync:\n  default_branch: feature\n")

	cfg, err := LoadWithWorktree(context.Background(), mainRepo, worktree)
	require.NoError(t, err)
	assert.Equal(t, "upstream", cfg.Sync.Remote)
	assert.Equal(t, "feature", cfg.Sync.DefaultBranch)

	t.Run("same path reads the config once", func(t *testing.T) {
		cfg, err := LoadWithWorktree(context.Background(), mainRepo, mainRepo)
		require.NoError(t, err)
		assert.Equal(t, "main", cfg.Sync.DefaultBranch)
	})
}

func TestLoadFromPaths(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	global := filepath.Join(dir, "global.yaml")
	project := filepath.Join(dir, "custom.yml")
	writeConfig(t, global, "push:\n  max_attempts: 7\n")
	writeConfig(t, project, "push:\n  max_attempts: 2\n  multiplier: 1.5\n")

	cfg, err := LoadFromPaths(context.Background(), project, global)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Push.MaxAttempts)
	assert.InDelta(t, 1.5, cfg.Push.Multiplier, 0.0001)

	t.Run("missing files are skipped", func(t *testing.T) {
		cfg, err := LoadFromPaths(context.Background(), filepath.Join(dir, "nope.yaml"), "")
		require.NoError(t, err)
		assert.Equal(t, constants.MaxRetryAttempts, cfg.Push.MaxAttempts)
	})
}

func TestLoadWithOverrides(t *testing.T) {
	isolateEnv(t)
	repo := t.TempDir()
	writeConfig(t, ProjectConfigPath(repo), "sync:\n  remote_url: https://example.com/a.git\n")

	overrides := &Config{
		Sync:     SyncConfig{RemoteURL: "https://example.com/b.git", MessageTemplate: "wip {{.Timestamp}}"},
		Schedule: ScheduleConfig{Interval: 30 * time.Second},
	}

	cfg, err := LoadWithOverrides(context.Background(), ResolvePaths(repo, "", ""), overrides)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/b.git", cfg.Sync.RemoteURL)
	assert.Equal(t, "wip {{.Timestamp}}", cfg.Sync.MessageTemplate)
	assert.Equal(t, 30*time.Second, cfg.Schedule.Interval)
	assert.Equal(t, constants.DefaultRemote, cfg.Sync.Remote, "zero override keeps loaded value")

	t.Run("invalid override is rejected", func(t *testing.T) {
		bad := &Config{Sync: SyncConfig{MessageTemplate: "{{.Nope"}}
		_, err := LoadWithOverrides(context.Background(), ResolvePaths(repo, "", ""), bad)
		require.ErrorIs(t, err, errors.ErrInvalidTemplate)
	})
}

func TestApplyOverrides_NilConfig(t *testing.T) {
	require.ErrorIs(t, ApplyOverrides(nil, &Config{}), errors.ErrConfigNil)
}
