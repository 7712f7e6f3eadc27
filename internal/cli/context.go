package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mrz1836/autosync/internal/config"
	"github.com/mrz1836/autosync/internal/errors"
	"github.com/mrz1836/autosync/internal/git"
)

// ExecutionContext holds the resolved checkout and merged config for a command.
type ExecutionContext struct {
	// WorkDir is the top level of the checkout being synced.
	WorkDir string

	// GitDir is the per-worktree git directory.
	GitDir string

	// MainRepoPath is the main checkout a linked worktree inherits config from.
	MainRepoPath string

	// IsWorktree indicates if WorkDir is a linked worktree.
	IsWorktree bool

	// Paths lists the config files that were merged.
	Paths config.Paths

	// Config is the merged configuration.
	Config *config.Config
}

// ResolveExecutionContext finds the checkout containing dir (the current
// directory when empty) and loads its configuration.
//
// Config is loaded with worktree inheritance:
//   - global config ($AUTOSYNC_HOME/config.yaml) - lowest precedence
//   - main repo config (<main-repo>/.autosync/config.yaml)
//   - project config (<worktree>/.autosync/config.yaml, or configFile)
//   - AUTOSYNC_* environment variables - highest precedence
func ResolveExecutionContext(ctx context.Context, dir, configFile string) (*ExecutionContext, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		dir = cwd
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, errors.NewExitCode2Error(fmt.Errorf("config file %s: %w", configFile, err))
		}
	}

	info, err := git.DetectRepo(ctx, dir)
	if err != nil {
		return nil, err
	}

	ec := &ExecutionContext{
		WorkDir:      info.WorktreePath,
		GitDir:       info.GitDir,
		MainRepoPath: info.MainRepoPath,
		IsWorktree:   info.IsWorktree,
		Paths:        config.ResolvePaths(info.WorktreePath, info.MainRepoPath, configFile),
	}

	ec.Config, err = config.LoadPaths(ctx, ec.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return ec, nil
}
