// Package git provides the git operations autosync runs against a checkout.
// This file provides repository detection with worktree support.
package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
)

// RepoInfo contains information about a git repository.
type RepoInfo struct {
	// WorktreePath is the top level of the checkout being synced.
	WorktreePath string

	// GitDir is the absolute per-worktree git directory. The run lock lives here.
	GitDir string

	// IsWorktree indicates a linked worktree (GitDir sits under <common>/worktrees/).
	IsWorktree bool

	// MainRepoPath is the main checkout that owns a linked worktree. It equals
	// WorktreePath otherwise. Project config is inherited from here.
	MainRepoPath string
}

// DetectRepo returns information about the git repository containing path.
func DetectRepo(ctx context.Context, path string) (*RepoInfo, error) {
	toplevel, err := RunCommand(ctx, path, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", autosyncerrors.ErrNotGitRepo, err)
	}

	gitDir, err := RunCommand(ctx, path, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return nil, err
	}

	info := &RepoInfo{
		WorktreePath: filepath.Clean(toplevel),
		GitDir:       filepath.Clean(gitDir),
		IsWorktree:   strings.Contains(filepath.ToSlash(gitDir), "/worktrees/"),
	}
	info.MainRepoPath = info.WorktreePath

	if info.IsWorktree {
		commonDir, err := RunCommand(ctx, path, "rev-parse", "--git-common-dir")
		if err != nil {
			return nil, err
		}
		if !filepath.IsAbs(commonDir) {
			commonDir = filepath.Join(path, commonDir)
		}
		// a bare common dir has no checkout to inherit from
		if filepath.Base(commonDir) == ".git" {
			info.MainRepoPath = filepath.Dir(filepath.Clean(commonDir))
		}
	}

	return info, nil
}
