package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/autosync/internal/constants"
	"github.com/mrz1836/autosync/internal/errors"
)

// GlobalConfigDir returns the path to the global autosync directory:
// $AUTOSYNC_HOME when set, otherwise ~/.autosync.
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigDir() (string, error) {
	if dir := os.Getenv(constants.HomeEnvVar); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.AutosyncHome), nil
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.GlobalConfigName), nil
}

// ProjectConfigDir returns the project configuration directory of a repository.
func ProjectConfigDir(repoRoot string) string {
	return filepath.Join(repoRoot, constants.ProjectConfigDir)
}

// ProjectConfigPath returns the project configuration file of a repository.
func ProjectConfigPath(repoRoot string) string {
	return filepath.Join(ProjectConfigDir(repoRoot), constants.ProjectConfigName)
}

// Paths lists the config files merged into an effective Config, lowest
// precedence first. Empty entries are skipped.
type Paths struct {
	Global   string
	MainRepo string
	Project  string
}

// ResolvePaths returns the config files for a checkout. mainRepoRoot is the
// main checkout of a linked worktree and may be empty. A non-empty
// explicitFile replaces the project config file.
func ResolvePaths(repoRoot, mainRepoRoot, explicitFile string) Paths {
	var p Paths
	if global, err := GlobalConfigPath(); err == nil {
		p.Global = global
	}
	if mainRepoRoot != "" && mainRepoRoot != repoRoot {
		p.MainRepo = ProjectConfigPath(mainRepoRoot)
	}
	switch {
	case explicitFile != "":
		p.Project = explicitFile
	case repoRoot != "":
		p.Project = ProjectConfigPath(repoRoot)
	}
	return p
}
