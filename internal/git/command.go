// Package git provides the git operations autosync runs against a checkout.
// This file provides shared git command execution utilities.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
	"github.com/mrz1836/autosync/internal/logging"
)

// CommandError describes a git invocation that exited non-zero.
// It unwraps to ErrGitOperation so callers can keep using errors.Is.
type CommandError struct {
	Args     []string
	Stderr   string
	ExitCode int
}

// Error renders the failing subcommand and its stderr, with credentials redacted.
func (e *CommandError) Error() string {
	sub := ""
	if len(e.Args) > 0 {
		sub = e.Args[0]
	}
	if e.Stderr != "" {
		return fmt.Sprintf("git %s failed: %s: %s", sub, logging.FilterSensitiveValue(e.Stderr), autosyncerrors.ErrGitOperation)
	}
	return fmt.Sprintf("git %s failed (exit %d): %s", sub, e.ExitCode, autosyncerrors.ErrGitOperation)
}

// Unwrap returns ErrGitOperation.
func (e *CommandError) Unwrap() error {
	return autosyncerrors.ErrGitOperation
}

// ExitCode extracts the git exit status from err, or -1 when err is not a CommandError.
func ExitCode(err error) int {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return -1
}

// commandOutput holds the raw streams of one git invocation.
type commandOutput struct {
	Stdout string
	Stderr string
}

// RunCommand executes a git command in the specified directory and returns its trimmed stdout.
// Failures are returned as *CommandError (wrapping ErrGitOperation) including stderr.
func RunCommand(ctx context.Context, workDir string, args ...string) (string, error) {
	out, err := runCommand(ctx, workDir, args...)
	return strings.TrimSpace(out.Stdout), err
}

// runCommand executes git and returns both streams even when the command fails,
// which push needs to parse porcelain output of a rejected update.
func runCommand(ctx context.Context, workDir string, args ...string) (commandOutput, error) {
	cmd := exec.CommandContext(ctx, "git", args...) //#nosec G204 -- args are constructed internally
	cmd.Dir = workDir
	// Unattended runs must never block on a credential prompt, and the
	// classifier matches English messages.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := commandOutput{Stdout: stdout.String(), Stderr: strings.TrimSpace(stderr.String())}
	if err != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return out, fmt.Errorf("git %s: %w: %w", args[0], err, autosyncerrors.ErrGitOperation)
		}
		return out, &CommandError{Args: args, Stderr: out.Stderr, ExitCode: exitCode}
	}

	return out, nil
}
