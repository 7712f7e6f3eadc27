package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/autosync/internal/errors"
)

func TestFormatVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "dev (commit: none, built: unknown)", formatVersion(BuildInfo{}))
	assert.Equal(t, "1.2.3 (commit: abc123, built: 2026-01-02)",
		formatVersion(BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-02"}))
}

func TestRootCmd_Subcommands(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{})
	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"run", "watch", "status", "config", "init"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_InvalidOutputFormat(t *testing.T) {
	isolateCLI(t)

	_, _, err := executeCLI(context.Background(), t, "-o", "yaml", "status")
	require.ErrorIs(t, err, errors.ErrInvalidOutputFormat)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestRootCmd_OutputFromEnv(t *testing.T) {
	isolateCLI(t)
	t.Setenv("AUTOSYNC_OUTPUT", "xml")

	_, _, err := executeCLI(context.Background(), t, "status")
	require.ErrorIs(t, err, errors.ErrInvalidOutputFormat)
}

func TestRootCmd_VerboseAndQuietConflict(t *testing.T) {
	isolateCLI(t)

	_, _, err := executeCLI(context.Background(), t, "-v", "-q", "status")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestRootCmd_Version(t *testing.T) {
	isolateCLI(t)

	out, _, err := executeCLI(context.Background(), t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "test (commit: none")
}

func TestReportError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("sync: %w", errors.ErrLockHeld)

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		reportError(&buf, OutputText, err)
		assert.Contains(t, buf.String(), "Try:")
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		reportError(&buf, OutputJSON, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "error", got["type"])
		assert.NotEmpty(t, got["suggestion"])
	})
}

func TestReportedError_KeepsExitCode(t *testing.T) {
	t.Parallel()

	err := &reportedError{err: fmt.Errorf("rebase: %w", errors.ErrRebaseConflict)}

	require.ErrorIs(t, err, errors.ErrRebaseConflict)
	assert.Equal(t, ExitConflict, ExitCodeForError(err))
	assert.Equal(t, "rebase: "+errors.ErrRebaseConflict.Error(), err.Error())
}
