package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/mrz1836/autosync/internal/constants"
)

// isolateCLI points every config and log location at temp dirs and clears
// AUTOSYNC_* so the developer's environment cannot leak into a test.
func isolateCLI(t *testing.T) string {
	t.Helper()

	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "AUTOSYNC_") {
			t.Setenv(key, "")
			_ = os.Unsetenv(key)
		}
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(constants.HomeEnvVar, home)
	t.Setenv("NO_COLOR", "1")
	t.Cleanup(CloseLogFile)
	return home
}

// executeCLI runs the root command with args and captures its output.
func executeCLI(ctx context.Context, t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{Version: "test"})
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

// executeRoot is executeCLI through the same error reporting as Execute.
func executeRoot(ctx context.Context, t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, BuildInfo{Version: "test"})
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = execute(ctx, cmd, flags)
	return out.String(), errOut.String(), err
}

// mockFormRunner implements formRunner for tests.
type mockFormRunner struct {
	// runErr is the error to return from Run()
	runErr error

	// onRun simulates user input by modifying form values
	onRun func()
}

func (m *mockFormRunner) Run() error {
	if m.onRun != nil {
		m.onRun()
	}
	return m.runErr
}

// mockTerminalCheckFunc replaces terminalCheck; call the returned func to restore it.
func mockTerminalCheckFunc(isTerminal bool) func() {
	original := terminalCheck
	terminalCheck = func() bool { return isTerminal }
	return func() { terminalCheck = original }
}
