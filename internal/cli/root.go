// Package cli provides the command-line interface for autosync.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/autosync/internal/errors"
	"github.com/mrz1836/autosync/internal/signal"
	"github.com/mrz1836/autosync/internal/tui"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	// Version is the semantic version (e.g., "1.0.0").
	Version string
	// Commit is the git commit hash.
	Commit string
	// Date is the build date.
	Date string
}

// globalLogger stores the initialized logger for use by subcommands.
// This is set during PersistentPreRunE and should be accessed via GetLogger.
// Access is protected by globalLoggerMu for thread safety.
var (
	globalLogger   zerolog.Logger //nolint:gochecknoglobals // CLI logger requires global access
	globalLoggerMu sync.RWMutex   //nolint:gochecknoglobals // Protects globalLogger
)

// GetLogger returns the initialized logger for use by subcommands.
//
// It MUST only be called after the root command's PersistentPreRunE has
// executed. Before that it returns a zero-value logger that discards output.
func GetLogger() zerolog.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// newRootCmd creates and returns the root command for the autosync CLI.
func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "autosync",
		Short: "Commit and push a working copy without asking",
		Long: `autosync keeps a checkout and its remote in step.

Each run pins the remote to its canonical URL, optionally rebases onto the
remote branch, stages everything, commits only when something is staged,
and pushes. Run it once with 'autosync run' or keep it going with
'autosync watch'.`,
		Version: formatVersion(info),
		// Run displays help when the root command is invoked without subcommands.
		// This ensures PersistentPreRunE is called for flag validation.
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}

			// flags left at their defaults pick up AUTOSYNC_* values
			flags.Output = v.GetString("output")
			flags.Verbose = v.GetBool("verbose")
			flags.Quiet = v.GetBool("quiet")

			if !IsValidOutputFormat(flags.Output) {
				return fmt.Errorf("%w: %q must be one of %v", errors.ErrInvalidOutputFormat, flags.Output, ValidOutputFormats())
			}

			globalLoggerMu.Lock()
			globalLogger = InitLogger(flags.Verbose, flags.Quiet)
			globalLoggerMu.Unlock()

			return nil
		},
		// Errors are printed by Execute with their suggested fix.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(cmd, flags)

	AddRunCommand(cmd, flags)
	AddWatchCommand(cmd, flags)
	AddStatusCommand(cmd, flags)
	AddConfigCommand(cmd, flags)
	AddInitCommand(cmd, flags)

	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the provided context and build info.
// A returned error has already been printed; map it with ExitCodeForError.
func Execute(ctx context.Context, info BuildInfo) error {
	flags := &GlobalFlags{}
	//nolint:contextcheck // Cobra command pattern uses cmd.Context() internally
	return execute(ctx, newRootCmd(flags, info), flags)
}

// execute runs cmd under a context that SIGINT and SIGTERM cancel, so an
// interrupted run stops its git subprocess instead of leaving it behind.
func execute(ctx context.Context, cmd *cobra.Command, flags *GlobalFlags) error {
	h := signal.NewHandler(ctx)
	defer h.Stop()

	err := cmd.ExecuteContext(h.Context())
	var shown *reportedError
	if err != nil && !stderrors.As(err, &shown) {
		reportError(cmd.ErrOrStderr(), flags.Output, err)
	}
	CloseLogFile()
	return err
}

// reportedError marks an error whose diagnostic a command already wrote.
// errors.Is and ExitCodeForError see through it.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// reportError prints err with its suggested fix in the chosen output format.
func reportError(w io.Writer, format string, err error) {
	if format != OutputJSON {
		format = OutputText
	}
	tui.NewOutput(w, format).Error(tui.FromError(err))
}
