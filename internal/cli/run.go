package cli

import (
	"bytes"
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrz1836/autosync/internal/config"
	"github.com/mrz1836/autosync/internal/syncer"
	"github.com/mrz1836/autosync/internal/tui"
)

// openSyncer builds the Syncer for the resolved checkout.
func openSyncer(ctx context.Context, ec *ExecutionContext, logger zerolog.Logger, options ...syncer.Option) (*syncer.Syncer, error) {
	return syncer.Open(ctx, ec.WorkDir, ec.Config, logger, options...)
}

// AddRunCommand adds the run command to the root command.
func AddRunCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newRunCmd(flags))
}

func newRunCmd(flags *GlobalFlags) *cobra.Command {
	var sf syncFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sync the checkout once",
		Long: `Run the sync procedure once: pin the remote URL, optionally fetch and
rebase, stage everything, commit if anything is staged, and push.

Exit codes:
  0  nothing to do, or everything was pushed
  1  a step failed (the commit, if any, is kept locally)
  2  invalid flags or configuration
  3  the rebase stopped on conflicts; resolve them and run again
  4  the remote rejected the push`,
		Example: `  # Sync the current checkout
  autosync run

  # Rebase onto origin first and pin its URL
  autosync run --sync-before-commit --remote-url git@github.com:me/notes.git

  # Machine-readable result
  autosync run -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), cmd, flags, &sf)
		},
	}

	addSyncFlags(cmd, &sf)
	return cmd
}

// runSync resolves the checkout, runs one sync and reports the result.
// In text mode the completion line goes to stdout and diagnostics to
// stderr; in JSON mode the Result is the only thing on stdout.
func runSync(ctx context.Context, cmd *cobra.Command, flags *GlobalFlags, sf *syncFlags) error {
	ec, err := resolveForSync(ctx, cmd, flags, sf)
	if err != nil {
		return err
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	// held back until the spinner has cleared its line
	var outBuf, diagBuf bytes.Buffer
	var out io.Writer = &outBuf
	if flags.Output == OutputJSON {
		out = io.Discard
	}

	s, err := openSyncer(ctx, ec, GetLogger(),
		syncer.WithOutput(out),
		syncer.WithDiagnostics(&diagBuf),
	)
	if err != nil {
		return err
	}

	spin := tui.NewSpinner(stderr)
	if flags.Output != OutputJSON && !flags.Quiet {
		spin.Start(ctx, "Syncing "+ec.WorkDir)
	}
	res, runErr := s.Run(ctx)
	spin.Stop()

	diagWritten := diagBuf.Len() > 0
	_, _ = diagBuf.WriteTo(stderr)
	_, _ = outBuf.WriteTo(stdout)

	if res != nil && flags.Output == OutputJSON {
		if err := tui.NewOutput(stdout, tui.FormatJSON).JSON(res); err != nil {
			return err
		}
	}
	if runErr != nil && diagWritten {
		return &reportedError{err: runErr}
	}
	return runErr
}

// resolveForSync loads the configuration of the target checkout with the
// sync flags layered on top.
func resolveForSync(ctx context.Context, cmd *cobra.Command, flags *GlobalFlags, sf *syncFlags) (*ExecutionContext, error) {
	ec, err := ResolveExecutionContext(ctx, sf.dir, flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := sf.apply(cmd, ec.Config); err != nil {
		return nil, err
	}
	logEffectiveSync(GetLogger(), ec.Config)
	return ec, nil
}

func logEffectiveSync(logger zerolog.Logger, cfg *config.Config) {
	logger.Debug().
		Str("remote", cfg.Sync.Remote).
		Bool("sync_before_commit", cfg.Sync.SyncBeforeCommit).
		Str("on_push_rejected", cfg.Sync.OnPushRejected).
		Msg("effective sync settings")
}
