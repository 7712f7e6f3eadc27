package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/autosync/internal/config"
	"github.com/mrz1836/autosync/internal/errors"
	"github.com/mrz1836/autosync/internal/schedule"
	"github.com/mrz1836/autosync/internal/syncer"
	"github.com/mrz1836/autosync/internal/tui"
)

// watchFlags are the schedule settings accepted by watch.
type watchFlags struct {
	interval   time.Duration
	debounce   time.Duration
	watchFiles bool
	runOnStart bool
}

// AddWatchCommand adds the watch command to the root command.
func AddWatchCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newWatchCmd(flags))
}

func newWatchCmd(flags *GlobalFlags) *cobra.Command {
	var (
		sf syncFlags
		wf watchFlags
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync the checkout on an interval and on file changes",
		Long: `Keep syncing until interrupted. A run starts every --interval and, with
--watch-files, shortly after files in the checkout change. Triggers that
arrive while a run is in progress join that run.

A failed run is logged and retried on the next trigger. A rebase that
stops on conflicts ends the watch with exit code 3, since no later run
can succeed until the conflict is resolved.`,
		Example: `  # Sync every minute and whenever files change
  autosync watch --interval 1m --watch-files

  # One JSON result per line
  autosync watch -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), cmd, flags, &sf, &wf)
		},
	}

	addSyncFlags(cmd, &sf)
	cmd.Flags().DurationVar(&wf.interval, "interval", 0, "time between runs (default from config, 5m)")
	cmd.Flags().DurationVar(&wf.debounce, "debounce", 0, "quiet period after a file change before running")
	cmd.Flags().BoolVar(&wf.watchFiles, "watch-files", false, "also run when files in the checkout change")
	cmd.Flags().BoolVar(&wf.runOnStart, "run-on-start", false, "run once immediately instead of waiting for the first tick")
	return cmd
}

// apply layers the schedule flags that were set over cfg and re-validates it.
func (f *watchFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("watch-files") {
		cfg.Schedule.WatchFiles = f.watchFiles
	}
	if cmd.Flags().Changed("run-on-start") {
		cfg.Schedule.RunOnStart = f.runOnStart
	}

	overrides := &config.Config{
		Schedule: config.ScheduleConfig{Interval: f.interval, Debounce: f.debounce},
	}
	if err := config.ApplyOverrides(cfg, overrides); err != nil {
		return errors.NewExitCode2Error(err)
	}
	return nil
}

func runWatch(ctx context.Context, cmd *cobra.Command, flags *GlobalFlags, sf *syncFlags, wf *watchFlags) error {
	ec, err := resolveForSync(ctx, cmd, flags, sf)
	if err != nil {
		return err
	}
	if err := wf.apply(cmd, ec.Config); err != nil {
		return err
	}

	logger := GetLogger()
	stats := schedule.NewStats()

	s, err := openSyncer(ctx, ec, logger,
		syncer.WithOutput(io.Discard),
		syncer.WithDiagnostics(io.Discard),
		syncer.WithMetrics(stats),
	)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	report := newWatchReporter(w, flags.Output, s.Options().TimestampFormat)

	sched, err := schedule.New(s, ec.Config.Schedule,
		schedule.WithLogger(logger),
		schedule.WithResultHandler(report.result),
		schedule.WithWatchRoot(ec.WorkDir),
	)
	if err != nil {
		return err
	}

	report.started(ec.WorkDir, ec.Config.Schedule)
	runErr := sched.Run(ctx)
	report.stopped(stats.Snapshot())

	return runErr
}

// watchReporter prints one line per run: styled text, or a JSON object.
type watchReporter struct {
	w      io.Writer
	json   bool
	layout string
	out    tui.Output
}

func newWatchReporter(w io.Writer, format, layout string) *watchReporter {
	if format != OutputJSON {
		format = OutputText
	}
	return &watchReporter{
		w:      w,
		json:   format == OutputJSON,
		layout: layout,
		out:    tui.NewOutput(w, format),
	}
}

func (r *watchReporter) started(dir string, cfg config.ScheduleConfig) {
	if r.json {
		return
	}
	msg := fmt.Sprintf("Watching %s every %s", dir, cfg.Interval)
	if cfg.WatchFiles {
		msg += " and on file changes"
	}
	r.out.Info(msg + " (Ctrl+C to stop)")
}

func (r *watchReporter) result(res *syncer.Result, _ error) {
	if res == nil {
		return
	}
	if r.json {
		_ = json.NewEncoder(r.w).Encode(res)
		return
	}
	_, _ = fmt.Fprintln(r.w, tui.RenderOutcome(res.Outcome, res.Summary(r.layout)))
}

func (r *watchReporter) stopped(snap schedule.Snapshot) {
	if r.json {
		_ = json.NewEncoder(r.w).Encode(struct {
			Stats schedule.Snapshot `json:"stats"`
		}{snap})
		return
	}
	r.out.Info(fmt.Sprintf("Stopped after %d runs (%d succeeded)", snap.Runs, snap.Successes()))
}
