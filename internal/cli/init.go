package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/autosync/internal/config"
	"github.com/mrz1836/autosync/internal/constants"
	"github.com/mrz1836/autosync/internal/errors"
	"github.com/mrz1836/autosync/internal/git"
	"github.com/mrz1836/autosync/internal/tui"
)

// InitFlags holds flags specific to the init command.
type InitFlags struct {
	// NoInteractive skips all prompts and uses flag values and defaults.
	NoInteractive bool
	// Global writes the global config instead of the project config.
	Global bool
	// Force overwrites an existing config file.
	Force bool
	// Dir is the checkout whose project config is written.
	Dir string

	RemoteURL        string
	DefaultBranch    string
	SyncBeforeCommit bool
	OnPushRejected   string
	Interval         time.Duration
}

// initAnswers are the values the init form edits.
type initAnswers struct {
	RemoteURL        string
	DefaultBranch    string
	SyncBeforeCommit bool
	OnPushRejected   string
	Interval         string
}

// initFile is the document written by init. Only the settings a user is
// asked about are written; everything else keeps its default.
type initFile struct {
	Sync struct {
		RemoteURL        string `yaml:"remote_url,omitempty"`
		DefaultBranch    string `yaml:"default_branch"`
		SyncBeforeCommit bool   `yaml:"sync_before_commit"`
		OnPushRejected   string `yaml:"on_push_rejected"`
	} `yaml:"sync"`
	Schedule struct {
		Interval string `yaml:"interval"`
	} `yaml:"schedule"`
}

// formRunner is an interface that matches huh.Form's Run method.
type formRunner interface {
	Run() error
}

// createInitForm is the factory for the init form.
// This variable can be overridden in tests to inject mock forms.
//
//nolint:gochecknoglobals // Test injection point - standard Go testing pattern
var createInitForm = defaultCreateInitForm

// terminalCheck is a variable for the terminal check function, allowing tests to override it.
//
//nolint:gochecknoglobals // Required for test injection of terminal detection
var terminalCheck = isTerminal

// isTerminal returns true if stdin is a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// AddInitCommand adds the init command to the root command.
func AddInitCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newInitCmd(flags, &InitFlags{}))
}

func newInitCmd(global *GlobalFlags, flags *InitFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an autosync config file",
		Long: `Write .autosync/config.yaml for the current checkout, or the global
config with --global, asking for the settings a sync needs:
  - the canonical remote URL the remote is pinned to
  - the branch pushed when HEAD is detached
  - whether to rebase onto the remote before committing
  - what to do when a push is rejected
  - the watch interval

Use --no-interactive for scripted setups; flag values and defaults are
written as-is.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.Context(), cmd, cmd.OutOrStdout(), global, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.NoInteractive, "no-interactive", false, "skip prompts and use flag values and defaults")
	cmd.Flags().BoolVar(&flags.Global, "global", false, "write the global config ($AUTOSYNC_HOME/config.yaml)")
	cmd.Flags().BoolVarP(&flags.Force, "force", "f", false, "overwrite an existing config file")
	cmd.Flags().StringVarP(&flags.Dir, "dir", "C", "", "checkout to configure (default: current directory)")
	cmd.Flags().StringVar(&flags.RemoteURL, "remote-url", "", "canonical remote URL (default: the current origin URL)")
	cmd.Flags().StringVar(&flags.DefaultBranch, "default-branch", constants.DefaultBranch, "branch pushed when HEAD is detached")
	cmd.Flags().BoolVar(&flags.SyncBeforeCommit, "sync-before-commit", false, "fetch and rebase before committing")
	cmd.Flags().StringVar(&flags.OnPushRejected, "on-push-rejected", constants.PushRejectedFail, "what to do when a push is rejected (fail|rebase)")
	cmd.Flags().DurationVar(&flags.Interval, "interval", constants.DefaultInterval, "watch interval")

	return cmd
}

func runInit(ctx context.Context, cmd *cobra.Command, w io.Writer, global *GlobalFlags, flags *InitFlags) error {
	path, repoRoot, err := initTarget(ctx, flags)
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(path); statErr == nil && !flags.Force {
		return fmt.Errorf("%s: %w", path, errors.ErrConfigExists)
	}

	answers := initAnswers{
		RemoteURL:        flags.RemoteURL,
		DefaultBranch:    flags.DefaultBranch,
		SyncBeforeCommit: flags.SyncBeforeCommit,
		OnPushRejected:   flags.OnPushRejected,
		Interval:         flags.Interval.String(),
	}
	if answers.RemoteURL == "" && repoRoot != "" && !cmd.Flags().Changed("remote-url") {
		answers.RemoteURL = currentRemoteURL(repoRoot)
	}

	if !flags.NoInteractive {
		if !terminalCheck() {
			return errors.NewExitCode2Error(errors.ErrInteractiveRequired)
		}
		if err := createInitForm(&answers).Run(); err != nil {
			if stderrors.Is(err, huh.ErrUserAborted) {
				return errors.ErrOperationCanceled
			}
			return fmt.Errorf("init form failed: %w", err)
		}
	}

	doc, err := buildInitFile(answers)
	if err != nil {
		return err
	}

	if err := saveConfigFile(path, doc); err != nil {
		return err
	}

	out := tui.NewOutput(w, global.Output)
	if global.Output == OutputJSON {
		return out.JSON(struct {
			Path string `json:"path"`
		}{path})
	}
	out.Success("Configuration saved to " + path)
	out.Info("Run 'autosync run' to sync now, or 'autosync watch' to keep syncing")
	return nil
}

// initTarget returns the config file init writes and, for project configs,
// the checkout it belongs to.
func initTarget(ctx context.Context, flags *InitFlags) (path, repoRoot string, err error) {
	if flags.Global {
		path, err = config.GlobalConfigPath()
		return path, "", err
	}

	dir := flags.Dir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return "", "", fmt.Errorf("failed to get current directory: %w", err)
		}
	}
	info, err := git.DetectRepo(ctx, dir)
	if err != nil {
		return "", "", err
	}
	return config.ProjectConfigPath(info.WorktreePath), info.WorktreePath, nil
}

// currentRemoteURL returns the URL origin is bound to today, or "".
func currentRemoteURL(repoRoot string) string {
	snap, err := git.Inspect(repoRoot, constants.DefaultRemote)
	if err != nil || len(snap.RemoteURLs) == 0 {
		return ""
	}
	return snap.RemoteURLs[0]
}

// buildInitFile validates answers against the full config rules.
func buildInitFile(a initAnswers) (*initFile, error) {
	interval, err := time.ParseDuration(a.Interval)
	if err != nil {
		return nil, errors.NewExitCode2Error(fmt.Errorf("%w: interval %q: %w", errors.ErrConfigInvalidSchedule, a.Interval, err))
	}

	cfg := config.DefaultConfig()
	cfg.Sync.RemoteURL = a.RemoteURL
	cfg.Sync.DefaultBranch = a.DefaultBranch
	cfg.Sync.SyncBeforeCommit = a.SyncBeforeCommit
	cfg.Sync.OnPushRejected = a.OnPushRejected
	cfg.Schedule.Interval = interval
	if err := config.Validate(cfg); err != nil {
		return nil, errors.NewExitCode2Error(err)
	}

	doc := &initFile{}
	doc.Sync.RemoteURL = cfg.Sync.RemoteURL
	doc.Sync.DefaultBranch = cfg.Sync.DefaultBranch
	doc.Sync.SyncBeforeCommit = cfg.Sync.SyncBeforeCommit
	doc.Sync.OnPushRejected = cfg.Sync.OnPushRejected
	doc.Schedule.Interval = cfg.Schedule.Interval.String()
	return doc, nil
}

// saveConfigFile writes doc to path with a generated-by header.
func saveConfigFile(path string, doc *initFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := fmt.Sprintf("# autosync configuration\n# Generated by autosync init on %s\n\n",
		time.Now().Format(time.RFC3339))

	if err := os.WriteFile(path, []byte(header+string(data)), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// defaultCreateInitForm creates the Charm Huh form for init.
func defaultCreateInitForm(a *initAnswers) formRunner {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Canonical remote URL").
				Description("origin is reset to this URL on every run. Leave empty to keep it as is.").
				Value(&a.RemoteURL),
			huh.NewInput().
				Title("Default branch").
				Description("Pushed when HEAD is detached.").
				Value(&a.DefaultBranch).
				Validate(func(s string) error {
					if s == "" {
						return errors.ErrEmptyValue
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Fetch and rebase before committing?").
				Value(&a.SyncBeforeCommit),
			huh.NewSelect[string]().
				Title("When the remote rejects a push").
				Options(
					huh.NewOption("Stop and report it", constants.PushRejectedFail),
					huh.NewOption("Rebase onto the remote and push again", constants.PushRejectedRebase),
				).
				Value(&a.OnPushRejected),
			huh.NewInput().
				Title("Watch interval").
				Description("How often 'autosync watch' syncs, e.g. 5m or 1h.").
				Value(&a.Interval).
				Validate(func(s string) error {
					d, err := time.ParseDuration(s)
					if err != nil {
						return err
					}
					if d <= 0 {
						return errors.ErrConfigInvalidSchedule
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeCharm())
}
