package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/autosync/internal/flock"
	"github.com/mrz1836/autosync/internal/git"
	"github.com/mrz1836/autosync/internal/tui"
)

// statusReport is what `autosync status` shows about a checkout.
type statusReport struct {
	WorkDir    string `json:"work_dir"`
	IsWorktree bool   `json:"is_worktree,omitempty"`

	Branch   string `json:"branch,omitempty"`
	Detached bool   `json:"detached,omitempty"`
	Head     string `json:"head,omitempty"`

	Remote     string   `json:"remote"`
	RemoteURLs []string `json:"remote_urls,omitempty"`
	// CanonicalURL is the configured remote_url; URLPinned reports whether the alias already uses it.
	CanonicalURL string `json:"canonical_url,omitempty"`
	URLPinned    bool   `json:"url_pinned"`

	// Ahead and Behind are -1 when there is no tracking ref.
	Ahead  int `json:"ahead"`
	Behind int `json:"behind"`

	Staged    int `json:"staged"`
	Unstaged  int `json:"unstaged"`
	Untracked int `json:"untracked"`
	Unmerged  int `json:"unmerged"`

	RebaseInProgress bool `json:"rebase_in_progress"`
	SyncRunning      bool `json:"sync_running"`
	SyncPID          int  `json:"sync_pid,omitempty"`
}

// AddStatusCommand adds the status command to the root command.
func AddStatusCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newStatusCmd(flags))
}

func newStatusCmd(flags *GlobalFlags) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what the next sync would work with",
		Long: `Show the branch, remote binding, pending changes and position relative
to the remote-tracking branch of a checkout, and whether a sync is
currently running. Nothing is fetched or changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := collectStatus(cmd.Context(), dir, flags.ConfigFile)
			if err != nil {
				return err
			}
			return printStatus(tui.NewOutput(cmd.OutOrStdout(), flags.Output), flags.Output, report)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "C", "", "checkout to inspect (default: current directory)")
	return cmd
}

func collectStatus(ctx context.Context, dir, configFile string) (*statusReport, error) {
	ec, err := ResolveExecutionContext(ctx, dir, configFile)
	if err != nil {
		return nil, err
	}
	remote := ec.Config.Sync.Remote

	snap, err := git.Inspect(ec.WorkDir, remote)
	if err != nil {
		return nil, err
	}

	runner, err := git.NewRunner(ctx, ec.WorkDir,
		git.WithCommandTimeout(ec.Config.Git.CommandTimeout),
		git.WithRunnerLogger(GetLogger()),
	)
	if err != nil {
		return nil, err
	}

	st, err := runner.Status(ctx)
	if err != nil {
		return nil, err
	}
	rebasing, err := runner.IsRebaseInProgress(ctx)
	if err != nil {
		return nil, err
	}

	pid, held, err := flock.Holder(filepath.Join(ec.GitDir, flock.LockFileName))
	if err != nil {
		return nil, err
	}

	return &statusReport{
		WorkDir:          ec.WorkDir,
		IsWorktree:       ec.IsWorktree,
		Branch:           snap.Branch,
		Detached:         snap.Detached,
		Head:             snap.Head,
		Remote:           remote,
		RemoteURLs:       snap.RemoteURLs,
		CanonicalURL:     ec.Config.Sync.RemoteURL,
		URLPinned:        ec.Config.Sync.RemoteURL == "" || slices.Contains(snap.RemoteURLs, ec.Config.Sync.RemoteURL),
		Ahead:            snap.Ahead,
		Behind:           snap.Behind,
		Staged:           len(st.Staged),
		Unstaged:         len(st.Unstaged),
		Untracked:        len(st.Untracked),
		Unmerged:         len(st.Unmerged),
		RebaseInProgress: rebasing,
		SyncRunning:      held,
		SyncPID:          pid,
	}, nil
}

func printStatus(out tui.Output, format string, r *statusReport) error {
	if format == OutputJSON {
		return out.JSON(r)
	}

	branch := r.Branch
	if r.Detached {
		branch = "(detached HEAD)"
	}

	urls := strings.Join(r.RemoteURLs, ", ")
	if urls == "" {
		urls = "(not configured)"
	}
	if !r.URLPinned {
		urls += " -> " + r.CanonicalURL + " on next run"
	}

	tracking := "no tracking ref"
	if r.Ahead >= 0 {
		tracking = fmt.Sprintf("%d ahead, %d behind", r.Ahead, r.Behind)
	}

	changes := fmt.Sprintf("%d staged, %d unstaged, %d untracked", r.Staged, r.Unstaged, r.Untracked)
	if r.Unmerged > 0 {
		changes += fmt.Sprintf(", %d unmerged", r.Unmerged)
	}

	running := "no"
	if r.SyncRunning {
		running = "yes"
		if r.SyncPID > 0 {
			running += " (pid " + strconv.Itoa(r.SyncPID) + ")"
		}
	}

	out.Table([]string{"FIELD", "VALUE"}, [][]string{
		{"Checkout", r.WorkDir},
		{"Branch", branch},
		{"Head", shortHash(r.Head)},
		{"Remote", r.Remote + " " + urls},
		{"Tracking", tracking},
		{"Changes", changes},
		{"Sync running", running},
	})

	if r.RebaseInProgress {
		out.Warning("A rebase is in progress; resolve it (git status) before the next sync")
	}
	return nil
}

func shortHash(sha string) string {
	if sha == "" {
		return "(none)"
	}
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
