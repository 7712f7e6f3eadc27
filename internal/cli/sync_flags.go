package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/autosync/internal/config"
	"github.com/mrz1836/autosync/internal/errors"
)

// syncFlags are the per-run settings shared by run and watch. Empty values
// leave the configured setting in place.
type syncFlags struct {
	dir              string
	remote           string
	remoteURL        string
	defaultBranch    string
	syncBeforeCommit bool
	message          string
	timestampFormat  string
	onPushRejected   string
}

func addSyncFlags(cmd *cobra.Command, f *syncFlags) {
	fs := cmd.Flags()
	fs.StringVarP(&f.dir, "dir", "C", "", "checkout to sync (default: current directory)")
	fs.StringVar(&f.remote, "remote", "", "remote alias to pin and push to")
	fs.StringVar(&f.remoteURL, "remote-url", "", "canonical URL the remote is forced to")
	fs.StringVar(&f.defaultBranch, "default-branch", "", "branch pushed when HEAD is detached")
	fs.BoolVar(&f.syncBeforeCommit, "sync-before-commit", false, "fetch and rebase onto the remote branch before committing")
	fs.StringVarP(&f.message, "message", "m", "", "commit message template ({{.Timestamp}}, {{.Branch}}, {{.Host}})")
	fs.StringVar(&f.timestampFormat, "timestamp-format", "", "Go time layout for the commit message and completion line")
	fs.StringVar(&f.onPushRejected, "on-push-rejected", "", "what to do when a push is rejected (fail|rebase)")
}

// apply layers the flags that were set over cfg and re-validates it.
func (f *syncFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("sync-before-commit") {
		cfg.Sync.SyncBeforeCommit = f.syncBeforeCommit
	}

	overrides := &config.Config{
		Sync: config.SyncConfig{
			Remote:          f.remote,
			RemoteURL:       f.remoteURL,
			DefaultBranch:   f.defaultBranch,
			MessageTemplate: f.message,
			TimestampFormat: f.timestampFormat,
			OnPushRejected:  f.onPushRejected,
		},
	}
	if err := config.ApplyOverrides(cfg, overrides); err != nil {
		return errors.NewExitCode2Error(err)
	}
	return nil
}
