package syncer

import (
	"fmt"
	"strings"

	"github.com/mrz1836/autosync/internal/config"
	"github.com/mrz1836/autosync/internal/constants"
	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
)

// PushRejectedPolicy decides what a run does when the remote refuses a
// non-fast-forward push.
type PushRejectedPolicy string

const (
	// PushRejectedFail reports the rejection and leaves local commits in place.
	PushRejectedFail PushRejectedPolicy = constants.PushRejectedFail

	// PushRejectedRebase fetches, rebases onto the remote branch and pushes once more.
	PushRejectedRebase PushRejectedPolicy = constants.PushRejectedRebase
)

// Options is everything one run needs to know. Nothing is read from the
// process working directory or other global state.
type Options struct {
	// WorkDir is the checkout to sync. Defaults to the runner's directory.
	WorkDir string

	// Remote is the alias that is pinned and pushed to. Default "origin".
	Remote string

	// RemoteURL is forced onto Remote each run. Empty leaves the alias alone.
	RemoteURL string

	// DefaultBranch is pushed when HEAD is detached. Default "master".
	DefaultBranch string

	// SyncBeforeCommit fetches and rebases onto <Remote>/<branch> before staging.
	SyncBeforeCommit bool

	// MessageTemplate renders the commit message. Empty picks the preset
	// matching SyncBeforeCommit.
	MessageTemplate string

	// TimestampFormat is the Go layout used for messages and the completion line.
	TimestampFormat string

	// OnPushRejected is the non-fast-forward policy. Default PushRejectedFail.
	OnPushRejected PushRejectedPolicy
}

// OptionsFromConfig maps the sync section of cfg onto Options for workDir.
func OptionsFromConfig(workDir string, cfg *config.Config) Options {
	return Options{
		WorkDir:          workDir,
		Remote:           cfg.Sync.Remote,
		RemoteURL:        cfg.Sync.RemoteURL,
		DefaultBranch:    cfg.Sync.DefaultBranch,
		SyncBeforeCommit: cfg.Sync.SyncBeforeCommit,
		MessageTemplate:  cfg.Sync.MessageTemplate,
		TimestampFormat:  cfg.Sync.TimestampFormat,
		OnPushRejected:   PushRejectedPolicy(cfg.Sync.OnPushRejected),
	}
}

func (o Options) withDefaults(workDir string) Options {
	if o.WorkDir == "" {
		o.WorkDir = workDir
	}
	if o.Remote == "" {
		o.Remote = constants.DefaultRemote
	}
	if o.DefaultBranch == "" {
		o.DefaultBranch = constants.DefaultBranch
	}
	if o.MessageTemplate == "" {
		o.MessageTemplate = config.DefaultMessageTemplate(o.SyncBeforeCommit)
	}
	if o.TimestampFormat == "" {
		o.TimestampFormat = constants.DefaultTimestampFormat
	}
	if o.OnPushRejected == "" {
		o.OnPushRejected = PushRejectedFail
	}
	return o
}

func (o Options) validate() error {
	if o.WorkDir == "" {
		return fmt.Errorf("work directory cannot be empty: %w", autosyncerrors.ErrEmptyValue)
	}
	if strings.ContainsAny(o.Remote, " \t\n") {
		return fmt.Errorf("remote %q contains whitespace: %w", o.Remote, autosyncerrors.ErrConfigInvalidSync)
	}
	switch o.OnPushRejected {
	case PushRejectedFail, PushRejectedRebase:
	default:
		return fmt.Errorf("unknown push-rejected policy %q: %w", o.OnPushRejected, autosyncerrors.ErrConfigInvalidSync)
	}
	return nil
}
