package config

import (
	"github.com/mrz1836/autosync/internal/constants"
)

// DefaultConfig returns a new Config with default values.
// These are the base layer overridden by files, environment and flags.
func DefaultConfig() *Config {
	return &Config{
		Sync: SyncConfig{
			Remote:          constants.DefaultRemote,
			DefaultBranch:   constants.DefaultBranch,
			TimestampFormat: constants.DefaultTimestampFormat,
			OnPushRejected:  constants.PushRejectedFail,
		},
		Push: PushConfig{
			MaxAttempts:  constants.MaxRetryAttempts,
			InitialDelay: constants.InitialBackoff,
			MaxDelay:     constants.MaxBackoff,
			Multiplier:   2.0,
		},
		Git: GitConfig{
			CommandTimeout:    constants.DefaultCommandTimeout,
			LockRetryAttempts: constants.DefaultLockRetryAttempts,
		},
		Schedule: ScheduleConfig{
			Interval:   constants.DefaultInterval,
			Debounce:   constants.DefaultDebounce,
			WatchFiles: false,
			RunOnStart: true,
		},
	}
}

// DefaultMessageTemplate returns the commit message preset. Runs that rebase
// first also record the branch they synced.
func DefaultMessageTemplate(syncBeforeCommit bool) string {
	if syncBeforeCommit {
		return constants.DefaultRebaseMessageTemplate
	}
	return constants.DefaultMessageTemplate
}
