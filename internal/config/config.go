// Package config provides configuration management for autosync with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (applied via ApplyOverrides)
//  2. Environment variables (AUTOSYNC_* prefix)
//  3. Project config (<repo>/.autosync/config.yaml, or the file given with --config)
//  4. Main checkout config, when running inside a linked worktree
//  5. Global config (~/.autosync/config.yaml)
//  6. Built-in defaults
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import other internal packages.
package config

import "time"

// Config is the root configuration structure for autosync.
type Config struct {
	// Sync controls what a single run does.
	Sync SyncConfig `yaml:"sync" mapstructure:"sync" json:"sync"`

	// Push controls retries of transient push failures.
	Push PushConfig `yaml:"push" mapstructure:"push" json:"push"`

	// Git controls how git subprocesses are run.
	Git GitConfig `yaml:"git" mapstructure:"git" json:"git"`

	// Schedule controls watch mode.
	Schedule ScheduleConfig `yaml:"schedule" mapstructure:"schedule" json:"schedule"`
}

// SyncConfig contains the settings of the sync procedure itself.
type SyncConfig struct {
	// Remote is the alias that is pinned to RemoteURL and pushed to.
	// Default: "origin"
	Remote string `yaml:"remote" mapstructure:"remote" json:"remote"`

	// RemoteURL is the canonical URL the remote alias is forced to on every run.
	// Empty leaves the alias untouched.
	RemoteURL string `yaml:"remote_url" mapstructure:"remote_url" json:"remote_url"`

	// DefaultBranch is used when HEAD is detached.
	// Default: "master"
	DefaultBranch string `yaml:"default_branch" mapstructure:"default_branch" json:"default_branch"`

	// SyncBeforeCommit fetches and rebases onto the remote branch before staging.
	SyncBeforeCommit bool `yaml:"sync_before_commit" mapstructure:"sync_before_commit" json:"sync_before_commit"`

	// MessageTemplate is a text/template for the commit message with
	// .Timestamp, .Branch and .Host. Empty selects a preset (see MessageTemplateOrDefault).
	MessageTemplate string `yaml:"message_template" mapstructure:"message_template" json:"message_template"`

	// TimestampFormat is a Go time layout for .Timestamp and the completion line.
	TimestampFormat string `yaml:"timestamp_format" mapstructure:"timestamp_format" json:"timestamp_format"`

	// OnPushRejected is "fail" or "rebase".
	OnPushRejected string `yaml:"on_push_rejected" mapstructure:"on_push_rejected" json:"on_push_rejected"`
}

// MessageTemplateOrDefault returns MessageTemplate, or the preset that
// matches SyncBeforeCommit when no template is configured.
func (c SyncConfig) MessageTemplateOrDefault() string {
	if c.MessageTemplate != "" {
		return c.MessageTemplate
	}
	return DefaultMessageTemplate(c.SyncBeforeCommit)
}

// PushConfig contains retry settings for pushes that fail on network errors.
type PushConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" mapstructure:"max_attempts" json:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay" mapstructure:"initial_delay" json:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" mapstructure:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" mapstructure:"multiplier" json:"multiplier"`
}

// GitConfig contains settings for git subprocesses.
type GitConfig struct {
	// CommandTimeout bounds each git invocation. Zero disables the bound.
	CommandTimeout time.Duration `yaml:"command_timeout" mapstructure:"command_timeout" json:"command_timeout"`

	// LockRetryAttempts is how often add/commit retry on index.lock contention.
	LockRetryAttempts int `yaml:"lock_retry_attempts" mapstructure:"lock_retry_attempts" json:"lock_retry_attempts"`
}

// ScheduleConfig contains settings for `autosync watch`.
type ScheduleConfig struct {
	Interval   time.Duration `yaml:"interval" mapstructure:"interval" json:"interval"`
	Debounce   time.Duration `yaml:"debounce" mapstructure:"debounce" json:"debounce"`
	WatchFiles bool          `yaml:"watch_files" mapstructure:"watch_files" json:"watch_files"`
	RunOnStart bool          `yaml:"run_on_start" mapstructure:"run_on_start" json:"run_on_start"`
}
