package config

import (
	"strings"
	"text/template"
	"time"

	"github.com/mrz1836/autosync/internal/constants"
	"github.com/mrz1836/autosync/internal/errors"
)

// minInterval keeps watch mode from hammering the remote.
const minInterval = time.Second

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - sync.remote and sync.default_branch must be non-empty without whitespace
//   - sync.on_push_rejected must be "fail" or "rebase"
//   - sync.message_template must parse as a text/template
//   - push.max_attempts must be at least 1, delays non-negative
//   - git.command_timeout must not be negative
//   - schedule.interval must be at least one second
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateSyncConfig(&cfg.Sync); err != nil {
		return err
	}

	if err := validatePushConfig(&cfg.Push); err != nil {
		return err
	}

	if err := validateGitConfig(&cfg.Git); err != nil {
		return err
	}

	return validateScheduleConfig(&cfg.Schedule)
}

func validateSyncConfig(cfg *SyncConfig) error {
	if cfg.Remote == "" || strings.ContainsAny(cfg.Remote, " \t\n") {
		return errors.Wrapf(errors.ErrConfigInvalidSync,
			"sync.remote must be a non-empty name without whitespace, got %q", cfg.Remote)
	}

	if cfg.DefaultBranch == "" || strings.ContainsAny(cfg.DefaultBranch, " \t\n") {
		return errors.Wrapf(errors.ErrConfigInvalidSync,
			"sync.default_branch must be a non-empty name without whitespace, got %q", cfg.DefaultBranch)
	}

	if strings.ContainsAny(cfg.RemoteURL, " \t\n") {
		return errors.Wrap(errors.ErrConfigInvalidSync,
			"sync.remote_url must not contain whitespace")
	}

	if cfg.TimestampFormat == "" {
		return errors.Wrap(errors.ErrConfigInvalidSync,
			"sync.timestamp_format must not be empty")
	}

	switch cfg.OnPushRejected {
	case constants.PushRejectedFail, constants.PushRejectedRebase:
	default:
		return errors.Wrapf(errors.ErrConfigInvalidSync,
			"sync.on_push_rejected must be %q or %q, got %q",
			constants.PushRejectedFail, constants.PushRejectedRebase, cfg.OnPushRejected)
	}

	return ValidateMessageTemplate(cfg.MessageTemplateOrDefault())
}

// ValidateMessageTemplate parses tmpl and executes it against sample values.
// A template that fails either step, or renders only whitespace, wraps
// ErrInvalidTemplate.
func ValidateMessageTemplate(tmpl string) error {
	t, err := template.New("message").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidTemplate, "sync.message_template: %s", err.Error())
	}

	var b strings.Builder
	sample := struct{ Timestamp, Branch, Host string }{"2006-01-02 15:04:05", "master", "localhost"}
	if err := t.Execute(&b, sample); err != nil {
		return errors.Wrapf(errors.ErrInvalidTemplate, "sync.message_template: %s", err.Error())
	}
	if strings.TrimSpace(b.String()) == "" {
		return errors.Wrap(errors.ErrInvalidTemplate, "sync.message_template renders an empty message")
	}
	return nil
}

func validatePushConfig(cfg *PushConfig) error {
	if cfg.MaxAttempts < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidPush,
			"push.max_attempts must be at least 1, got %d", cfg.MaxAttempts)
	}

	if cfg.InitialDelay < 0 || cfg.MaxDelay < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidPush,
			"push delays must not be negative, got %s and %s", cfg.InitialDelay, cfg.MaxDelay)
	}

	if cfg.Multiplier < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidPush,
			"push.multiplier must be at least 1, got %g", cfg.Multiplier)
	}

	return nil
}

func validateGitConfig(cfg *GitConfig) error {
	if cfg.CommandTimeout < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidGit,
			"git.command_timeout must not be negative, got %s", cfg.CommandTimeout)
	}

	if cfg.LockRetryAttempts < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidGit,
			"git.lock_retry_attempts must be at least 1, got %d", cfg.LockRetryAttempts)
	}

	return nil
}

func validateScheduleConfig(cfg *ScheduleConfig) error {
	if cfg.Interval < minInterval {
		return errors.Wrapf(errors.ErrConfigInvalidSchedule,
			"schedule.interval must be at least %s, got %s", minInterval, cfg.Interval)
	}

	if cfg.Debounce < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidSchedule,
			"schedule.debounce must not be negative, got %s", cfg.Debounce)
	}

	return nil
}
