package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/autosync/internal/errors"
)

// EnvPrefix is the prefix of environment variables read by autosync.
const EnvPrefix = "AUTOSYNC"

// newViperInstance creates a new Viper instance with the AUTOSYNC_ env prefix,
// the "." to "_" key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config struct and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// mergeConfigFile merges the file at path into v. Missing files are skipped.
func mergeConfigFile(v *viper.Viper, path, label string) error {
	if path == "" || !fileExists(path) {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to read %s config: %s", label, path)
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadPaths reads every file in p over the defaults, applies AUTOSYNC_*
// environment variables and validates the result.
//
// Missing files are not an error.
func LoadPaths(ctx context.Context, p Paths) (*Config, error) {
	v := newViperInstance()

	if err := mergeConfigFile(v, p.Global, "global"); err != nil {
		return nil, err
	}
	if err := mergeConfigFile(v, p.MainRepo, "main repo"); err != nil {
		return nil, err
	}
	if err := mergeConfigFile(v, p.Project, "project"); err != nil {
		return nil, err
	}

	cfg, err := unmarshalAndValidate(v)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("global", p.Global).
		Str("project", p.Project).
		Str("sync.remote", cfg.Sync.Remote).
		Bool("sync.sync_before_commit", cfg.Sync.SyncBeforeCommit).
		Str("sync.on_push_rejected", cfg.Sync.OnPushRejected).
		Msg("configuration loaded")

	return cfg, nil
}

// Load reads the global config and the project config of repoRoot.
// For CLI flag overrides, use LoadWithOverrides instead.
func Load(ctx context.Context, repoRoot string) (*Config, error) {
	return LoadPaths(ctx, ResolvePaths(repoRoot, "", ""))
}

// LoadWithWorktree loads configuration for a linked worktree.
// The worktree's own project config overrides the main checkout's, which
// overrides the global config. The main checkout config is only read when
// worktreePath differs from mainRepoPath.
func LoadWithWorktree(ctx context.Context, mainRepoPath, worktreePath string) (*Config, error) {
	return LoadPaths(ctx, ResolvePaths(worktreePath, mainRepoPath, ""))
}

// LoadFromPaths loads configuration from specific file paths.
// projectConfigPath has higher priority than globalConfigPath.
// Either path can be empty to skip that level.
func LoadFromPaths(ctx context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	return LoadPaths(ctx, Paths{Global: globalConfigPath, Project: projectConfigPath})
}

// LoadWithOverrides loads configuration from p and applies CLI flag overrides,
// which have the highest precedence.
func LoadWithOverrides(ctx context.Context, p Paths, overrides *Config) (*Config, error) {
	cfg, err := LoadPaths(ctx, p)
	if err != nil {
		return nil, err
	}
	if overrides == nil {
		return cfg, nil
	}
	if err := ApplyOverrides(cfg, overrides); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides copies the non-zero fields of overrides into cfg and
// re-validates it.
//
// Bool fields cannot be told apart from "unset", so they are never copied.
// The CLI sets them directly when the flag was changed:
//
//	if cmd.Flags().Changed("sync-before-commit") {
//	    cfg.Sync.SyncBeforeCommit = flagValue
//	}
func ApplyOverrides(cfg, overrides *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}
	if overrides != nil {
		applySyncOverrides(&cfg.Sync, &overrides.Sync)
		applyScheduleOverrides(&cfg.Schedule, &overrides.Schedule)
		if overrides.Git.CommandTimeout != 0 {
			cfg.Git.CommandTimeout = overrides.Git.CommandTimeout
		}
	}
	if err := Validate(cfg); err != nil {
		return errors.Wrap(err, "invalid configuration after overrides")
	}
	return nil
}

func applySyncOverrides(cfg, overrides *SyncConfig) {
	if overrides.Remote != "" {
		cfg.Remote = overrides.Remote
	}
	if overrides.RemoteURL != "" {
		cfg.RemoteURL = overrides.RemoteURL
	}
	if overrides.DefaultBranch != "" {
		cfg.DefaultBranch = overrides.DefaultBranch
	}
	if overrides.MessageTemplate != "" {
		cfg.MessageTemplate = overrides.MessageTemplate
	}
	if overrides.TimestampFormat != "" {
		cfg.TimestampFormat = overrides.TimestampFormat
	}
	if overrides.OnPushRejected != "" {
		cfg.OnPushRejected = overrides.OnPushRejected
	}
}

func applyScheduleOverrides(cfg, overrides *ScheduleConfig) {
	if overrides.Interval != 0 {
		cfg.Interval = overrides.Interval
	}
	if overrides.Debounce != 0 {
		cfg.Debounce = overrides.Debounce
	}
}

// setDefaults configures all default values on the Viper instance.
// Keys must match the mapstructure tag names exactly.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("sync.remote", d.Sync.Remote)
	v.SetDefault("sync.remote_url", d.Sync.RemoteURL)
	v.SetDefault("sync.default_branch", d.Sync.DefaultBranch)
	v.SetDefault("sync.sync_before_commit", d.Sync.SyncBeforeCommit)
	v.SetDefault("sync.message_template", d.Sync.MessageTemplate)
	v.SetDefault("sync.timestamp_format", d.Sync.TimestampFormat)
	v.SetDefault("sync.on_push_rejected", d.Sync.OnPushRejected)

	v.SetDefault("push.max_attempts", d.Push.MaxAttempts)
	v.SetDefault("push.initial_delay", d.Push.InitialDelay)
	v.SetDefault("push.max_delay", d.Push.MaxDelay)
	v.SetDefault("push.multiplier", d.Push.Multiplier)

	v.SetDefault("git.command_timeout", d.Git.CommandTimeout)
	v.SetDefault("git.lock_retry_attempts", d.Git.LockRetryAttempts)

	v.SetDefault("schedule.interval", d.Schedule.Interval)
	v.SetDefault("schedule.debounce", d.Schedule.Debounce)
	v.SetDefault("schedule.watch_files", d.Schedule.WatchFiles)
	v.SetDefault("schedule.run_on_start", d.Schedule.RunOnStart)
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// This configures mapstructure to handle time.Duration conversion from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
