package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Source identifies which layer supplied a setting.
type Source string

const (
	// SourceDefault indicates the value is a built-in default.
	SourceDefault Source = "default"
	// SourceGlobal indicates the value came from the global config file.
	SourceGlobal Source = "global"
	// SourceMainRepo indicates the value came from the main checkout of a worktree.
	SourceMainRepo Source = "main_repo"
	// SourceProject indicates the value came from the project (or --config) file.
	SourceProject Source = "project"
	// SourceEnv indicates the value came from an AUTOSYNC_* environment variable.
	SourceEnv Source = "env"
)

// Setting is one effective configuration value and where it came from.
type Setting struct {
	Key    string `json:"key" yaml:"key"`
	Value  any    `json:"value" yaml:"value"`
	Source Source `json:"source" yaml:"source"`
}

// Settings flattens cfg into dotted keys, in display order.
func Settings(cfg *Config) []Setting {
	return []Setting{
		{Key: "sync.remote", Value: cfg.Sync.Remote},
		{Key: "sync.remote_url", Value: cfg.Sync.RemoteURL},
		{Key: "sync.default_branch", Value: cfg.Sync.DefaultBranch},
		{Key: "sync.sync_before_commit", Value: cfg.Sync.SyncBeforeCommit},
		{Key: "sync.message_template", Value: cfg.Sync.MessageTemplateOrDefault()},
		{Key: "sync.timestamp_format", Value: cfg.Sync.TimestampFormat},
		{Key: "sync.on_push_rejected", Value: cfg.Sync.OnPushRejected},
		{Key: "push.max_attempts", Value: cfg.Push.MaxAttempts},
		{Key: "push.initial_delay", Value: cfg.Push.InitialDelay.String()},
		{Key: "push.max_delay", Value: cfg.Push.MaxDelay.String()},
		{Key: "push.multiplier", Value: cfg.Push.Multiplier},
		{Key: "git.command_timeout", Value: cfg.Git.CommandTimeout.String()},
		{Key: "git.lock_retry_attempts", Value: cfg.Git.LockRetryAttempts},
		{Key: "schedule.interval", Value: cfg.Schedule.Interval.String()},
		{Key: "schedule.debounce", Value: cfg.Schedule.Debounce.String()},
		{Key: "schedule.watch_files", Value: cfg.Schedule.WatchFiles},
		{Key: "schedule.run_on_start", Value: cfg.Schedule.RunOnStart},
	}
}

// AnnotateSources fills in the Source of each setting by checking which
// layer of p sets its key, highest precedence first.
func AnnotateSources(settings []Setting, p Paths) []Setting {
	layers := []struct {
		source Source
		v      *viper.Viper
	}{
		{SourceProject, readLayer(p.Project)},
		{SourceMainRepo, readLayer(p.MainRepo)},
		{SourceGlobal, readLayer(p.Global)},
	}

	out := make([]Setting, len(settings))
	for i, s := range settings {
		s.Source = SourceDefault
		if _, ok := os.LookupEnv(EnvKey(s.Key)); ok {
			s.Source = SourceEnv
		} else {
			for _, layer := range layers {
				if layer.v != nil && layer.v.InConfig(s.Key) {
					s.Source = layer.source
					break
				}
			}
		}
		out[i] = s
	}
	return out
}

// EnvKey returns the environment variable that overrides a dotted key.
func EnvKey(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// readLayer reads a single config file, returning nil when it is absent or unreadable.
func readLayer(path string) *viper.Viper {
	if path == "" || !fileExists(path) {
		return nil
	}
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil
	}
	return v
}
