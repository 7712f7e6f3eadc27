package constants

// Log file names.
const (
	// CLILogFileName is the name of the CLI log file.
	// This file is located in ~/.autosync/logs/autosync.log
	CLILogFileName = "autosync.log"
)

// Configuration file names.
const (
	// GlobalConfigName is the name of the global configuration file in AutosyncHome.
	GlobalConfigName = "config.yaml"

	// ProjectConfigName is the name of the project configuration file in ProjectConfigDir.
	ProjectConfigName = "config.yaml"
)

// HomeEnvVar overrides the location of AutosyncHome.
const HomeEnvVar = "AUTOSYNC_HOME"

// Log rotation settings for the CLI log file.
const (
	LogMaxSizeMB  = 10
	LogMaxBackups = 5
	LogMaxAgeDays = 30
	LogCompress   = true
)
