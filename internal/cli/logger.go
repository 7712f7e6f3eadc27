package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrz1836/autosync/internal/constants"
	"github.com/mrz1836/autosync/internal/logging"
)

// logState tracks the open log file and guards the zerolog package logger.
//
//nolint:gochecknoglobals // process-wide logging sinks
var logState struct {
	mu   sync.Mutex
	file io.WriteCloser
	once sync.Once
}

// InitLogger builds the CLI logger. --verbose selects debug, --quiet warn,
// otherwise info. Events go to stderr (console format on a color TTY, JSON
// otherwise) and to the rotating file under $AUTOSYNC_HOME/logs. A log file
// that cannot be opened leaves console logging in place.
func InitLogger(verbose, quiet bool) zerolog.Logger {
	writer := selectOutput()
	if fileWriter, err := createLogFileWriter(); err == nil {
		logState.mu.Lock()
		closeLogFileLocked()
		logState.file = fileWriter
		logState.mu.Unlock()
		writer = zerolog.MultiLevelWriter(writer, fileWriter)
	}
	return newLogger(writer, verbose, quiet)
}

// InitLoggerWithWriter builds the CLI logger on w only. Used by tests.
func InitLoggerWithWriter(verbose, quiet bool, w io.Writer) zerolog.Logger {
	return newLogger(w, verbose, quiet)
}

func newLogger(w io.Writer, verbose, quiet bool) zerolog.Logger {
	logState.once.Do(func() {
		zerolog.TimestampFieldName = "ts"
		zerolog.MessageFieldName = "event"
	})

	logger := zerolog.New(w).
		Level(selectLevel(verbose, quiet)).
		Hook(logging.NewSensitiveDataHook()).
		With().Timestamp().Int("pid", os.Getpid()).Logger()

	logState.mu.Lock()
	log.Logger = logger
	logState.mu.Unlock()
	return logger
}

// CloseLogFile flushes and closes the log file, if one is open.
func CloseLogFile() {
	logState.mu.Lock()
	defer logState.mu.Unlock()
	closeLogFileLocked()
}

func closeLogFileLocked() {
	if logState.file != nil {
		_ = logState.file.Close()
		logState.file = nil
	}
}

// selectLevel determines the appropriate log level based on flags.
func selectLevel(verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// selectOutput determines the console writer from terminal capabilities.
func selectOutput() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		}
	}
	return os.Stderr
}

// filteringWriteCloser redacts secrets before they reach the wrapped file.
type filteringWriteCloser struct {
	filter *logging.FilteringWriter
	closer io.Closer
}

func (fwc *filteringWriteCloser) Write(p []byte) (n int, err error) {
	return fwc.filter.Write(p)
}

func (fwc *filteringWriteCloser) Close() error {
	return fwc.closer.Close()
}

// createLogFileWriter creates a rotating, redacting writer for the CLI log.
func createLogFileWriter() (io.WriteCloser, error) {
	path, err := LogFilePath()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   constants.LogCompress,
	}

	return &filteringWriteCloser{
		filter: logging.NewFilteringWriter(lj),
		closer: lj,
	}, nil
}

// autosyncHome returns $AUTOSYNC_HOME, or ~/.autosync when it is unset.
func autosyncHome() (string, error) {
	if home := os.Getenv(constants.HomeEnvVar); home != "" {
		return home, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.AutosyncHome), nil
}

// LogFilePath returns the path to the CLI log file.
func LogFilePath() (string, error) {
	home, err := autosyncHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.LogsDir, constants.CLILogFileName), nil
}
