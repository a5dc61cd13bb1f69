// Package logger provides the application's structured logging: a slog-based
// logger that fans out to a plain console handler and a file handler.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LogLevel represents the available log levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Logger wraps slog.Logger with component and intention helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new structured logger with the specified level.
func NewLogger(level LogLevel) *Logger {
	return NewLoggerWithConsoleWriter(level, os.Stderr)
}

// NewLoggerWithConsoleWriter builds a logger that writes console output to the
// given writer and structured text to the log file.
func NewLoggerWithConsoleWriter(level LogLevel, consoleWriter io.Writer) *Logger {
	var slogLevel slog.Level
	switch level {
	case LogLevelDebug:
		slogLevel = slog.LevelDebug
	case LogLevelInfo:
		slogLevel = slog.LevelInfo
	case LogLevelWarn:
		slogLevel = slog.LevelWarn
	case LogLevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	if consoleWriter == nil {
		consoleWriter = os.Stderr
	}
	consoleHandler := newPlainHandler(consoleWriter, slogLevel)
	fileHandler := newFileTextHandler(slogLevel)

	return &Logger{Logger: slog.New(newMultiHandler(consoleHandler, fileHandler))}
}

// WithComponent creates a logger with a component context for better tracing.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.With("component", component)}
}

// LogWithIntention logs a message at the provided level with an intention tag.
// The console handler maps the intention to an icon; file output records it as
// a structured attribute.
func (l *Logger) LogWithIntention(level slog.Level, intention Intention, msg string, args ...any) {
	kv := append([]any{"intention", string(intention)}, args...)
	l.Log(context.Background(), level, msg, kv...)
}

func (l *Logger) InfoWithIntention(intention Intention, msg string, args ...any) {
	l.LogWithIntention(slog.LevelInfo, intention, msg, args...)
}

func (l *Logger) DebugWithIntention(intention Intention, msg string, args ...any) {
	l.LogWithIntention(slog.LevelDebug, intention, msg, args...)
}

// Default logger instance for the entire application.
var Default = NewLogger(LogLevelInfo)

// SetGlobalLogLevel replaces the global default logger with a new log level.
func SetGlobalLogLevel(level LogLevel) {
	Default = NewLogger(level)
}

// SetGlobalLoggerWithConsoleWriter replaces the global Default logger using
// the provided console writer.
func SetGlobalLoggerWithConsoleWriter(level LogLevel, consoleWriter io.Writer) {
	Default = NewLoggerWithConsoleWriter(level, consoleWriter)
}

// NewComponentLogger creates a new logger for a specific component.
func NewComponentLogger(component string) *Logger {
	return Default.WithComponent(component)
}

// newFileTextHandler opens ~/.vaultpilot/logs/vaultpilot.log for append and
// returns a slog text handler. Falls back to stderr if the file cannot open.
func newFileTextHandler(level slog.Level) slog.Handler {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".vaultpilot", "logs")
	_ = os.MkdirAll(base, 0o755)
	path := filepath.Join(base, "vaultpilot.log")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{Key: "time", Value: slog.StringValue(a.Value.Time().Format("15:04:05"))}
			}
			return a
		},
	}
	return slog.NewTextHandler(f, opts)
}
