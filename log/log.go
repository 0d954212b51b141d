// Package log provides structured logging for paravm. It wraps Go's
// log/slog with conveniences such as per-module child loggers, a
// process-wide default level controlled by PARAVM_LOG_LEVEL, and a
// process-wide default output format (text, JSON, or ANSI color)
// controlled by PARAVM_LOG_FORMAT and rendered through formatter.go.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with paravm-specific context.
type Logger struct {
	inner *slog.Logger
}

// defaultLogger is the process-wide logger used by the package-level
// convenience functions.
var defaultLogger *Logger

func init() {
	defaultLogger = New(levelFromEnv())
}

// levelFromEnv reads PARAVM_LOG_LEVEL via LevelFromString, defaulting to
// info when unset or unrecognized.
func levelFromEnv() slog.Level {
	return logLevelToSlogLevel(LevelFromString(os.Getenv("PARAVM_LOG_LEVEL")))
}

// logLevelToSlogLevel converts formatter.go's LogLevel into the slog.Level
// the handler is actually gated on.
func logLevelToSlogLevel(l LogLevel) slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR, FATAL:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// formatterFromEnv reads PARAVM_LOG_FORMAT (text|json|color, case
// insensitive), defaulting to JSON when unset or unrecognized.
func formatterFromEnv() LogFormatter {
	switch strings.ToLower(os.Getenv("PARAVM_LOG_FORMAT")) {
	case "text":
		return &TextFormatter{}
	case "color":
		return &ColorFormatter{}
	default:
		return &JSONFormatter{}
	}
}

// New creates a Logger that writes to stderr at the given level, rendered
// through the formatter selected by PARAVM_LOG_FORMAT.
func New(level slog.Level) *Logger {
	h := newFormatterHandler(formatterFromEnv(), level, os.Stderr)
	return &Logger{inner: slog.New(h)}
}

// NewWithHandler creates a Logger backed by the supplied slog.Handler. This
// is useful for testing or for writing to a custom destination.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{inner: slog.New(h)}
}

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the current package-level default logger.
func Default() *Logger {
	return defaultLogger
}

// Module returns a child logger with an additional "module" attribute. This
// is the primary way subsystems (oracle, schedule, executor, ...) obtain
// their own contextual logger.
func (l *Logger) Module(name string) *Logger {
	return &Logger{inner: l.inner.With("module", name)}
}

// With returns a child logger with additional key-value context.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, args ...any) { l.inner.Info(msg, args...) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, args ...any) { l.inner.Warn(msg, args...) }

// Error logs at LevelError.
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

// ---------------------------------------------------------------------------
// Package-level convenience functions -- delegate to defaultLogger.
// ---------------------------------------------------------------------------

// Debug logs at LevelDebug using the default logger.
func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }

// Info logs at LevelInfo using the default logger.
func Info(msg string, args ...any) { defaultLogger.Info(msg, args...) }

// Warn logs at LevelWarn using the default logger.
func Warn(msg string, args ...any) { defaultLogger.Warn(msg, args...) }

// Error logs at LevelError using the default logger.
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }
