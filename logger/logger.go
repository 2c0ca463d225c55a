// Package logger provides a standardized way for different logging frameworks
// to be integrated into ceilsim, allowing users to choose their preferred
// logging implementation.
//
// The Logger interface defines methods for logging messages at various
// severity levels (Debug, Info, Warn, Error, Fatal) and supports structured
// logging with key-value pairs.
//
// Log Levels:
//
//   - DebugLevel: Detailed debug information, typically disabled in production.
//   - InfoLevel: General informational messages.
//   - WarnLevel: Warnings about potential issues.
//   - ErrorLevel: Errors that require attention.
//   - FatalLevel: Critical errors that cause program termination.
package logger

import (
	"errors"
	"fmt"
	"strings"
)

// Level indicates the logging severity level.
type Level = int8

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel Level = iota - 1
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual
	// human review.
	WarnLevel
	// ErrorLevel logs are high-priority. If an application is running smoothly,
	// it shouldn't generate any error-level logs.
	ErrorLevel
	// FatalLevel logs a message, then calls os.Exit(1).
	FatalLevel
)

// ErrUnknownLevel is returned by ParseLevel for an unrecognized level name.
var ErrUnknownLevel = errors.New("logger: unknown level")

// Logger defines a common interface for logging.
// This interface is used throughout the ceilsim packages, enabling integration
// with various logging frameworks.
type Logger interface {
	// Debug logs a message at DebugLevel.
	// The message includes any fields passed at the log site, as well as any fields accumulated on the logger.
	Debug(msg string, keysAndValues ...any)
	// Info logs a message at InfoLevel.
	// The message includes any fields passed at the log site, as well as any fields accumulated on the logger.
	Info(msg string, keysAndValues ...any)
	// Warn logs a message at WarnLevel.
	// The message includes any fields passed at the log site, as well as any fields accumulated on the logger.
	Warn(msg string, keysAndValues ...any)
	// Error logs a message at ErrorLevel.
	// The message includes any fields passed at the log site, as well as any fields accumulated on the logger.
	Error(msg string, keysAndValues ...any)
	// Fatal logs a message at FatalLevel.
	// The message includes any fields passed at the log site, as well as any fields accumulated on the logger.
	//
	// The logger then calls os.Exit(1), even if logging at FatalLevel is disabled.
	Fatal(msg string, keysAndValues ...any)
	// With creates a child logger and adds structured context to it.
	// Key-values added to the child don't affect the parent, and vice versa.
	With(keyValues ...any) Logger
	// Level returns the minimum enabled level for this logger.
	Level() Level
	// SetLevel sets the minimum enabled level for this logger.
	SetLevel(level Level)
}

// ParseLevel maps a level name ("debug", "info", "warn", "error", "fatal")
// to its Level. Names are case-insensitive and trimmed.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
}

// LevelName returns the canonical name for a Level.
func LevelName(l Level) string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case FatalLevel:
		return "fatal"
	default:
		return "unknown"
	}
}
