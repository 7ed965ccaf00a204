package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// LogLevel is a validated logging level name.
type LogLevel string

const (
	LogLevelError LogLevel = "error"
	LogLevelWarn  LogLevel = "warn"
	LogLevelInfo  LogLevel = "info"
	LogLevelDebug LogLevel = "debug"
)

// parseLogLevel converts a user-supplied string to a LogLevel.
func parseLogLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "error":
		return LogLevelError, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "info":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	default:
		return "", fmt.Errorf("invalid log level: %s (must be error, warn, info, or debug)", level)
	}
}

// setupLogger builds the daemon's slog logger at the given level.
func setupLogger(level LogLevel) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch level {
	case LogLevelError:
		slogLevel = slog.LevelError
	case LogLevelWarn:
		slogLevel = slog.LevelWarn
	case LogLevelDebug:
		slogLevel = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel})
	return slog.New(handler)
}
