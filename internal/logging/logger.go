// Package logging provides slog setup helpers for anomalyd.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// Setup initializes the default slog logger with the given level and output.
func Setup(level string, output io.Writer) *slog.Logger {
	if output == nil {
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	handler := slog.NewJSONHandler(output, opts)
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// SetupWithFile is Setup plus an optional JSON log file. When logFile is set,
// records fan out to both output and the file. The returned func closes the file.
func SetupWithFile(level string, output io.Writer, logFile string) (*slog.Logger, func() error, error) {
	if logFile == "" {
		return Setup(level, output), func() error { return nil }, nil
	}
	if output == nil {
		output = os.Stdout
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", logFile, err)
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	logger := slog.New(slogmulti.Fanout(
		slog.NewJSONHandler(output, opts),
		slog.NewJSONHandler(file, opts),
	))
	slog.SetDefault(logger)
	return logger, file.Close, nil
}

// ParseLevel converts a string level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
