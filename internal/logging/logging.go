// Package logging configures slog output for the catalog server. Logs are
// JSON on stderr; LOG_FILE adds a tee to disk for deployments without a log
// collector.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// New builds the process logger and installs it as the slog default. The
// returned cleanup func closes the tee file, if any; callers must defer it.
func New(level, logFile string) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	cleanup := func() {}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		cleanup = func() { _ = f.Close() }
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

// ParseLevel maps the LOG_LEVEL values this server documents onto slog
// levels. Unrecognized values fall back to info rather than failing startup.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
