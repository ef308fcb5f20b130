// Package logger provides structured logging using Go 1.21's log/slog.
// It sets up a JSON handler with service-level context and helpers for
// tagging every record of a trading cycle with the cycle number.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Init creates and returns a structured logger for the given service.
// The logger outputs JSON to stdout with the service name embedded.
func Init(service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler).With(
		slog.String("service", service),
	)

	// Set as default so log/slog.Info() etc. also use structured output
	slog.SetDefault(logger)

	return logger
}

// ParseLevel maps a config string to a slog.Level. Unknown values
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// WithCycle returns a logger that tags every record with the cycle number,
// so all output of one trading iteration can be correlated.
func WithCycle(log *slog.Logger, cycle int64) *slog.Logger {
	return log.With(slog.Int64("cycle", cycle))
}
