// Package observability provides the server's structured logging and
// Prometheus instrumentation. Logs go to stderr because stdout carries the
// protocol stream.
package observability

import (
	"log/slog"
	"os"
)

// NewLogger creates a text logger on stderr at the given level.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
