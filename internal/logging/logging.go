// Package logging configures the charmbracelet logger used across
// porto-guide and carries it through context.Context.
//
// Logs always go to stderr: in MCP mode stdout carries the protocol.
package logging

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// EnvLevel enables debug logging when set to "debug".
const EnvLevel = "PORTO_GUIDE_LOG_LEVEL"

// New creates a logger writing to w at level. Timestamps are formatted as
// "15:04:05.00".
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// ParseLevel converts a level name, falling back to info for unknown or
// empty names.
func ParseLevel(name string) log.Level {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Discard returns a logger that writes nothing, for tests and library use.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

type ctxKey int

const loggerKey ctxKey = 0

// WithLogger returns a context carrying l.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger in ctx, or log.Default().
func FromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
