// Package logging configures the process-wide structured logger. Every record
// carries a service attribute so log aggregation can tell the API server and
// the migrate command apart.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const serviceName = "booking-bot"

// Logger wraps slog.Logger so packages depend on one logging type.
type Logger struct {
	*slog.Logger
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// New builds the logger for the given level and environment. Development gets
// human-readable text output; every other environment logs JSON.
func New(level, env string) *Logger {
	return NewWithWriter(os.Stdout, level, env)
}

// NewWithWriter is New with an explicit destination, used by tests.
func NewWithWriter(w io.Writer, level, env string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if env == "development" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler).With("service", serviceName)}
}

// Default returns an info-level JSON logger for components constructed
// without one.
func Default() *Logger {
	return New("info", "")
}

// Component returns a child logger tagged with the emitting component.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.Logger.With("component", name)}
}
