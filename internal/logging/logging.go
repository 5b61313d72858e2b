// Package logging provides structured logging with slog for the
// keyboard core tools.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Level represents a logging level.
type Level = slog.Level

// Log levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Options holds the logging configuration.
type Options struct {
	// Level is the minimum log level to output.
	Level Level

	// JSON selects JSON-structured output over human-readable text.
	JSON bool

	// Output is "stderr", "stdout" or a file path.
	Output string

	// Component is stamped on every record.
	Component string
}

// DefaultOptions returns a default logging configuration.
func DefaultOptions() Options {
	return Options{
		Level:     LevelInfo,
		Output:    "stderr",
		Component: "glidecore",
	}
}

// New creates a slog.Logger with the given options. When Output names
// a file the returned closer owns it; for stdout and stderr the closer
// is a no-op.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)
	switch strings.ToLower(opts.Output) {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		if err := os.MkdirAll(filepath.Dir(opts.Output), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closer = f
	}

	hopts := &slog.HandlerOptions{Level: opts.Level}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, hopts)
	} else {
		handler = slog.NewTextHandler(w, hopts)
	}
	if opts.Component != "" {
		handler = handler.WithAttrs([]slog.Attr{
			slog.String("component", opts.Component),
		})
	}
	return slog.New(handler), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseLevel parses a string into a log level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}
