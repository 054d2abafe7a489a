package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Logger wraps slog for consistent logging across the application
type Logger struct {
	*slog.Logger
	closer io.Closer
}

// Options controls handler construction
type Options struct {
	Level    string
	Format   string
	FilePath string
}

// New creates a new logger instance
func New() *Logger {
	return NewWithWriter(os.Stdout, slog.LevelInfo, "json")
}

// NewWithLevel creates a new logger with specified level
func NewWithLevel(level slog.Level) *Logger {
	return NewWithWriter(os.Stdout, level, "json")
}

// NewWithWriter creates a logger writing to w in the given format ("json" or "text")
func NewWithWriter(w io.Writer, level slog.Level, format string) *Logger {
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// NewFromOptions builds a logger from configuration. When FilePath is set, records go
// to stdout and are appended to the file as well.
func NewFromOptions(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	if opts.FilePath == "" {
		return NewWithWriter(os.Stdout, level, opts.Format), nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := NewWithWriter(io.MultiWriter(os.Stdout, file), level, opts.Format)
	l.closer = file
	return l, nil
}

// ParseLevel converts a textual level into slog.Level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// WithField returns a logger with a pre-set field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		Logger: l.With(key, value),
		closer: l.closer,
	}
}

// WithFields returns a logger with multiple pre-set fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{
		Logger: l.With(args...),
		closer: l.closer,
	}
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
