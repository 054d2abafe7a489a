package infrastructure

import (
	"log/slog"

	"weathersub.app/internal/ports"
)

// SlogLoggerAdapter implements the Logger port using slog. The zero value logs
// through slog.Default().
type SlogLoggerAdapter struct {
	logger *slog.Logger
}

// NewSlogLoggerAdapter creates a Logger port over an slog logger
func NewSlogLoggerAdapter(logger *slog.Logger) *SlogLoggerAdapter {
	return &SlogLoggerAdapter{logger: logger}
}

// Debug logs a debug message
func (l *SlogLoggerAdapter) Debug(msg string, fields ...ports.Field) {
	l.get().Debug(msg, toArgs(fields)...)
}

// Info logs an info message
func (l *SlogLoggerAdapter) Info(msg string, fields ...ports.Field) {
	l.get().Info(msg, toArgs(fields)...)
}

// Warn logs a warning message
func (l *SlogLoggerAdapter) Warn(msg string, fields ...ports.Field) {
	l.get().Warn(msg, toArgs(fields)...)
}

// Error logs an error message
func (l *SlogLoggerAdapter) Error(msg string, fields ...ports.Field) {
	l.get().Error(msg, toArgs(fields)...)
}

func (l *SlogLoggerAdapter) get() *slog.Logger {
	if l == nil || l.logger == nil {
		return slog.Default()
	}
	return l.logger
}

func toArgs(fields []ports.Field) []interface{} {
	args := make([]interface{}, 0, len(fields)*2)
	for _, field := range fields {
		value := field.Value
		if err, ok := value.(error); ok {
			value = err.Error()
		}
		args = append(args, field.Key, value)
	}
	return args
}
