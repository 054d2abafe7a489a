package mocks

import (
	"sync"
	"testing"

	"weathersub.app/internal/ports"
)

// LogEntry is one recorded log call
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// Logger records log calls instead of asserting on them, since log output is not part
// of any contract. Tests inspect Entries when a log line matters.
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewLogger creates a recording logger
func NewLogger(_ testing.TB) *Logger {
	return &Logger{}
}

func (l *Logger) Debug(msg string, fields ...ports.Field) { l.record("debug", msg, fields) }
func (l *Logger) Info(msg string, fields ...ports.Field)  { l.record("info", msg, fields) }
func (l *Logger) Warn(msg string, fields ...ports.Field)  { l.record("warn", msg, fields) }
func (l *Logger) Error(msg string, fields ...ports.Field) { l.record("error", msg, fields) }

// Entries returns a copy of the recorded calls
func (l *Logger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// EntriesAt returns recorded calls of one level
func (l *Logger) EntriesAt(level string) []LogEntry {
	var out []LogEntry
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (l *Logger) record(level, msg string, fields []ports.Field) {
	f := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		f[field.Key] = field.Value
	}
	l.mu.Lock()
	l.entries = append(l.entries, LogEntry{Level: level, Message: msg, Fields: f})
	l.mu.Unlock()
}
