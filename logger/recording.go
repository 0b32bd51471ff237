package logger

import "sync"

// Entry is a single log entry captured by a Recording logger.
type Entry struct {
	Level   string
	Message string
	Fields  []Field
}

// Recording is a Logger implementation that captures log entries in memory.
//
// Useful for tests assertion, e.g. checking that a best-effort delivery
// policy logged the failures it absorbed.
type Recording struct {
	mx      sync.RWMutex
	entries []Entry
}

// NewRecording creates a new Recording logger instance.
func NewRecording() *Recording {
	return new(Recording)
}

// Entries returns the log entries captured so far.
func (r *Recording) Entries() []Entry {
	r.mx.RLock()
	defer r.mx.RUnlock()

	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)

	return entries
}

func (r *Recording) record(level, msg string, fields []Field) {
	r.mx.Lock()
	defer r.mx.Unlock()

	r.entries = append(r.entries, Entry{Level: level, Message: msg, Fields: fields})
}

// Debug implements the logger.Logger interface.
func (r *Recording) Debug(msg string, fields ...Field) { r.record("debug", msg, fields) }

// Info implements the logger.Logger interface.
func (r *Recording) Info(msg string, fields ...Field) { r.record("info", msg, fields) }

// Error implements the logger.Logger interface.
func (r *Recording) Error(msg string, fields ...Field) { r.record("error", msg, fields) }
