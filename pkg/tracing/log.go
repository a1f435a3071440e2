package tracing

import (
	"sync"
	"time"
)

// Kind is the severity family of a log entry.
type Kind string

const (
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
	KindCustom  Kind = "custom"
)

// Element is a child of a Context: either a nested *Context or a *LogEntry.
type Element interface {
	timestamp() time.Time
}

// LogEntry is a log attached to a Context.
type LogEntry struct {
	Kind      Kind      `json:"kind"`
	Context   *Context  `json:"-"`
	Text      string    `json:"text"`
	Data      any       `json:"data,omitempty"`
	Err       error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

func (l *LogEntry) timestamp() time.Time { return l.Timestamp }

// Diagnostic is implemented by errors carrying a payload worth attaching to their log.
type Diagnostic interface {
	Diagnostic() any
}

// Sink receives the log entries routed by a LogChannel.
type Sink interface {
	Accept(entry *LogEntry)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(entry *LogEntry)

func (f SinkFunc) Accept(entry *LogEntry) { f(entry) }

// LogChannel broadcasts the entries accepted by Filter to every sink.
type LogChannel struct {
	Filter func(entry *LogEntry) bool
	Sinks  []Sink
}

// NewLogChannel creates a channel; a nil filter accepts everything.
func NewLogChannel(filter func(entry *LogEntry) bool, sinks ...Sink) *LogChannel {
	if filter == nil {
		filter = AllLogs
	}

	return &LogChannel{Filter: filter, Sinks: sinks}
}

func (lc *LogChannel) dispatch(entry *LogEntry) {
	if !lc.Filter(entry) {
		return
	}

	for _, sink := range lc.Sinks {
		sink.Accept(entry)
	}
}

// AllLogs accepts every entry.
func AllLogs(*LogEntry) bool { return true }

// ErrorsOnly accepts KindError entries.
func ErrorsOnly(entry *LogEntry) bool { return entry.Kind == KindError }

// MemorySink keeps received entries in memory.
type MemorySink struct {
	mu      sync.RWMutex
	entries []*LogEntry
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Accept(entry *LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
}

// Entries returns a copy of the received entries.
func (s *MemorySink) Entries() []*LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*LogEntry(nil), s.entries...)
}

// Last returns the most recent entry, nil when none was received.
func (s *MemorySink) Last() *LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil
	}

	return s.entries[len(s.entries)-1]
}

// Journal exposes the root Context of the latest execution of a logical operation.
type Journal struct {
	Title      string   `json:"title"`
	Abstract   string   `json:"abstract,omitempty"`
	EntryPoint *Context `json:"-"`
}
