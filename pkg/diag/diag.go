// Package diag collects the non-fatal diagnostics of one pipeline run:
// reconciliation conflicts, skipped weights, unknown applications and
// similar warnings. Entries are appended, never removed, and mirrored to a
// zerolog logger as they arrive.
package diag

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/alloymap/pkg/logging"
)

// Level is the severity of an entry.
type Level string

// Entry levels.
const (
	LevelInfo Level = "info"
	LevelWarn Level = "warn"
)

// Entry is one diagnostic.
type Entry struct {
	Level     Level  `json:"level" yaml:"level"`
	Component string `json:"component" yaml:"component"`
	Alloy     string `json:"alloy,omitempty" yaml:"alloy,omitempty"`
	Message   string `json:"message" yaml:"message"`
}

// String formats the entry for plain-text reports.
func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s: %s", e.Level, e.Component, e.Message)
}

// Sink is an append-only diagnostics list scoped to one run.
// A nil *Sink discards everything. Not safe for concurrent use.
type Sink struct {
	logger  zerolog.Logger
	entries []Entry
}

// NewSink creates a sink mirroring entries to logger, or to the default
// logger when logger is nil.
func NewSink(logger *zerolog.Logger) *Sink {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sink{logger: *logger}
}

// Warn records a warning.
func (s *Sink) Warn(component, alloy, message string) {
	s.add(LevelWarn, component, alloy, message)
}

// Warnf records a formatted warning.
func (s *Sink) Warnf(component, alloy, format string, args ...any) {
	s.add(LevelWarn, component, alloy, fmt.Sprintf(format, args...))
}

// Info records an informational entry.
func (s *Sink) Info(component, alloy, message string) {
	s.add(LevelInfo, component, alloy, message)
}

func (s *Sink) add(level Level, component, alloy, message string) {
	if s == nil {
		return
	}
	s.entries = append(s.entries, Entry{
		Level:     level,
		Component: component,
		Alloy:     alloy,
		Message:   message,
	})

	logger := s.logger
	if alloy != "" {
		logger = logging.Alloy(&s.logger, alloy)
	}
	event := logger.Info()
	if level == LevelWarn {
		event = logger.Warn()
	}
	event.Str("component", component).Msg(message)
}

// Entries returns a copy of every entry in arrival order.
func (s *Sink) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Filter returns the entries recorded by component.
func (s *Sink) Filter(component string) []Entry {
	var out []Entry
	for _, e := range s.Entries() {
		if e.Component == component {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of entries at level.
func (s *Sink) Count(level Level) int {
	n := 0
	for _, e := range s.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Len returns the number of entries.
func (s *Sink) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Messages returns the entry messages in arrival order.
func (s *Sink) Messages() []string {
	entries := s.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

// Summary joins the messages with newlines.
func (s *Sink) Summary() string {
	return strings.Join(s.Messages(), "\n")
}
