// Package logging provides leveled logging and decision tracing for scengen.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr and an optional log file (operational output)
//   - A DecisionLogger for structured JSONL traces of every randomized choice
//     (<output_dir>/.scengen/decisions.jsonl)
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nvandessel/scengen/internal/constants"
)

// LevelTrace is a custom slog level below Debug for full content logging.
// At this level, every digested field and every resolved identifier is logged.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "error", "warn", "info", "debug", "trace" (case-insensitive).
// Unknown values default to error, the quiet command-line default.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelError
	}
}

// ValidLevel reports whether s names a supported level.
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "error", "warn", "warning", "info", "debug", "trace":
		return true
	}
	return false
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewFileLogger creates a logger that writes to stderr and, when logFile is
// non-empty, also to logFile (truncated on open). The returned close function
// is never nil.
func NewFileLogger(level, logFile string) (*slog.Logger, func() error, error) {
	if logFile == "" {
		return NewLogger(level, os.Stderr), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	return NewLogger(level, io.MultiWriter(os.Stderr, f)), f.Close, nil
}

// Discard returns a logger that drops everything. Used as the default when no
// logger is injected.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Decision is one randomized choice made while digesting a field.
type Decision struct {
	Directive string `json:"directive"`
	Input     string `json:"input"`
	Value     any    `json:"value"`
}

// decisionRecord is the JSONL line written for a Decision.
type decisionRecord struct {
	Seq  int    `json:"seq"`
	Time string `json:"time"`
	Decision
}

// DecisionLogger appends Decisions to <dir>/decisions.jsonl, numbering them
// in the order they were made. A nil *DecisionLogger discards everything.
type DecisionLogger struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
	seq int
}

// NewDecisionLogger opens the decision file in dir when level is debug or
// trace. It returns nil otherwise, and when the file cannot be opened.
func NewDecisionLogger(dir string, level string) *DecisionLogger {
	if ParseLevel(level) > slog.LevelDebug {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, constants.DecisionsFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &DecisionLogger{f: f, enc: json.NewEncoder(f)}
}

// Record appends d. Values that cannot be encoded are dropped.
func (dl *DecisionLogger) Record(d Decision) {
	if dl == nil {
		return
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.f == nil {
		return
	}
	dl.seq++
	_ = dl.enc.Encode(decisionRecord{
		Seq:      dl.seq,
		Time:     time.Now().UTC().Format(time.RFC3339Nano),
		Decision: d,
	})
}

// Count returns the number of decisions recorded so far.
func (dl *DecisionLogger) Count() int {
	if dl == nil {
		return 0
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.seq
}

// Close closes the decision file. Later calls to Record are no-ops.
func (dl *DecisionLogger) Close() {
	if dl == nil {
		return
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.f != nil {
		dl.f.Close()
		dl.f = nil
	}
}
