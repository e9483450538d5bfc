package telemetry

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"
)

// Logger writes one JSON object per event. Field maps are flattened into
// key/value pairs in sorted order so output is stable.
type Logger struct {
	mu   sync.Mutex
	w    io.WriteCloser
	base *clog.Logger
}

func NewJSONLogger(path string) (*Logger, error) {
	if path == "" {
		return newLogger(nopCloser{Writer: io.Discard}), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return newLogger(f), nil
}

// NewWriterLogger logs to w without taking ownership of it.
func NewWriterLogger(w io.Writer) *Logger {
	return newLogger(nopCloser{Writer: w})
}

func newLogger(w io.WriteCloser) *Logger {
	base := clog.NewWithOptions(w, clog.Options{
		Formatter:       clog.JSONFormatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		TimeFunction:    func(t time.Time) time.Time { return t.UTC() },
		Level:           clog.DebugLevel,
	})
	return &Logger{w: w, base: base}
}

// With returns a logger that adds fields to every event.
func (l *Logger) With(fields map[string]any) *Logger {
	if l == nil || l.base == nil {
		return l
	}
	return &Logger{w: l.w, base: l.base.With(keyvals(fields)...)}
}

func (l *Logger) Debug(msg string, fields map[string]any) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Debug(msg, keyvals(fields)...)
}

func (l *Logger) Info(msg string, fields map[string]any) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Info(msg, keyvals(fields)...)
}

func (l *Logger) Error(msg string, fields map[string]any) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Error(msg, keyvals(fields)...)
}

func (l *Logger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Close()
}

func keyvals(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
