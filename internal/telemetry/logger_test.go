package telemetry

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriterLoggerEmitsJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf).With(map[string]any{"session": "s-1"})
	l.Info("session.login.ok", map[string]any{"history": 3})
	l.Error("api.call.failed", map[string]any{"status": 500, "endpoint": "generate_question"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line is not json: %v", err)
	}
	if first["msg"] != "session.login.ok" || first["session"] != "s-1" {
		t.Fatalf("unexpected entry %#v", first)
	}
	if _, ok := first["time"]; !ok {
		t.Fatalf("expected timestamp in %#v", first)
	}
}

func TestEmptyPathDiscards(t *testing.T) {
	l, err := NewJSONLogger("")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	l.Info("ignored", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "codequiz.log")
	for i := 0; i < 2; i++ {
		l, err := NewJSONLogger(path)
		if err != nil {
			t.Fatalf("new logger: %v", err)
		}
		l.Info("app.start", nil)
		_ = l.Close()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if n := strings.Count(string(b), "app.start"); n != 2 {
		t.Fatalf("expected 2 entries across opens, got %d", n)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Info("x", nil)
	l.Error("x", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("close nil: %v", err)
	}
}
