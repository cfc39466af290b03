package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriterCreatesFileAndDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "web.log")
	w := Config{Path: path}.Writer()
	if w == nil {
		t.Fatalf("expected writer")
	}
	if _, err := w.Write([]byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(b), "hello") {
		t.Fatalf("log content missing: %q", b)
	}
}

func TestWriterEmptyPath(t *testing.T) {
	if w := (Config{}).Writer(); w != nil {
		t.Fatalf("expected nil writer without path")
	}
}

func TestColorTextHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, true)
	l := slog.New(h)
	l.Error("boom")
	if !strings.Contains(buf.String(), "\033[31m") {
		t.Fatalf("error output missing red color code: %q", buf.String())
	}
	buf.Reset()
	l.Info("ok")
	if !strings.Contains(buf.String(), "\033[32m") {
		t.Fatalf("info output missing green color code: %q", buf.String())
	}
	// direct Handle with a debug record
	var rec slog.Record
	rec = slog.NewRecord(rec.Time, slog.LevelDebug, "dbg", 0)
	buf.Reset()
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(buf.String(), "\033[36m") {
		t.Fatalf("debug output missing cyan color code: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("debug") != slog.LevelDebug {
		t.Fatalf("debug")
	}
	if parseLevel("WARN") != slog.LevelWarn {
		t.Fatalf("warn")
	}
	if parseLevel("") != slog.LevelInfo {
		t.Fatalf("default should be info")
	}
}
