package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogger_LineFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelInfo)
	l.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

	l.Info("tick %d done", 3)

	want := "[2024-03-01 10:00:00] INFO: tick 3 done\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelWarning)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warning("shown")
	l.Error("shown too")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Messages below WARNING should be dropped, got %q", out)
	}
	if strings.Count(out, "\n") != 2 {
		t.Errorf("Expected 2 lines, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel("DEBUG"); err != nil || lvl != LevelDebug {
		t.Errorf("Expected DEBUG, got %s (%v)", lvl, err)
	}
	if lvl, err := ParseLevel("warn"); err != nil || lvl != LevelWarning {
		t.Errorf("Expected WARNING, got %s (%v)", lvl, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskly.log")
	l, err := New(path, LevelDebug)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l.Error("disk read failed: %s", "boom")
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "ERROR: disk read failed: boom") {
		t.Errorf("Unexpected log content %q", data)
	}

	// Writes after Close are dropped, not panics
	l.Info("after close")
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger
	l.Info("nothing")
}
