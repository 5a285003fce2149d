package debug

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogDisabledWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	Disable()

	Log("test", "hello %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("expected no output while disabled, got %q", buf.String())
	}
}

func TestLogFormat(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	Log("router", "note=%d", 60)
	line := buf.String()
	if !strings.Contains(line, "router") || !strings.Contains(line, "note=60") {
		t.Fatalf("unexpected log line %q", line)
	}
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "\n") {
		t.Fatalf("line not timestamped/terminated: %q", line)
	}
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	for i := 0; i < 9; i++ {
		LogEvery(3, "every", "tick")
	}
	if got := strings.Count(buf.String(), "\n"); got != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", got, buf.String())
	}
}

func TestEnableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "debug.log")
	if err := Enable(path); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	Log("file", "written")
	Disable()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("cannot read log: %v", err)
	}
	if !strings.Contains(string(data), "Debug logging started") || !strings.Contains(string(data), "written") {
		t.Fatalf("unexpected log contents %q", data)
	}
}
