package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("line is not JSON: %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNewLogger(t *testing.T) {
	t.Run("creates log file in directory", func(t *testing.T) {
		dir := t.TempDir()

		logger, err := NewLogger(dir, LevelDebug)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		if _, err := os.Stat(filepath.Join(dir, LogFileName)); err != nil {
			t.Errorf("log file was not created: %v", err)
		}
	})

	t.Run("empty dir writes to stderr and owns nothing", func(t *testing.T) {
		logger, err := NewLogger("", LevelInfo)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		if logger.closer != nil {
			t.Error("stderr logger should not own a closer")
		}
		if err := logger.Close(); err != nil {
			t.Errorf("Close() = %v, want nil", err)
		}
	})
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := decodeLines(t, buf.Bytes())
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["level"] != "WARN" || lines[1]["level"] != "ERROR" {
		t.Errorf("levels = %v, %v", lines[0]["level"], lines[1]["level"])
	}
	if logger.Enabled(LevelInfo) {
		t.Error("Enabled(INFO) = true at WARN level")
	}
}

func TestContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := NewWriterLogger(&buf, LevelDebug)

	base.WithRun("run-1").WithRound(4).WithWorker(2).Info("trial done", "slot", 7)

	lines := decodeLines(t, buf.Bytes())
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	got := lines[0]
	if got[KeyRunID] != "run-1" {
		t.Errorf("run_id = %v, want run-1", got[KeyRunID])
	}
	if got[KeyRound] != float64(4) {
		t.Errorf("round = %v, want 4", got[KeyRound])
	}
	if got[KeyWorker] != float64(2) {
		t.Errorf("worker = %v, want 2", got[KeyWorker])
	}
	if got["slot"] != float64(7) {
		t.Errorf("slot = %v, want 7", got["slot"])
	}
}

func TestChildLoggersDoNotLeakAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := NewWriterLogger(&buf, LevelDebug)
	run := base.WithRun("r")

	_ = run.WithRound(1)
	run.With("phase", "setup").Info("a")
	run.Info("b")

	lines := decodeLines(t, buf.Bytes())
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if _, ok := lines[0][KeyRound]; ok {
		t.Error("sibling child attributes leaked into parent")
	}
	if lines[0]["phase"] != "setup" {
		t.Errorf("phase = %v, want setup", lines[0]["phase"])
	}
	if _, ok := lines[1]["phase"]; ok {
		t.Error("With() mutated the parent logger")
	}
}

func TestWithIgnoresNonStringKeys(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, LevelInfo)
	if l.With() != l {
		t.Error("With() with no args should return the receiver")
	}

	l.With(42, "dropped", "kept", true).Info("x")
	line := decodeLines(t, buf.Bytes())[0]
	if line["kept"] != true {
		t.Errorf("kept = %v, want true", line["kept"])
	}
}

func TestConcurrentLogging(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wl := logger.WithWorker(w)
			for i := range perWorker {
				wl.Info("tick", "i", i)
			}
		}()
	}
	wg.Wait()
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatal(err)
	}
	if got := len(decodeLines(t, data)); got != workers*perWorker {
		t.Errorf("got %d lines, want %d", got, workers*perWorker)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	logger, err := NewLoggerWithRotation(t.TempDir(), LevelInfo, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLoggerWithRotation failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("first Close() = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if got := len(ValidLevels()); got != 4 {
		t.Errorf("len(ValidLevels()) = %d, want 4", got)
	}
}

func TestNopLogger(t *testing.T) {
	l := NopLogger()
	l.WithRun("x").Error("discarded")
	if err := l.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
