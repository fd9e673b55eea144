package logging

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// smallWriter returns a writer whose limit is set in bytes so tests do not
// need to write megabytes to trigger rotation.
func smallWriter(t *testing.T, limit int64, cfg RotationConfig) *RotatingWriter {
	t.Helper()
	rw, err := NewRotatingWriter(filepath.Join(t.TempDir(), LogFileName), cfg)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	rw.limit = limit
	t.Cleanup(func() { _ = rw.Close() })
	return rw
}

func mustWrite(t *testing.T, rw *RotatingWriter, s string) {
	t.Helper()
	if _, err := rw.Write([]byte(s)); err != nil {
		t.Fatalf("Write(%q) failed: %v", s, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	return string(data)
}

func TestNewRotatingWriter(t *testing.T) {
	t.Run("creates nested directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "a", "b", LogFileName)
		rw, err := NewRotatingWriter(path, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		defer func() { _ = rw.Close() }()

		if rw.Path() != path {
			t.Errorf("Path() = %q, want %q", rw.Path(), path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("file not created: %v", err)
		}
	})

	t.Run("picks up existing size", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), LogFileName)
		if err := os.WriteFile(path, []byte("0123456789"), 0644); err != nil {
			t.Fatal(err)
		}
		rw, err := NewRotatingWriter(path, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		defer func() { _ = rw.Close() }()

		if rw.Size() != 10 {
			t.Errorf("Size() = %d, want 10", rw.Size())
		}
	})
}

func TestRotatingWriter_Rotates(t *testing.T) {
	rw := smallWriter(t, 10, RotationConfig{MaxBackups: 2})

	mustWrite(t, rw, "aaaaaaaa\n") // 9 bytes
	mustWrite(t, rw, "bbbbbbbb\n") // would exceed: rotate first
	mustWrite(t, rw, "cccccccc\n")

	if got := readFile(t, rw.Path()); got != "cccccccc\n" {
		t.Errorf("active = %q", got)
	}
	if got := readFile(t, rw.backupPath(1)); got != "bbbbbbbb\n" {
		t.Errorf("backup 1 = %q", got)
	}
	if got := readFile(t, rw.backupPath(2)); got != "aaaaaaaa\n" {
		t.Errorf("backup 2 = %q", got)
	}
}

func TestRotatingWriter_DropsOldestBackup(t *testing.T) {
	rw := smallWriter(t, 4, RotationConfig{MaxBackups: 1})

	mustWrite(t, rw, "one\n")
	mustWrite(t, rw, "two\n")
	mustWrite(t, rw, "three\n")

	if got := readFile(t, rw.backupPath(1)); got != "two\n" {
		t.Errorf("backup 1 = %q, want %q", got, "two\n")
	}
	if _, err := os.Stat(rw.backupPath(2)); !os.IsNotExist(err) {
		t.Error("backup 2 should not exist with MaxBackups=1")
	}
}

func TestRotatingWriter_NoBackupsTruncates(t *testing.T) {
	rw := smallWriter(t, 4, RotationConfig{})

	mustWrite(t, rw, "old\n")
	mustWrite(t, rw, "new\n")

	if got := readFile(t, rw.Path()); got != "new\n" {
		t.Errorf("active = %q, want %q", got, "new\n")
	}
	if _, err := os.Stat(rw.backupPath(1)); !os.IsNotExist(err) {
		t.Error("no backup should be kept")
	}
}

func TestRotatingWriter_OversizedRecordNotSplit(t *testing.T) {
	rw := smallWriter(t, 4, RotationConfig{MaxBackups: 1})

	// A record larger than the limit goes whole into an empty file.
	mustWrite(t, rw, "a very long record\n")
	if got := readFile(t, rw.Path()); got != "a very long record\n" {
		t.Errorf("active = %q", got)
	}
}

func TestRotatingWriter_Compress(t *testing.T) {
	rw := smallWriter(t, 6, RotationConfig{MaxBackups: 2, Compress: true})

	mustWrite(t, rw, "first\n")
	mustWrite(t, rw, "second\n")

	if _, err := os.Stat(rw.backupPath(1)); !os.IsNotExist(err) {
		t.Error("uncompressed backup should be removed after compression")
	}

	f, err := os.Open(rw.backupPath(1) + ".gz")
	if err != nil {
		t.Fatalf("compressed backup missing: %v", err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "first\n" {
		t.Errorf("decompressed = %q, want %q", data, "first\n")
	}
}

func TestRotatingWriter_Closed(t *testing.T) {
	rw := smallWriter(t, 0, DefaultRotationConfig())
	if err := rw.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := rw.Write([]byte("x")); err == nil {
		t.Error("Write after Close should fail")
	}
	if err := rw.Sync(); err != nil {
		t.Errorf("Sync after Close = %v, want nil", err)
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	rw := smallWriter(t, 256, RotationConfig{MaxBackups: 100})

	const goroutines, lines = 4, 50
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range lines {
				_, _ = rw.Write([]byte("0123456789\n"))
			}
		}()
	}
	wg.Wait()
	if err := rw.Sync(); err != nil {
		t.Fatal(err)
	}

	total := 0
	for _, path := range LogFiles(filepath.Dir(rw.Path())) {
		total += strings.Count(readFile(t, path), "\n")
	}
	if total != goroutines*lines {
		t.Errorf("lines across files = %d, want %d", total, goroutines*lines)
	}
}
