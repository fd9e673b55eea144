// Package testutil provides testing utilities for percolate tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Iron-Ham/percolate/internal/lattice"
)

// DefaultTimeout bounds WithTimeout when a test passes zero.
const DefaultTimeout = 10 * time.Second

// WithTimeout runs fn on its own goroutine and fails the test if it has not
// returned within d. It guards tests of blocking code (pool barriers,
// shutdown) so a deadlock fails fast instead of hanging the whole run.
func WithTimeout(t *testing.T, d time.Duration, fn func()) {
	t.Helper()

	if d <= 0 {
		d = DefaultTimeout
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()

	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("timed out after %v", d)
	}
}

// WriteConfig writes content as config.yaml in a fresh temporary directory
// and returns the file path.
func WriteConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// FixtureLattice parses rows of '#' (occupied) and '.' (empty) into a
// lattice, failing the test on malformed input.
func FixtureLattice(t *testing.T, rows ...string) *lattice.Lattice {
	t.Helper()

	var text string
	for _, row := range rows {
		text += row + "\n"
	}
	l, err := lattice.Parse(text)
	if err != nil {
		t.Fatalf("invalid fixture lattice: %v", err)
	}
	return l
}
