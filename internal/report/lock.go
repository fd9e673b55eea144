package report

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

const lockFileName = ".percolate-results.lock"

// fileLock provides cross-process mutual exclusion using flock(2), so two
// percolate processes writing results into one directory never interleave.
type fileLock struct {
	path string
	file *os.File
}

func newFileLock(dir string) *fileLock {
	return &fileLock{path: filepath.Join(dir, lockFileName)}
}

// Lock acquires an exclusive lock, blocking until it is available.
func (fl *fileLock) Lock() error {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return fmt.Errorf("flock: %w", err)
	}
	fl.file = f
	return nil
}

// Unlock releases the lock. It is a no-op when the lock is not held.
func (fl *fileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}
	err := syscall.Flock(int(fl.file.Fd()), syscall.LOCK_UN)
	if cerr := fl.file.Close(); err == nil {
		err = cerr
	}
	fl.file = nil
	if err != nil {
		return fmt.Errorf("funlock: %w", err)
	}
	return nil
}
