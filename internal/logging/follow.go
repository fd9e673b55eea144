package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// Follow streams entries appended to the active log in dir to emit until
// ctx is done, like tail -f. Only entries written after Follow starts are
// emitted. When the log rotates, the rest of the old file is read and the
// new file is followed from its first line.
func Follow(ctx context.Context, dir string, filter LogFilter, emit func(LogEntry)) error {
	g, err := compilePattern(filter.Pattern)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Rotation renames the file, so the directory is watched rather than
	// the file itself.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	f := &follower{
		path:   filepath.Clean(filepath.Join(dir, LogFileName)),
		filter: filter,
		glob:   g,
		emit:   emit,
	}
	if err := f.open(false); err != nil && !os.IsNotExist(err) {
		return err
	}
	defer f.close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if err := f.handle(ev); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
}

// follower reads complete lines appended to one log file.
type follower struct {
	path    string
	file    *os.File
	partial []byte

	filter LogFilter
	glob   glob.Glob
	emit   func(LogEntry)
}

func (f *follower) handle(ev fsnotify.Event) error {
	switch {
	case ev.Has(fsnotify.Create):
		if err := f.drain(); err != nil {
			return err
		}
		f.close()
		if err := f.open(true); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		return f.drain()

	case ev.Has(fsnotify.Write):
		if f.file == nil {
			if err := f.open(true); err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
		}
		return f.drain()
	}
	return nil
}

func (f *follower) open(fromStart bool) error {
	file, err := os.Open(f.path)
	if err != nil {
		return err
	}
	if !fromStart {
		if _, err := file.Seek(0, io.SeekEnd); err != nil {
			_ = file.Close()
			return fmt.Errorf("failed to seek to end: %w", err)
		}
	}
	f.file = file
	f.partial = nil
	return nil
}

func (f *follower) close() {
	if f.file != nil {
		_ = f.file.Close()
		f.file = nil
	}
}

// drain reads to the current end of the file.
func (f *follower) drain() error {
	if f.file == nil {
		return nil
	}
	buf := make([]byte, 32*1024)
	for {
		n, err := f.file.Read(buf)
		if n > 0 {
			f.consume(buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading log file: %w", err)
		}
	}
}

// consume emits every complete line in b and keeps the unterminated tail
// for the next read.
func (f *follower) consume(b []byte) {
	f.partial = append(f.partial, b...)
	for {
		i := bytes.IndexByte(f.partial, '\n')
		if i < 0 {
			return
		}
		line := strings.TrimSpace(string(f.partial[:i]))
		f.partial = f.partial[i+1:]
		if line == "" {
			continue
		}
		entry, err := parseLogEntry(line)
		if err != nil {
			continue
		}
		if matchesFilter(entry, f.filter, f.glob) {
			f.emit(entry)
		}
	}
}
