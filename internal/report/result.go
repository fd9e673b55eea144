package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/percolate/internal/errors"
	"github.com/Iron-Ham/percolate/internal/simulation"
)

// Result file formats, chosen by extension.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatForPath returns the result format for path's extension.
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.NewValidationError("result file must end in .json, .yaml or .yml").
			WithField("output").WithValue(path)
	}
}

// WriteResult writes results to path as JSON or YAML. A single result is
// written as an object, several as a list. The file is replaced atomically
// while holding a lock on its directory.
func WriteResult(path string, results ...*simulation.Result) error {
	if len(results) == 0 {
		return errors.NewValidationError("no results to write").WithField("results")
	}
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}

	var v any = results
	if len(results) == 1 {
		v = results[0]
	}
	data, err := encode(format, v)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create result directory: %w", err)
	}
	lock := newFileLock(dir)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	return atomicWriteFile(path, data, 0644)
}

func encode(format string, v any) ([]byte, error) {
	if format == FormatYAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ReadResults loads a file written by WriteResult, accepting both the
// single-object and the list shape.
func ReadResults(path string) ([]*simulation.Result, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}

	unmarshal := json.Unmarshal
	if format == FormatYAML {
		unmarshal = yaml.Unmarshal
	}

	trimmed := bytes.TrimSpace(data)
	if isList(format, trimmed) {
		var list []*simulation.Result
		if err := unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parse results: %w", err)
		}
		return list, nil
	}
	var one simulation.Result
	if err := unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return []*simulation.Result{&one}, nil
}

func isList(format string, data []byte) bool {
	if format == FormatJSON {
		return bytes.HasPrefix(data, []byte("["))
	}
	return bytes.HasPrefix(data, []byte("- "))
}

// atomicWriteFile writes data to a temporary file in the target directory,
// syncs it and renames it over path, so readers never see a partial file.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
