package logging

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

// LogEntry is one parsed line of a run log.
type LogEntry struct {
	Timestamp time.Time      `json:"time"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	RunID     string         `json:"run_id,omitempty"`
	Worker    *int           `json:"worker,omitempty"`
	Round     *int           `json:"round,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// LogFilter selects entries. Zero-valued fields match everything and all
// set fields must match.
type LogFilter struct {
	// Level keeps entries at or above this level.
	Level string
	Since time.Time
	Until time.Time
	RunID string
	// Worker and Round, when non-nil, require an exact match.
	Worker *int
	Round  *int
	// Pattern is a glob matched against the whole message, e.g. "round*".
	Pattern string
}

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// LogFiles returns the active log file in dir followed by its rotated
// backups, newest first. Missing backups are skipped.
func LogFiles(dir string) []string {
	active := filepath.Join(dir, LogFileName)
	files := []string{active}
	for i := 1; ; i++ {
		p := fmt.Sprintf("%s.%d", active, i)
		if _, err := os.Stat(p); err == nil {
			files = append(files, p)
			continue
		}
		if _, err := os.Stat(p + ".gz"); err == nil {
			files = append(files, p+".gz")
			continue
		}
		return files
	}
}

// AggregateLogs parses every entry in dir's active log and its backups and
// returns them in timestamp order, oldest file first on ties. Lines that are
// not valid JSON are skipped.
func AggregateLogs(dir string) ([]LogEntry, error) {
	files := LogFiles(dir)
	if _, err := os.Stat(files[0]); err != nil && len(files) == 1 {
		return nil, fmt.Errorf("no log file found in %s: %w", dir, err)
	}

	var entries []LogEntry
	for i := len(files) - 1; i >= 0; i-- {
		got, err := readLogFile(files[i])
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		entries = append(entries, got...)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

func readLogFile(path string) ([]LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open compressed log %s: %w", path, err)
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}

	return ParseLogs(r)
}

// ParseLogs reads JSON log lines from r.
func ParseLogs(r io.Reader) ([]LogEntry, error) {
	var entries []LogEntry

	scanner := bufio.NewScanner(r)
	const maxLine = 1 << 20
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := parseLogEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log: %w", err)
	}
	return entries, nil
}

func parseLogEntry(line string) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	entry := LogEntry{Attrs: make(map[string]any)}
	for k, v := range raw {
		switch k {
		case "time":
			if s, ok := v.(string); ok {
				entry.Timestamp, _ = time.Parse(time.RFC3339Nano, s)
			}
		case "level":
			entry.Level, _ = v.(string)
		case "msg":
			entry.Message, _ = v.(string)
		case KeyRunID:
			entry.RunID, _ = v.(string)
		case KeyWorker:
			entry.Worker = intField(v)
		case KeyRound:
			entry.Round = intField(v)
		default:
			entry.Attrs[k] = v
		}
	}
	return entry, nil
}

func intField(v any) *int {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}

// FilterLogs returns the entries matching filter. An invalid Pattern is
// reported as an error rather than silently matching nothing.
func FilterLogs(entries []LogEntry, filter LogFilter) ([]LogEntry, error) {
	g, err := compilePattern(filter.Pattern)
	if err != nil {
		return nil, err
	}

	var out []LogEntry
	for _, e := range entries {
		if matchesFilter(e, filter, g) {
			out = append(out, e)
		}
	}
	return out, nil
}

// compilePattern returns nil for an empty pattern.
func compilePattern(pattern string) (glob.Glob, error) {
	if pattern == "" {
		return nil, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid message pattern %q: %w", pattern, err)
	}
	return g, nil
}

func matchesFilter(e LogEntry, f LogFilter, g glob.Glob) bool {
	if f.Level != "" {
		want, okWant := levelOrder[strings.ToUpper(f.Level)]
		have, okHave := levelOrder[e.Level]
		if okWant && okHave && have < want {
			return false
		}
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	if f.RunID != "" && e.RunID != f.RunID {
		return false
	}
	if f.Worker != nil && (e.Worker == nil || *e.Worker != *f.Worker) {
		return false
	}
	if f.Round != nil && (e.Round == nil || *e.Round != *f.Round) {
		return false
	}
	if g != nil && !g.Match(e.Message) {
		return false
	}
	return true
}

// WriteEntries renders entries to w as "json", "text", or "csv".
func WriteEntries(w io.Writer, entries []LogEntry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "text", "":
		for _, e := range entries {
			if _, err := io.WriteString(w, FormatText(e)+"\n"); err != nil {
				return err
			}
		}
		return nil
	case "csv":
		return writeCSV(w, entries)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: json, text, csv)", format)
	}
}

// ExportLogEntries writes entries to a new file at path. See WriteEntries
// for the supported formats.
func ExportLogEntries(entries []LogEntry, path string, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := WriteEntries(f, entries, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// FormatText renders a single entry as
// "[time] LEVEL - message (run=..., worker=N, round=N) {attrs}".
func FormatText(e LogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s - %s", e.Timestamp.Format("2006-01-02 15:04:05.000"), e.Level, e.Message)

	var ctx []string
	if e.RunID != "" {
		ctx = append(ctx, "run="+e.RunID)
	}
	if e.Worker != nil {
		ctx = append(ctx, "worker="+strconv.Itoa(*e.Worker))
	}
	if e.Round != nil {
		ctx = append(ctx, "round="+strconv.Itoa(*e.Round))
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ctx, ", "))
	}
	if len(e.Attrs) > 0 {
		attrs, _ := json.Marshal(e.Attrs)
		b.WriteByte(' ')
		b.Write(attrs)
	}
	return b.String()
}

func writeCSV(w io.Writer, entries []LogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "level", "message", "run_id", "worker", "round", "attrs"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	optInt := func(p *int) string {
		if p == nil {
			return ""
		}
		return strconv.Itoa(*p)
	}

	for _, e := range entries {
		attrs := ""
		if len(e.Attrs) > 0 {
			if b, err := json.Marshal(e.Attrs); err == nil {
				attrs = string(b)
			}
		}
		rec := []string{
			e.Timestamp.Format(time.RFC3339Nano),
			e.Level,
			e.Message,
			e.RunID,
			optInt(e.Worker),
			optInt(e.Round),
			attrs,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
