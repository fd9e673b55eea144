// Package report prints run progress and summaries and writes result files.
//
// Reporters consume events from an event.Bus, so the simulation never
// depends on how (or whether) it is presented.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Iron-Ham/percolate/internal/event"
	"github.com/Iron-Ham/percolate/internal/stats"
	"github.com/Iron-Ham/percolate/internal/tui/styles"
	"github.com/Iron-Ham/percolate/internal/util"
)

// Reporter handles simulation events.
type Reporter interface {
	Handle(e event.Event)
}

// Attach subscribes r to every event on bus and returns a function that
// removes the subscription.
func Attach(bus *event.Bus, r Reporter) (detach func()) {
	id := bus.SubscribeAll(r.Handle)
	return func() { bus.Unsubscribe(id) }
}

// TextReporter writes human-readable, lipgloss-styled lines.
type TextReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextReporter creates a TextReporter writing to w.
func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{w: w}
}

// Handle renders run start, progress, trial failures and the final summary.
// Per-round events are ignored.
func (r *TextReporter) Handle(e event.Event) {
	var out string
	switch ev := e.(type) {
	case event.RunStartedEvent:
		out = FormatStarted(ev)
	case event.RunProgressEvent:
		out = FormatProgress(ev)
	case event.TrialFailedEvent:
		out = styles.Warning.Render(fmt.Sprintf("round %d: %v", ev.Round, ev.Err))
	case event.RunCompletedEvent:
		out = FormatSummary(ev)
	default:
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, out)
}

// FormatStarted renders the run header line.
func FormatStarted(ev event.RunStartedEvent) string {
	c := ev.Config
	return fmt.Sprintf("%s %s  %s",
		styles.Primary.Bold(true).Render("percolate"),
		styles.Muted.Render("run "+ev.RunID),
		styles.Text.Render(fmt.Sprintf("%d×%d  p=%.4f  workers=%d  slots=%d  rounds=%d  seed=%d",
			c.Width, c.Height, c.PSite, c.Workers, c.Slots, c.Rounds, c.Seed)))
}

// FormatProgress renders one progress line with the running frequencies.
func FormatProgress(ev event.RunProgressEvent) string {
	width := len(fmt.Sprint(ev.Rounds))
	f := ev.Totals.Frequencies()
	return fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		styles.Muted.Render(fmt.Sprintf("[%*d/%d]", width, ev.Round+1, ev.Rounds)),
		styles.Text.Render(util.FormatCount(ev.Totals.Samples)+" samples"),
		styles.Muted.Render("x"), styles.Secondary.Render(fmt.Sprintf("%.4f", f.X)),
		styles.Muted.Render("y"), styles.Secondary.Render(fmt.Sprintf("%.4f", f.Y)),
		styles.Muted.Render("both"), styles.Secondary.Render(fmt.Sprintf("%.4f", f.Both)),
	)
}

// FormatSummary renders the boxed end-of-run summary.
func FormatSummary(ev event.RunCompletedEvent) string {
	status := styles.StatusComplete
	if ev.Canceled {
		status = styles.StatusCanceled
	}
	return styles.ContentBox.Render(strings.Join([]string{
		styles.Title.Render("Run " + ev.RunID),
		row("status", styles.Status(status)),
		row("rounds", fmt.Sprint(ev.Rounds)),
		summaryRows(ev.Totals, ev.Elapsed),
	}, "\n"))
}

func summaryRows(s stats.Snapshot, elapsed time.Duration) string {
	f := s.Frequencies()
	rows := []string{
		row("samples", util.FormatCount(s.Samples)),
		row("percolates x", fmt.Sprintf("%.4f  (%s)", f.X, util.FormatCount(s.X))),
		row("percolates y", fmt.Sprintf("%.4f  (%s)", f.Y, util.FormatCount(s.Y))),
		row("both", fmt.Sprintf("%.4f  (%s)", f.Both, util.FormatCount(s.Both))),
	}
	if s.Failures > 0 {
		rows = append(rows, styles.Label.Render("failed")+styles.Error.Render(util.FormatCount(s.Failures)))
	}
	rows = append(rows, row("elapsed", util.FormatDuration(elapsed)))
	return strings.Join(rows, "\n")
}

func row(label, value string) string {
	return styles.Label.Render(label) + styles.Value.Render(value)
}

// JSONReporter writes one JSON object per line for run start, progress,
// trial failures and completion.
type JSONReporter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONReporter creates a JSONReporter writing to w.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{enc: json.NewEncoder(w)}
}

// Record is the JSON shape of one reported event.
type Record struct {
	Type        string             `json:"type"`
	Time        time.Time          `json:"time"`
	RunID       string             `json:"run_id"`
	Round       *int               `json:"round,omitempty"`
	Rounds      int                `json:"rounds,omitempty"`
	Counts      *stats.Snapshot    `json:"counts,omitempty"`
	Frequencies *stats.Frequencies `json:"frequencies,omitempty"`
	Config      *event.RunConfig   `json:"config,omitempty"`
	ElapsedMS   int64              `json:"elapsed_ms,omitempty"`
	Error       string             `json:"error,omitempty"`
	Canceled    bool               `json:"canceled,omitempty"`
}

// Handle encodes e. Per-round events are ignored.
func (r *JSONReporter) Handle(e event.Event) {
	rec := Record{Type: e.EventType(), Time: e.Timestamp()}
	switch ev := e.(type) {
	case event.RunStartedEvent:
		rec.RunID = ev.RunID
		rec.Rounds = ev.Config.Rounds
		rec.Config = &ev.Config
	case event.RunProgressEvent:
		rec.RunID = ev.RunID
		rec.Round = &ev.Round
		rec.Rounds = ev.Rounds
		rec.withTotals(ev.Totals, ev.Elapsed)
	case event.TrialFailedEvent:
		rec.RunID = ev.RunID
		rec.Round = &ev.Round
		rec.Error = ev.Err.Error()
	case event.RunCompletedEvent:
		rec.RunID = ev.RunID
		rec.Rounds = ev.Rounds
		rec.Canceled = ev.Canceled
		if ev.Err != nil {
			rec.Error = ev.Err.Error()
		}
		rec.withTotals(ev.Totals, ev.Elapsed)
	default:
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(rec)
}

func (r *Record) withTotals(s stats.Snapshot, elapsed time.Duration) {
	f := s.Frequencies()
	r.Counts = &s
	r.Frequencies = &f
	r.ElapsedMS = elapsed.Milliseconds()
}
