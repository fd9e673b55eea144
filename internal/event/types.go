package event

import (
	"time"

	"github.com/Iron-Ham/percolate/internal/stats"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a "category.action" identifier, e.g. "run.started".
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeRunStarted     = "run.started"
	TypeRoundCompleted = "round.completed"
	TypeTrialFailed    = "trial.failed"
	TypeRunProgress    = "run.progress"
	TypeRunCompleted   = "run.completed"
)

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Run Lifecycle Events
// -----------------------------------------------------------------------------

// RunConfig describes the parameters a run was started with.
type RunConfig struct {
	Width          int
	Height         int
	PSite          float64
	Workers        int
	Slots          int
	Rounds         int
	ReportInterval int
	Seed           uint64
}

// RunStartedEvent is emitted once, before the first round is submitted.
type RunStartedEvent struct {
	baseEvent
	RunID  string
	Config RunConfig
}

// NewRunStartedEvent creates a RunStartedEvent.
func NewRunStartedEvent(runID string, cfg RunConfig) RunStartedEvent {
	return RunStartedEvent{
		baseEvent: newBaseEvent(TypeRunStarted),
		RunID:     runID,
		Config:    cfg,
	}
}

// RunCompletedEvent is emitted once when a run stops, whether it finished
// every round or was canceled between rounds.
type RunCompletedEvent struct {
	baseEvent
	RunID    string
	Rounds   int            // rounds actually executed
	Totals   stats.Snapshot // final counters
	Elapsed  time.Duration
	Err      error // non-nil when the run ended early
	Canceled bool
}

// NewRunCompletedEvent creates a RunCompletedEvent.
func NewRunCompletedEvent(runID string, rounds int, totals stats.Snapshot, elapsed time.Duration, err error) RunCompletedEvent {
	return RunCompletedEvent{
		baseEvent: newBaseEvent(TypeRunCompleted),
		RunID:     runID,
		Rounds:    rounds,
		Totals:    totals,
		Elapsed:   elapsed,
		Err:       err,
		Canceled:  err != nil,
	}
}

// -----------------------------------------------------------------------------
// Round Events
// -----------------------------------------------------------------------------

// RoundCompletedEvent is emitted after every pool barrier.
type RoundCompletedEvent struct {
	baseEvent
	RunID   string
	Round   int // zero-based
	Rounds  int // total rounds planned
	Failed  int // trials that failed in this round
	Totals  stats.Snapshot
	Elapsed time.Duration // since the run started
}

// NewRoundCompletedEvent creates a RoundCompletedEvent.
func NewRoundCompletedEvent(runID string, round, rounds, failed int, totals stats.Snapshot, elapsed time.Duration) RoundCompletedEvent {
	return RoundCompletedEvent{
		baseEvent: newBaseEvent(TypeRoundCompleted),
		RunID:     runID,
		Round:     round,
		Rounds:    rounds,
		Failed:    failed,
		Totals:    totals,
		Elapsed:   elapsed,
	}
}

// TrialFailedEvent is emitted for each trial that produced no sample.
type TrialFailedEvent struct {
	baseEvent
	RunID string
	Round int
	Err   error
}

// NewTrialFailedEvent creates a TrialFailedEvent.
func NewTrialFailedEvent(runID string, round int, err error) TrialFailedEvent {
	return TrialFailedEvent{
		baseEvent: newBaseEvent(TypeTrialFailed),
		RunID:     runID,
		Round:     round,
		Err:       err,
	}
}

// RunProgressEvent is the periodic report of running frequencies.
type RunProgressEvent struct {
	baseEvent
	RunID   string
	Round   int // zero-based index of the last completed round
	Rounds  int
	Totals  stats.Snapshot
	Elapsed time.Duration
}

// NewRunProgressEvent creates a RunProgressEvent.
func NewRunProgressEvent(runID string, round, rounds int, totals stats.Snapshot, elapsed time.Duration) RunProgressEvent {
	return RunProgressEvent{
		baseEvent: newBaseEvent(TypeRunProgress),
		RunID:     runID,
		Round:     round,
		Rounds:    rounds,
		Totals:    totals,
		Elapsed:   elapsed,
	}
}

// Percent returns the fraction of planned rounds completed, in [0, 1].
func (e RunProgressEvent) Percent() float64 {
	if e.Rounds <= 0 {
		return 1
	}
	return float64(e.Round+1) / float64(e.Rounds)
}
