// Package simulation drives percolation trials through a worker pool and
// aggregates their outcomes.
package simulation

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand/v2"
	"time"

	"github.com/Iron-Ham/percolate/internal/errors"
	"github.com/Iron-Ham/percolate/internal/event"
	"github.com/Iron-Ham/percolate/internal/logging"
	"github.com/Iron-Ham/percolate/internal/model"
	"github.com/Iron-Ham/percolate/internal/pool"
	"github.com/Iron-Ham/percolate/internal/stats"
)

// Executor runs tasks in rounds. *pool.Pool implements it.
type Executor interface {
	Submit(task pool.Task) error
	Wait() error
	Close()
}

// Result summarizes a finished or canceled run.
type Result struct {
	RunID        string            `json:"run_id" yaml:"run_id"`
	Params       Params            `json:"params" yaml:"params"`
	Snapshot     stats.Snapshot    `json:"counts" yaml:"counts"`
	Frequencies  stats.Frequencies `json:"frequencies" yaml:"frequencies"`
	Rounds       int               `json:"rounds" yaml:"rounds"` // rounds actually executed
	FailedTrials int               `json:"failed_trials" yaml:"failed_trials"`
	Elapsed      time.Duration     `json:"elapsed" yaml:"elapsed"`
	Seed         uint64            `json:"seed" yaml:"seed"`
	Canceled     bool              `json:"canceled" yaml:"canceled"`
}

// Option configures a Runner.
type Option func(*Runner)

// WithBus publishes run, round and progress events on bus.
func WithBus(bus *event.Bus) Option {
	return func(r *Runner) {
		r.bus = bus
	}
}

// WithLogger sets the run logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithCounters aggregates into counters instead of a fresh set.
func WithCounters(counters *stats.Counters) Option {
	return func(r *Runner) {
		r.counters = counters
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(r *Runner) {
		r.runID = id
	}
}

// keepExecutor leaves the executor open after Run, for callers that run
// several simulations on one pool.
func keepExecutor() Option {
	return func(r *Runner) {
		r.closeExec = false
	}
}

// Runner executes Params.Rounds rounds of Params.Slots trials each. Slot k
// of every round uses model k, so no model is touched by two tasks at once.
type Runner struct {
	params   Params
	exec     Executor
	models   []*model.Model
	counters *stats.Counters
	bus      *event.Bus
	logger   *logging.Logger
	runID    string
	seed     uint64

	closeExec bool
}

// New validates params and allocates one model per slot. The runner takes
// ownership of exec and closes it when Run returns.
func New(params Params, exec Executor, opts ...Option) (*Runner, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, errors.NewValidationError("executor is required").WithField("executor")
	}

	r := &Runner{
		params:    params,
		exec:      exec,
		closeExec: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.counters == nil {
		r.counters = stats.New()
	}
	if r.bus == nil {
		r.bus = event.NewBus()
	}
	if r.runID == "" {
		r.runID = generateID()
	}
	if r.logger == nil {
		r.logger = logging.NopLogger()
	}
	r.logger = r.logger.WithRun(r.runID)

	r.seed = params.Seed
	if r.seed == 0 {
		r.seed = clockSeed()
	}
	r.params.Seed = r.seed

	r.models = make([]*model.Model, params.Slots)
	for k := range r.models {
		m, err := model.New(params.Width, params.Height)
		if err != nil {
			return nil, err
		}
		r.models[k] = m
	}
	return r, nil
}

// RunID identifies the run in logs and events.
func (r *Runner) RunID() string { return r.runID }

// Seed is the base seed every trial stream derives from.
func (r *Runner) Seed() uint64 { return r.seed }

// Params returns the parameters with the resolved seed.
func (r *Runner) Params() Params { return r.params }

// Counters returns the shared counters. Between rounds they hold exactly the
// outcomes of every completed trial.
func (r *Runner) Counters() *stats.Counters { return r.counters }

// Run executes every round and returns the totals. Cancellation is observed
// between rounds only; trials already submitted always finish. On
// cancellation the partial result is returned together with an error
// matching errors.ErrCanceled.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.closeExec {
		defer r.exec.Close()
	}

	p := r.params
	start := time.Now()
	r.logger.Info("run started",
		"width", p.Width, "height", p.Height, "p_site", p.PSite,
		"slots", p.Slots, "rounds", p.Rounds, "seed", r.seed)
	r.bus.Publish(event.NewRunStartedEvent(r.runID, p.RunConfig()))

	var (
		runErr error
		rounds int
		failed int
	)
	for round := range p.Rounds {
		if err := ctx.Err(); err != nil {
			runErr = errors.Wrapf(errors.Join(errors.ErrCanceled, err), "run stopped after %d of %d rounds", round, p.Rounds)
			break
		}

		n, err := r.round(round)
		failed += n
		if err != nil {
			runErr = err
			break
		}
		rounds++

		snap := r.counters.Snapshot()
		elapsed := time.Since(start)
		r.bus.Publish(event.NewRoundCompletedEvent(r.runID, round, p.Rounds, n, snap, elapsed))
		if (p.ReportInterval > 0 && round%p.ReportInterval == 0) || round == p.Rounds-1 {
			freq := snap.Frequencies()
			r.logger.WithRound(round).Info("progress",
				"samples", snap.Samples, "x", freq.X, "y", freq.Y, "both", freq.Both)
			r.bus.Publish(event.NewRunProgressEvent(r.runID, round, p.Rounds, snap, elapsed))
		}
	}

	snap := r.counters.Snapshot()
	res := &Result{
		RunID:        r.runID,
		Params:       p,
		Snapshot:     snap,
		Frequencies:  snap.Frequencies(),
		Rounds:       rounds,
		FailedTrials: failed,
		Elapsed:      time.Since(start),
		Seed:         r.seed,
		Canceled:     errors.Is(runErr, errors.ErrCanceled),
	}
	r.bus.Publish(event.NewRunCompletedEvent(r.runID, rounds, snap, res.Elapsed, runErr))
	if runErr != nil {
		r.logger.Warn("run stopped", "rounds", rounds, "error", runErr.Error())
		return res, runErr
	}
	r.logger.Info("run completed",
		"rounds", rounds, "samples", snap.Samples, "failed", failed,
		"elapsed", res.Elapsed.String())
	return res, nil
}

// round submits one trial per slot and waits for all of them. It returns
// the number of failed trials; a non-nil error means the executor refused
// work and the run cannot continue.
func (r *Runner) round(round int) (int, error) {
	var submitErr error
	for slot := range r.params.Slots {
		if err := r.exec.Submit(r.trial(round, slot)); err != nil {
			submitErr = errors.Wrapf(err, "submit round %d slot %d", round, slot)
			break
		}
	}

	// Wait even after a refused submit so no accepted trial outlives the round.
	failures := flatten(r.exec.Wait())
	logger := r.logger.WithRound(round)
	for _, err := range failures {
		r.counters.RecordFailure()
		logFailure(logger, err)
		r.bus.Publish(event.NewTrialFailedEvent(r.runID, round, err))
	}
	return len(failures), submitErr
}

// logFailure logs a failed trial at the level its severity asks for.
// Contract violations are bugs in the model and always log as errors.
func logFailure(logger *logging.Logger, err error) {
	severity := errors.GetSeverity(err)
	attrs := []any{
		"error", err.Error(),
		"cause", failureCause(err),
		"severity", severity.String(),
		"retryable", errors.IsRetryable(err),
	}
	switch {
	case errors.IsContractViolation(err), severity >= errors.SeverityError:
		logger.Error("trial failed", attrs...)
	case severity == errors.SeverityWarning:
		logger.Warn("trial failed", attrs...)
	default:
		logger.Info("trial failed", attrs...)
	}
}

func failureCause(err error) string {
	switch {
	case errors.Is(err, errors.ErrTaskPanicked):
		return "panic"
	case errors.Is(err, errors.ErrTaskAbandoned):
		return "abandoned"
	case errors.Is(err, errors.ErrTrialFailed):
		return "trial"
	default:
		return "unknown"
	}
}

// trial builds the task for one slot of one round. Its random stream is a
// function of the run seed and the (round, slot) pair only.
func (r *Runner) trial(round, slot int) pool.Task {
	m := r.models[slot]
	p := r.params.PSite
	seed := r.seed
	stream := TrialStream(round, slot, r.params.Slots)
	counters := r.counters

	return func() error {
		rng := mrand.New(mrand.NewPCG(seed, stream))
		if err := m.Execute(p, rng); err != nil {
			return errors.NewTrialError(err).WithRound(round).WithSlot(slot).WithSeed(seed)
		}
		if _, err := m.Sample(counters); err != nil {
			return errors.NewTrialError(err).WithRound(round).WithSlot(slot).WithSeed(seed)
		}
		return nil
	}
}

// TrialStream is the PCG stream id of the trial in slot of round.
func TrialStream(round, slot, slots int) uint64 {
	return uint64(round)*uint64(slots) + uint64(slot)
}

// flatten splits an errors.Join result back into its parts.
func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// clockSeed derives a non-zero seed from the wall clock.
func clockSeed() uint64 {
	if s := uint64(time.Now().UnixNano()); s != 0 {
		return s
	}
	return 1
}

// generateID creates a short random hex ID.
// Falls back to a timestamp-based ID if crypto/rand fails.
func generateID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return hex.EncodeToString(b)
}
