// Package pool provides a fixed-size worker pool with an unbounded FIFO
// queue and a per-round completion barrier.
//
// A round is every task submitted since the previous Wait. Wait returns once
// all of them have finished executing, so a caller that alternates
// Submit...Submit, Wait gets strict round-by-round ordering while tasks
// within a round run in any order.
package pool

import (
	"sync"

	"github.com/sourcegraph/conc/panics"

	"github.com/Iron-Ham/percolate/internal/errors"
	"github.com/Iron-Ham/percolate/internal/logging"
)

// Task is one unit of work. A returned error or a panic marks the task as
// failed; either way it counts as finished and the worker moves on.
type Task func() error

// Stats is a point-in-time view of the pool. The counters are lifetime
// totals; Failed is a subset of Completed, Abandoned is not.
type Stats struct {
	Workers   int    `json:"workers"`
	Pending   int    `json:"pending"`
	Running   int    `json:"running"`
	Submitted uint64 `json:"submitted"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
	Abandoned uint64 `json:"abandoned"`
}

// Option configures a Pool.
type Option func(*options)

type options struct {
	logger *logging.Logger
	name   string
}

// WithLogger sets the logger used for task failures and lifecycle messages.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithName labels the pool in logs and errors.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// Pool runs tasks on a fixed set of goroutines.
type Pool struct {
	name    string
	logger  *logging.Logger
	workers int

	mu     sync.Mutex
	work   *sync.Cond // queue became non-empty or shutdown started
	idle   *sync.Cond // outstanding reached zero
	queue  []Task
	closed bool

	// outstanding counts tasks of the current round that have not finished.
	outstanding int
	roundErrs   []error
	running     int

	submitted uint64
	completed uint64
	failed    uint64
	abandoned uint64

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts a pool with exactly workers goroutines.
func New(workers int, opts ...Option) (*Pool, error) {
	if workers <= 0 {
		return nil, errors.NewValidationError("worker count must be positive").
			WithField("workers").WithValue(workers)
	}

	o := options{name: "pool"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NopLogger()
	}

	p := &Pool{
		name:    o.name,
		logger:  o.logger.With("pool", o.name),
		workers: workers,
	}
	p.work = sync.NewCond(&p.mu)
	p.idle = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for id := range workers {
		go p.worker(id)
	}
	p.logger.Debug("pool started", "workers", workers)
	return p, nil
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// Submit enqueues task and wakes one idle worker. It never blocks on queue
// capacity. Tasks submitted after Close has begun are rejected with an
// error matching errors.ErrPoolShutdown.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.NewValidationError("task must not be nil").WithField("task")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.NewPoolError("submit rejected", errors.ErrPoolShutdown).
			WithPool(p.name).WithSeverity(errors.SeverityWarning)
	}
	p.queue = append(p.queue, task)
	p.outstanding++
	p.submitted++
	p.work.Signal()
	return nil
}

// Wait blocks until every task submitted since the previous Wait has
// finished, then starts a new round. It returns the joined failures of the
// round, or nil when every task succeeded.
func (p *Pool) Wait() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.outstanding > 0 {
		p.idle.Wait()
	}
	errs := p.roundErrs
	p.roundErrs = nil
	return errors.Join(errs...)
}

// Close stops the workers and waits for them to exit. Tasks already running
// finish normally; tasks still queued are dropped and reported to the
// current round as abandoned. Close is safe to call more than once.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.work.Broadcast()
		p.mu.Unlock()

		p.wg.Wait()

		p.mu.Lock()
		dropped := len(p.queue)
		for range p.queue {
			p.abandoned++
			p.settle(errors.NewPoolError("task dropped on close", errors.ErrTaskAbandoned).
				WithPool(p.name).WithSeverity(errors.SeverityWarning))
		}
		p.queue = nil
		p.mu.Unlock()

		if dropped > 0 {
			p.logger.Warn("pool closed with pending tasks", "abandoned", dropped)
		}
		p.logger.Debug("pool stopped")
	})
}

// Stats returns a snapshot of queue depth and lifetime counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Workers:   p.workers,
		Pending:   len(p.queue),
		Running:   p.running,
		Submitted: p.submitted,
		Completed: p.completed,
		Failed:    p.failed,
		Abandoned: p.abandoned,
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	logger := p.logger.WithWorker(id)

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.work.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.running++
		p.mu.Unlock()

		err := p.execute(id, task)
		if err != nil {
			logger.Debug("task failed", "error", err.Error())
		}

		p.mu.Lock()
		p.running--
		p.completed++
		if err != nil {
			p.failed++
		}
		p.settle(err)
		p.mu.Unlock()
	}
}

// execute runs task and converts a panic into an error.
func (p *Pool) execute(id int, task Task) error {
	var (
		pc  panics.Catcher
		err error
	)
	pc.Try(func() { err = task() })
	if r := pc.Recovered(); r != nil {
		return errors.NewPoolError("task panicked", errors.Join(errors.ErrTaskPanicked, r.AsError())).
			WithPool(p.name).WithWorker(id)
	}
	return err
}

// settle retires one task of the current round. p.mu must be held.
func (p *Pool) settle(err error) {
	if err != nil {
		p.roundErrs = append(p.roundErrs, err)
	}
	p.outstanding--
	if p.outstanding == 0 {
		p.idle.Broadcast()
	}
}
