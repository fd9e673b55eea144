package pool

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Iron-Ham/percolate/internal/errors"
	"github.com/Iron-Ham/percolate/internal/logging"
	"github.com/Iron-Ham/percolate/internal/testutil"
)

func mustNew(t *testing.T, workers int, opts ...Option) *Pool {
	t.Helper()
	p, err := New(workers, opts...)
	if err != nil {
		t.Fatalf("New(%d) failed: %v", workers, err)
	}
	t.Cleanup(p.Close)
	return p
}

func TestNew_InvalidWorkers(t *testing.T) {
	for _, n := range []int{0, -3} {
		if _, err := New(n); !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("New(%d) error = %v, want ErrInvalidInput", n, err)
		}
	}
}

func TestPool_RoundsWithBarrier(t *testing.T) {
	const (
		workers = 4
		tasks   = 100
		rounds  = 10
	)
	p := mustNew(t, workers)

	var done atomic.Int64
	testutil.WithTimeout(t, 0, func() {
		for round := range rounds {
			for range tasks {
				if err := p.Submit(func() error {
					done.Add(1)
					return nil
				}); err != nil {
					t.Errorf("Submit failed: %v", err)
				}
			}
			if err := p.Wait(); err != nil {
				t.Errorf("round %d: Wait() = %v", round, err)
			}
			// Every task of this round has finished before Wait returns.
			if got, want := done.Load(), int64((round+1)*tasks); got != want {
				t.Errorf("after round %d: %d tasks done, want %d", round, got, want)
			}
		}
	})

	st := p.Stats()
	if st.Submitted != rounds*tasks || st.Completed != rounds*tasks {
		t.Errorf("Stats() = %+v, want %d submitted and completed", st, rounds*tasks)
	}
	if st.Pending != 0 || st.Running != 0 || st.Failed != 0 {
		t.Errorf("Stats() = %+v, want idle pool without failures", st)
	}
}

func TestPool_WaitCoversRunningTasks(t *testing.T) {
	p := mustNew(t, 2)

	release := make(chan struct{})
	var finished atomic.Bool
	if err := p.Submit(func() error {
		<-release
		finished.Store(true)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	// Let the task be dequeued, so only the running count keeps Wait blocked.
	for p.Stats().Running == 0 {
		time.Sleep(time.Millisecond)
	}

	waited := make(chan struct{})
	go func() {
		_ = p.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned while a task was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	testutil.WithTimeout(t, 0, func() { <-waited })
	if !finished.Load() {
		t.Error("Wait returned before the task finished")
	}
}

func TestPool_WaitWithNothingSubmitted(t *testing.T) {
	p := mustNew(t, 1)
	testutil.WithTimeout(t, time.Second, func() {
		if err := p.Wait(); err != nil {
			t.Errorf("Wait() = %v, want nil", err)
		}
	})
}

func TestPool_ConcurrencyIsBoundedByWorkers(t *testing.T) {
	const workers = 3
	p := mustNew(t, workers)

	var (
		mu        sync.Mutex
		active    int
		maxActive int
	)
	for range 60 {
		_ = p.Submit(func() error {
			mu.Lock()
			active++
			maxActive = max(maxActive, active)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			return nil
		})
	}
	testutil.WithTimeout(t, 0, func() { _ = p.Wait() })

	if maxActive > workers {
		t.Errorf("%d tasks ran at once, want at most %d", maxActive, workers)
	}
}

func TestPool_FailuresAreIsolated(t *testing.T) {
	var logs bytes.Buffer
	p := mustNew(t, 2, WithName("trials"), WithLogger(logging.NewWriterLogger(&logs, logging.LevelDebug)))

	boom := errors.New("boom")
	var ok atomic.Int64
	for i := range 20 {
		var task Task
		switch i % 5 {
		case 0:
			task = func() error { panic("kaput") }
		case 1:
			task = func() error { return boom }
		default:
			task = func() error {
				ok.Add(1)
				return nil
			}
		}
		if err := p.Submit(task); err != nil {
			t.Fatal(err)
		}
	}

	var err error
	testutil.WithTimeout(t, 0, func() { err = p.Wait() })

	if !errors.Is(err, errors.ErrTaskPanicked) {
		t.Errorf("Wait() = %v, want a panic to be reported", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Wait() = %v, want the task error to be reported", err)
	}
	var poolErr *errors.PoolError
	if !errors.As(err, &poolErr) || poolErr.Pool != "trials" {
		t.Errorf("Wait() = %v, want a PoolError naming the pool", err)
	}
	if ok.Load() != 12 {
		t.Errorf("%d successful tasks ran, want 12", ok.Load())
	}

	st := p.Stats()
	if st.Completed != 20 || st.Failed != 8 {
		t.Errorf("Stats() = %+v, want 20 completed and 8 failed", st)
	}

	// The errors belong to their round only.
	_ = p.Submit(func() error { return nil })
	testutil.WithTimeout(t, 0, func() { err = p.Wait() })
	if err != nil {
		t.Errorf("next round Wait() = %v, want nil", err)
	}

	if !strings.Contains(logs.String(), "task failed") {
		t.Error("task failures were not logged")
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	p := mustNew(t, 2)
	p.Close()

	err := p.Submit(func() error { return nil })
	if !errors.Is(err, errors.ErrPoolShutdown) {
		t.Errorf("Submit after Close error = %v, want ErrPoolShutdown", err)
	}
	if err := p.Submit(nil); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Submit(nil) error = %v, want ErrInvalidInput", err)
	}
}

func TestPool_CloseAbandonsPending(t *testing.T) {
	p := mustNew(t, 1)

	started := make(chan struct{})
	release := make(chan struct{})
	var ran atomic.Int64
	_ = p.Submit(func() error {
		close(started)
		<-release
		ran.Add(1)
		return nil
	})
	for range 5 {
		_ = p.Submit(func() error {
			ran.Add(1)
			return nil
		})
	}
	<-started

	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()
	// Close waits for the running task, then drops the rest.
	for !p.isClosed() {
		time.Sleep(time.Millisecond)
	}
	close(release)

	var err error
	testutil.WithTimeout(t, 0, func() {
		<-closed
		err = p.Wait()
	})

	if ran.Load() != 1 {
		t.Errorf("%d tasks ran, want only the one already running", ran.Load())
	}
	if !errors.Is(err, errors.ErrTaskAbandoned) {
		t.Errorf("Wait() after Close = %v, want ErrTaskAbandoned", err)
	}
	st := p.Stats()
	if st.Abandoned != 5 || st.Completed != 1 || st.Pending != 0 {
		t.Errorf("Stats() = %+v, want 5 abandoned and 1 completed", st)
	}
}

func TestPool_CloseIsIdempotent(t *testing.T) {
	p := mustNew(t, 3)
	testutil.WithTimeout(t, time.Second, func() {
		p.Close()
		p.Close()
	})
}

func TestPool_WaitDuringClose(t *testing.T) {
	p := mustNew(t, 1)
	block := make(chan struct{})
	_ = p.Submit(func() error {
		<-block
		return nil
	})
	for range 10 {
		_ = p.Submit(func() error { return nil })
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- p.Wait() }()

	go p.Close()
	close(block)

	// A Wait blocked across Close must still return.
	testutil.WithTimeout(t, 0, func() { <-waitErr })
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func BenchmarkPool_SubmitWait(b *testing.B) {
	p, _ := New(4)
	defer p.Close()
	noop := func() error { return nil }
	b.ResetTimer()
	for range b.N {
		for range 64 {
			_ = p.Submit(noop)
		}
		_ = p.Wait()
	}
}
