package event

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/percolate/internal/logging"
	"github.com/Iron-Ham/percolate/internal/stats"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()

	called := false
	id := bus.Subscribe(TypeRunStarted, func(e Event) { called = true })

	if id == "" {
		t.Error("Subscribe should return a non-empty ID")
	}
	if bus.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", bus.SubscriptionCount())
	}
	if called {
		t.Error("handler should not be called until an event is published")
	}
}

func TestBus_UniqueIDs(t *testing.T) {
	bus := NewBus()
	seen := make(map[string]bool)
	for range 1000 {
		id := bus.Subscribe("x", func(Event) {})
		if seen[id] {
			t.Fatalf("duplicate subscription ID %q", id)
		}
		seen[id] = true
	}
}

func TestBus_Publish(t *testing.T) {
	bus := NewBus()

	var received Event
	bus.Subscribe(TypeRunStarted, func(e Event) { received = e })
	bus.Subscribe(TypeRunCompleted, func(e Event) { t.Error("wrong type delivered") })

	bus.Publish(NewRunStartedEvent("run-1", RunConfig{Width: 8, Height: 8}))

	started, ok := received.(RunStartedEvent)
	if !ok {
		t.Fatalf("received %T, want RunStartedEvent", received)
	}
	if started.RunID != "run-1" || started.Config.Width != 8 {
		t.Errorf("event = %+v", started)
	}
	if started.Timestamp().IsZero() {
		t.Error("Timestamp() should be set")
	}
}

func TestBus_OrderSpecificThenWildcard(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.SubscribeAll(func(Event) { order = append(order, "all") })
	bus.Subscribe(TypeRoundCompleted, func(Event) { order = append(order, "first") })
	bus.Subscribe(TypeRoundCompleted, func(Event) { order = append(order, "second") })

	bus.Publish(NewRoundCompletedEvent("r", 0, 1, 0, stats.Snapshot{}, 0))

	want := "first,second,all"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	count := 0
	id := bus.Subscribe(TypeRunProgress, func(Event) { count++ })
	bus.Subscribe(TypeRunProgress, func(Event) { count += 10 })

	if !bus.Unsubscribe(id) {
		t.Fatal("Unsubscribe should report an existing subscription")
	}
	if bus.Unsubscribe(id) {
		t.Error("second Unsubscribe should report false")
	}

	bus.Publish(NewRunProgressEvent("r", 0, 1, stats.Snapshot{}, 0))
	if count != 10 {
		t.Errorf("count = %d, want 10", count)
	}
}

func TestBus_HandlerPanicIsIsolated(t *testing.T) {
	var buf bytes.Buffer
	bus := NewBus()
	bus.SetLogger(logging.NewWriterLogger(&buf, logging.LevelError))

	delivered := false
	bus.Subscribe(TypeTrialFailed, func(Event) { panic("boom") })
	bus.Subscribe(TypeTrialFailed, func(Event) { delivered = true })

	bus.Publish(NewTrialFailedEvent("r", 2, errors.New("bad")))

	if !delivered {
		t.Error("a panicking handler must not stop delivery")
	}
	if !strings.Contains(buf.String(), "event handler panicked") {
		t.Errorf("panic was not logged: %q", buf.String())
	}
}

func TestBus_Clear(t *testing.T) {
	bus := NewBus()
	bus.Subscribe("a", func(Event) {})
	bus.SubscribeAll(func(Event) {})
	bus.Clear()
	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after Clear", bus.SubscriptionCount())
	}
}

func TestBus_ConcurrentPublishAndSubscribe(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	received := 0
	bus.SubscribeAll(func(Event) {
		mu.Lock()
		received++
		mu.Unlock()
	})

	const publishers, each = 8, 100
	var wg sync.WaitGroup
	for range publishers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range each {
				bus.Publish(NewRunProgressEvent("r", 0, 1, stats.Snapshot{}, 0))
			}
		}()
		go func() {
			defer wg.Done()
			id := bus.Subscribe("other", func(Event) {})
			bus.Unsubscribe(id)
		}()
	}
	wg.Wait()

	if received != publishers*each {
		t.Errorf("received = %d, want %d", received, publishers*each)
	}
}

func TestRunProgressEvent_Percent(t *testing.T) {
	tests := []struct {
		round, rounds int
		want          float64
	}{
		{0, 4, 0.25},
		{3, 4, 1},
		{0, 0, 1},
	}
	for _, tt := range tests {
		e := NewRunProgressEvent("r", tt.round, tt.rounds, stats.Snapshot{}, time.Second)
		if got := e.Percent(); got != tt.want {
			t.Errorf("Percent(%d/%d) = %v, want %v", tt.round, tt.rounds, got, tt.want)
		}
	}
}

func TestRunCompletedEvent_Canceled(t *testing.T) {
	if NewRunCompletedEvent("r", 3, stats.Snapshot{}, 0, nil).Canceled {
		t.Error("Canceled should be false without an error")
	}
	if !NewRunCompletedEvent("r", 1, stats.Snapshot{}, 0, errors.New("ctx")).Canceled {
		t.Error("Canceled should be true with an error")
	}
}
