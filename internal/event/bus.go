package event

import (
	"fmt"
	"os"
	"runtime/debug"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Iron-Ham/percolate/internal/logging"
)

// Handler is a function that handles an event.
type Handler func(Event)

// Wildcard is the subscription key that receives every event.
const Wildcard = "*"

type subscription struct {
	id      string
	handler Handler
}

// Bus is a synchronous pub-sub event bus. Publish runs handlers on the
// caller's goroutine, so a handler sees events in publication order.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string][]subscription // eventType -> subscriptions
	nextID        atomic.Uint64
	logger        *logging.Logger
}

// NewBus creates a new event bus. Handler panics are reported to stderr
// until SetLogger installs a logger.
func NewBus() *Bus {
	return &Bus{
		subscriptions: make(map[string][]subscription),
		logger:        logging.NewWriterLogger(os.Stderr, logging.LevelError),
	}
}

// SetLogger routes handler panic reports to logger.
func (b *Bus) SetLogger(logger *logging.Logger) {
	if logger == nil {
		return
	}
	b.mu.Lock()
	b.logger = logger
	b.mu.Unlock()
}

// Subscribe registers a handler for a specific event type and returns an
// ID for Unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := "sub-" + strconv.FormatUint(b.nextID.Add(1), 10)
	b.subscriptions[eventType] = append(b.subscriptions[eventType], subscription{id: id, handler: handler})
	return id
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe(Wildcard, handler)
}

// Unsubscribe removes a subscription by ID and reports whether it existed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscriptions {
		if i := slices.IndexFunc(subs, func(s subscription) bool { return s.id == id }); i >= 0 {
			b.subscriptions[eventType] = slices.Delete(slices.Clone(subs), i, i+1)
			return true
		}
	}
	return false
}

// Publish dispatches event to the handlers for its type, then to wildcard
// handlers, each group in registration order. A panicking handler is
// logged and skipped; delivery continues.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	specific := b.subscriptions[event.EventType()]
	wildcard := b.subscriptions[Wildcard]
	logger := b.logger
	b.mu.RUnlock()

	// Subscription slices are never mutated in place, so iterating the
	// captured headers without the lock is safe.
	for _, sub := range specific {
		safeCall(logger, sub.handler, event)
	}
	for _, sub := range wildcard {
		safeCall(logger, sub.handler, event)
	}
}

func safeCall(logger *logging.Logger, handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler panicked",
				"event", event.EventType(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	handler(event)
}

// Clear removes all subscriptions.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = make(map[string][]subscription)
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, subs := range b.subscriptions {
		count += len(subs)
	}
	return count
}
