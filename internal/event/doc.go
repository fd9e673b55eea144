// Package event provides a pub-sub event bus that decouples the simulation
// driver from the components that present its progress.
//
// The driver publishes; reporters, the dashboard and the run log subscribe.
// Neither side knows about the other.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Events
//
//   - [RunStartedEvent]: a run has validated its parameters and is about to submit round 0
//   - [RoundCompletedEvent]: every trial of a round has finished
//   - [TrialFailedEvent]: a trial returned an error or panicked
//   - [RunProgressEvent]: periodic running frequencies, every report interval
//   - [RunCompletedEvent]: the run stopped, normally or by cancellation
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers run synchronously on
// the publisher's goroutine; a panicking handler is recovered and logged so
// it cannot stop delivery to the others.
//
// # Usage
//
//	bus := event.NewBus()
//	bus.Subscribe(event.TypeRunProgress, func(e event.Event) {
//	    p := e.(event.RunProgressEvent)
//	    fmt.Printf("%.0f%% x=%.4f\n", p.Percent()*100, p.Totals.Frequencies().X)
//	})
package event
