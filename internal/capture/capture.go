// Package capture abstracts webcam/microphone recording behind a small
// event-driven device interface.
//
// A [Device] emits exactly three kinds of external events — data available,
// stopped, error — which the recording engine folds into its state machine.
package capture

import "context"

// EventKind discriminates the [Event] union.
type EventKind int

const (
	// EventData carries one encoded media fragment.
	EventData EventKind = iota
	// EventStopped signals the device finished flushing after a stop.
	EventStopped
	// EventError signals a device failure; the device is unusable afterwards.
	EventError
)

// Event is one device callback.
type Event struct {
	Kind  EventKind
	Chunk []byte // set for EventData
	Err   error  // set for EventError
}

// Device is one capture pipeline attempt against the live camera/microphone.
//
// A Device is single-use: Start may be called once, Stop is idempotent, and
// the event channel closes after EventStopped or EventError is delivered.
type Device interface {
	// Start begins capturing. Encoded fragments arrive on Events.
	Start(ctx context.Context) error

	// Stop ends the capture and flushes buffered fragments. Safe to call
	// more than once and before Start has produced any data.
	Stop() error

	// Events returns the device event stream.
	Events() <-chan Event
}

// Factory creates a fresh Device per question-recording attempt.
//
// Probe reports whether the underlying hardware is reachable; it runs before
// the countdown starts so device failures surface as a distinct error kind
// rather than mid-recording surprises.
type Factory interface {
	Probe(ctx context.Context) error
	New() Device
}
