// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/testivid/testivid/internal/capture"
)

// MemoryStore is an in-memory implementation of the session key-value store.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string

	// FailSet, when non-nil, is returned from Set to simulate write failures.
	FailSet error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	if m.FailSet != nil {
		return m.FailSet
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// ScriptedDevice is a capture.Device emitting a fixed sequence of chunks.
//
// Chunks are delivered when Start is called; the stopped event is delivered
// when Stop is called (or immediately after the chunks when AutoStop is set).
type ScriptedDevice struct {
	Chunks   [][]byte
	StartErr error
	FailWith error // emit EventError instead of EventStopped
	AutoStop bool

	mu      sync.Mutex
	events  chan capture.Event
	started bool
	stopped bool
}

func NewScriptedDevice(chunks ...[]byte) *ScriptedDevice {
	return &ScriptedDevice{Chunks: chunks, events: make(chan capture.Event, len(chunks)+2)}
}

func (d *ScriptedDevice) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.StartErr != nil {
		return d.StartErr
	}
	d.started = true
	for _, chunk := range d.Chunks {
		d.events <- capture.Event{Kind: capture.EventData, Chunk: chunk}
	}
	if d.AutoStop {
		d.finishLocked()
	}
	return nil
}

func (d *ScriptedDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return nil
	}
	d.finishLocked()
	return nil
}

func (d *ScriptedDevice) finishLocked() {
	d.stopped = true
	if d.FailWith != nil {
		d.events <- capture.Event{Kind: capture.EventError, Err: d.FailWith}
	} else {
		d.events <- capture.Event{Kind: capture.EventStopped}
	}
	close(d.events)
}

func (d *ScriptedDevice) Events() <-chan capture.Event {
	return d.events
}

// Started reports whether Start was called.
func (d *ScriptedDevice) Started() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// ScriptedFactory hands out pre-scripted devices in order.
type ScriptedFactory struct {
	Devices  []*ScriptedDevice
	ProbeErr error

	mu   sync.Mutex
	next int
}

func (f *ScriptedFactory) Probe(ctx context.Context) error {
	return f.ProbeErr
}

func (f *ScriptedFactory) New() capture.Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next >= len(f.Devices) {
		// Running out of scripted devices is a test authoring error.
		panic(errors.New("scripted factory exhausted"))
	}
	d := f.Devices[f.next]
	f.next++
	return d
}

// Handed returns how many devices have been created.
func (f *ScriptedFactory) Handed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
