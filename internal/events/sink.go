// Package events provides event sink implementations for the engine's
// fire-and-forget event stream.
package events

import (
	"sync"

	"github.com/chanfade/chanfade/internal/core"
)

// Publisher is anything that accepts engine events.
type Publisher interface {
	Publish(core.Event)
}

// Multi fans an event out to several sinks in order.
type Multi struct {
	sinks []Publisher
}

// NewMulti creates a fan-out sink.
func NewMulti(sinks ...Publisher) *Multi {
	return &Multi{sinks: sinks}
}

// Publish forwards the event to every sink.
func (m *Multi) Publish(ev core.Event) {
	for _, s := range m.sinks {
		s.Publish(ev)
	}
}

// Memory records events in arrival order. Used by tests and by determinism
// checks; safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	events []core.Event
}

// NewMemory creates an empty recording sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Publish appends the event.
func (m *Memory) Publish(ev core.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

// Events returns a copy of the recorded events.
func (m *Memory) Events() []core.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Event, len(m.events))
	copy(out, m.events)
	return out
}

// Reset discards recorded events.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
