package event

import (
	"sync"
	"sync/atomic"
)

// Sink receives lifecycle events. Send must never block the caller; a
// sink that cannot keep up drops events rather than stalling the build
// loop.
type Sink interface {
	Send(ev Event)
}

// NopSink discards every event.
type NopSink struct{}

// Send implements Sink.
func (NopSink) Send(Event) {}

// MultiSink fans each event out to every member sink.
type MultiSink []Sink

// Send implements Sink.
func (m MultiSink) Send(ev Event) {
	for _, s := range m {
		s.Send(ev)
	}
}

// FuncSink adapts a function to the Sink interface. The function runs on
// the caller's goroutine, so it must be fast.
type FuncSink func(ev Event)

// Send implements Sink.
func (f FuncSink) Send(ev Event) { f(ev) }

// BufferedSink decouples event producers from a slow consumer. Events
// queue on a buffered channel that the consumer drains via Events,
// preserving send order. When the buffer is full the event is dropped
// and counted instead of blocking the producer.
type BufferedSink struct {
	mu      sync.RWMutex
	ch      chan Event
	closed  bool
	dropped atomic.Uint64
}

// NewBufferedSink creates a sink with the given buffer capacity. bufSize
// defaults to 256 if <= 0. The caller owns the consuming goroutine:
// range over Events until Close ends the stream.
func NewBufferedSink(bufSize int) *BufferedSink {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &BufferedSink{ch: make(chan Event, bufSize)}
}

// Events returns the delivery channel. After Close the channel yields
// any still-queued events and then closes.
func (s *BufferedSink) Events() <-chan Event {
	return s.ch
}

// Send queues the event for delivery. Non-blocking: if the buffer is full
// or the sink is closed, the event is dropped and counted.
func (s *BufferedSink) Send(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.dropped.Add(1)
		return
	}

	select {
	case s.ch <- ev:
	default:
		s.dropped.Add(1)
	}
}

// Dropped returns the number of events dropped since creation.
func (s *BufferedSink) Dropped() uint64 {
	return s.dropped.Load()
}

// Close stops accepting new events and ends the Events stream once the
// queue is drained. Idempotent.
func (s *BufferedSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
