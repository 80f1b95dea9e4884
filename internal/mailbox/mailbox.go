// Package mailbox provides the single-slot hand-off between the receive loop
// and output consumers. A write never blocks and replaces any frame the
// consumer has not taken yet.
package mailbox

import (
	"context"
	"sync"
)

// Frame is one DMX universe worth of channel data.
type Frame struct {
	Data []byte
}

// Len returns the number of channels in the frame.
func (f Frame) Len() int {
	return len(f.Data)
}

// Mailbox holds at most one frame.
type Mailbox struct {
	mu    sync.Mutex
	frame Frame
	full  bool
	ready chan struct{}
}

// New creates an empty mailbox.
func New() *Mailbox {
	return &Mailbox{
		ready: make(chan struct{}, 1),
	}
}

// Write stores f, replacing any unread frame. It reports whether a frame was
// overwritten.
func (m *Mailbox) Write(f Frame) (overwritten bool) {
	m.mu.Lock()
	overwritten = m.full
	m.frame = f
	m.full = true
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
	return overwritten
}

// TryRead takes the pending frame, if any.
func (m *Mailbox) TryRead() (Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.full {
		return Frame{}, false
	}
	f := m.frame
	m.frame = Frame{}
	m.full = false
	return f, true
}

// Peek returns the pending frame without taking it.
func (m *Mailbox) Peek() (Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame, m.full
}

// Ready is signalled after each write. A receive does not guarantee a frame
// is still pending; use TryRead.
func (m *Mailbox) Ready() <-chan struct{} {
	return m.ready
}

// Read blocks until a frame is available or ctx is done.
func (m *Mailbox) Read(ctx context.Context) (Frame, error) {
	for {
		if f, ok := m.TryRead(); ok {
			return f, nil
		}
		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		case <-m.ready:
		}
	}
}
