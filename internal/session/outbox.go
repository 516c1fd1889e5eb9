package session

import "sync"

const defaultOutboxSize = 64

// Outbox is a buffered event queue that never blocks the sender. When the
// buffer is full the oldest pending event is dropped.
type Outbox struct {
	events   chan Event
	done     chan struct{}
	doneOnce sync.Once
	mu       sync.Mutex
}

// NewOutbox creates an outbox holding up to size events.
func NewOutbox(size int) *Outbox {
	if size < 1 {
		size = defaultOutboxSize
	}
	return &Outbox{
		events: make(chan Event, size),
		done:   make(chan struct{}),
	}
}

// Send queues evt. It does nothing once the outbox is closed.
func (o *Outbox) Send(evt Event) {
	select {
	case <-o.done:
		return
	default:
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	select {
	case o.events <- evt:
		return
	default:
	}
	// full: drop the oldest, then retry
	select {
	case <-o.events:
	default:
	}
	select {
	case o.events <- evt:
	default:
	}
}

// Events returns the channel the consumer reads from.
func (o *Outbox) Events() <-chan Event {
	return o.events
}

// Done is closed by Close.
func (o *Outbox) Done() <-chan struct{} {
	return o.done
}

// Close marks the outbox as done. Safe to call more than once.
func (o *Outbox) Close() {
	o.doneOnce.Do(func() {
		close(o.done)
	})
}
