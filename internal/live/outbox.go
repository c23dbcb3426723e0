package live

import (
	"sync"

	"github.com/desaismitha/Shered-sub002/internal/domain"
)

// Outbox is a bounded FIFO of events waiting to be written to one recipient.
//
// When full, Push evicts the oldest droppable event to make room. If nothing
// in the queue is droppable, a droppable newcomer is discarded instead and a
// non-droppable newcomer is appended past the bound: lifecycle and deviation
// events are never lost to backpressure.
type Outbox struct {
	mu     sync.Mutex
	items  []domain.Event
	limit  int
	ready  chan struct{}
	closed bool
}

// NewOutbox returns an Outbox holding up to limit events before it starts
// dropping. limit values below 1 are raised to 1.
func NewOutbox(limit int) *Outbox {
	if limit < 1 {
		limit = 1
	}
	return &Outbox{limit: limit, ready: make(chan struct{}, 1)}
}

// Push enqueues ev without blocking. It returns the event that was discarded
// to make room, if any.
func (o *Outbox) Push(ev domain.Event) (dropped *domain.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}

	if len(o.items) >= o.limit {
		evicted := false
		for i, queued := range o.items {
			if queued.Droppable() {
				d := queued
				dropped = &d
				o.items = append(o.items[:i], o.items[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted && ev.Droppable() {
			d := ev
			return &d
		}
	}

	o.items = append(o.items, ev)
	select {
	case o.ready <- struct{}{}:
	default:
	}
	return dropped
}

// Drain removes and returns every queued event in FIFO order.
func (o *Outbox) Drain() []domain.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.items
	o.items = nil
	return out
}

// Ready is signalled whenever Push adds to an empty or non-empty queue.
// A receive does not guarantee Drain returns anything.
func (o *Outbox) Ready() <-chan struct{} {
	return o.ready
}

// Len returns the number of queued events.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}

// Close discards queued events and makes further Pushes no-ops.
func (o *Outbox) Close() {
	o.mu.Lock()
	o.closed = true
	o.items = nil
	o.mu.Unlock()
}
