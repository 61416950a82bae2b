// Package outbound is the bounded hand-off between the feed pipeline and the
// delivery layer. A full queue blocks the producer; that backpressure is the
// only flow control in the system and deliberately slows the upstream read
// loop instead of growing memory.
package outbound

import (
	"context"

	"otakufeed/internal/domain"
)

// DefaultCapacity bounds the queue when the config does not say otherwise.
const DefaultCapacity = 16

// Queue is a bounded FIFO of notifiable events. Wire order in equals queue
// order out; nothing is ever dropped on the producer side.
type Queue struct {
	ch chan domain.NotifiableEvent
}

func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{ch: make(chan domain.NotifiableEvent, capacity)}
}

// Push enqueues one event, blocking while the queue is full. It returns an
// error only when ctx is canceled before the event is accepted.
func (q *Queue) Push(ctx context.Context, ev domain.NotifiableEvent) error {
	select {
	case q.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events exposes the consumer side. The queue outlives any single upstream
// connection: items enqueued before a reconnect stay available.
func (q *Queue) Events() <-chan domain.NotifiableEvent {
	return q.ch
}

// Len reports the number of queued events (observability only).
func (q *Queue) Len() int { return len(q.ch) }

// Cap reports the queue capacity.
func (q *Queue) Cap() int { return cap(q.ch) }
