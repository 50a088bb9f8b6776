package bridge

import (
	"sync"

	"github.com/soyeahso/discordbridge/internal/domain"
)

// Queue is a multi-producer, single-consumer event buffer. Producers append
// under the mutex; the consumer swaps the whole buffer out in one step.
type Queue struct {
	mu      sync.Mutex
	pending []domain.Event
}

// Push appends ev. Safe from any goroutine and never blocks on consumers.
func (q *Queue) Push(ev domain.Event) {
	q.mu.Lock()
	q.pending = append(q.pending, ev)
	q.mu.Unlock()
}

// Drain returns every queued event, oldest first, and leaves the queue empty.
func (q *Queue) Drain() []domain.Event {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()
	return batch
}

// Clear discards queued events.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
