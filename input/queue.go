package input

import "sync"

// Queue is a bounded FIFO shared between a hardware poller (producer) and the
// UI-tick consumer. Push never blocks; the consumer is expected to keep the
// queue short by draining it on every tick.
//
// Growth beyond the soft limit indicates a stalled consumer. That is an
// observability signal, not a fault: events are still delivered oldest-first,
// and nothing is dropped until the hard capacity is reached.
type Queue struct {
	mu        sync.Mutex
	events    []Event
	capacity  int
	softLimit int

	highWater int
	dropped   uint64
	stalls    uint64
}

// NewQueue creates a queue with the given hard capacity and soft limit.
// A capacity <= 0 falls back to 1024; a softLimit <= 0 falls back to
// capacity/4.
func NewQueue(capacity, softLimit int) *Queue {
	if capacity <= 0 {
		capacity = 1024
	}
	if softLimit <= 0 || softLimit > capacity {
		softLimit = capacity / 4
	}
	return &Queue{
		events:    make([]Event, 0, 64),
		capacity:  capacity,
		softLimit: softLimit,
	}
}

// Push appends an event. Returns false if the queue is at hard capacity and
// the event was dropped.
func (q *Queue) Push(ev Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) >= q.capacity {
		q.dropped++
		return false
	}
	q.events = append(q.events, ev)
	if len(q.events) > q.highWater {
		q.highWater = len(q.events)
	}
	if len(q.events) == q.softLimit {
		q.stalls++
	}
	return true
}

// Drain removes and returns all queued events in arrival order.
// The drain is bounded by the queue length at the instant of the call.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = make([]Event, 0, 64)
	return out
}

// Len returns the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Stats returns observability counters: the maximum depth ever reached, the
// number of events dropped at hard capacity, and the number of times the
// depth hit the soft limit.
func (q *Queue) Stats() (highWater int, dropped, stalls uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.highWater, q.dropped, q.stalls
}
