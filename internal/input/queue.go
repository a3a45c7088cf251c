package input

import "sync"

// DefaultQueueCapacity bounds the click buffer when nobody drains it.
const DefaultQueueCapacity = 1000

// EventQueue is a fixed-capacity FIFO of clicks. Pushing into a full queue
// evicts the oldest entry; it never blocks and never grows.
type EventQueue struct {
	mu    sync.Mutex
	buf   []MouseClickEvent
	head  int
	size  int
	evict uint64
}

// NewEventQueue creates a queue holding at most capacity events.
func NewEventQueue(capacity int) *EventQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &EventQueue{buf: make([]MouseClickEvent, capacity)}
}

// Push appends ev and reports whether an older event was evicted to make room.
func (q *EventQueue) Push(ev MouseClickEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	tail := (q.head + q.size) % len(q.buf)
	q.buf[tail] = ev
	if q.size < len(q.buf) {
		q.size++
		return false
	}
	q.head = (q.head + 1) % len(q.buf)
	q.evict++
	return true
}

// Drain empties the queue and returns its contents oldest first. The result
// is never nil.
func (q *EventQueue) Drain() []MouseClickEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]MouseClickEvent, q.size)
	for i := range out {
		out[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.head, q.size = 0, 0
	return out
}

// Len returns the number of buffered events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the queue capacity.
func (q *EventQueue) Cap() int {
	return len(q.buf)
}

// Evicted returns how many events were dropped for lack of room.
func (q *EventQueue) Evicted() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.evict
}
