package scheduler

import (
	"sync"

	"github.com/roach88/reconcile/internal/element"
)

// request is one render request waiting for the loop.
type request struct {
	el  *element.Element
	seq int
}

// requestQueue is a thread-safe FIFO of render requests.
//
// Producers are arbitrary goroutines calling Loop.Submit; the consumer is
// the Loop's Run goroutine. A buffered signal channel of size one wakes the
// consumer, coalescing bursts of submissions into one wakeup.
type requestQueue struct {
	mu       sync.Mutex
	requests []request
	nextSeq  int
	closed   bool
	signal   chan struct{}
}

func newRequestQueue() *requestQueue {
	return &requestQueue{
		requests: make([]request, 0, 8),
		signal:   make(chan struct{}, 1),
	}
}

// Enqueue adds a request and returns its sequence number, or false if the
// queue is closed.
func (q *requestQueue) Enqueue(el *element.Element) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0, false
	}
	q.nextSeq++
	q.requests = append(q.requests, request{el: el, seq: q.nextSeq})

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return q.nextSeq, true
}

// Drain removes and returns every queued request in submission order.
func (q *requestQueue) Drain() []request {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.requests) == 0 {
		return nil
	}
	out := q.requests
	q.requests = make([]request, 0, cap(out))
	return out
}

// Wait returns a channel that signals when requests may be available. It is
// closed by Close, so it fires immediately afterwards.
func (q *requestQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued requests.
func (q *requestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.requests)
}

// Closed reports whether Close has been called.
func (q *requestQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close rejects further requests and wakes the consumer.
func (q *requestQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
