package engine

import "sync/atomic"

// Clock is a monotonic logical clock stamping render passes.
//
// Every pass that starts receives a strictly increasing sequence number, so
// committed and aborted passes can be ordered without wall-clock time.
// Clock is safe for concurrent use, although an engine only calls it from
// its owning goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at start, e.g. to continue numbering
// after the last pass recorded in a store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
