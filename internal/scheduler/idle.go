package scheduler

import (
	"sync"

	"github.com/roach88/reconcile/internal/engine"
)

// IdleScheduler is a host's idle-callback facility. The host invokes cb
// once, at a time of its choosing, with the deadline of that idle period.
type IdleScheduler interface {
	RequestIdleCallback(cb func(engine.Deadline))
}

// Attach drives eng from s: every idle callback runs one WorkLoop slice and
// requests another callback while work remains. done, if not nil, is called
// once with the outcome when the engine goes idle.
//
// Attach returns immediately; nothing runs until s invokes the callback.
func Attach(s IdleScheduler, eng *engine.Engine, done func(error)) {
	var tick func(engine.Deadline)
	tick = func(d engine.Deadline) {
		err := eng.WorkLoop(d)
		if err == nil && eng.HasWork() {
			s.RequestIdleCallback(tick)
			return
		}
		if done != nil {
			done(err)
		}
	}
	s.RequestIdleCallback(tick)
}

// ManualIdle is an IdleScheduler whose idle periods are declared by the
// caller, for tests and for stepping through a pass from the CLI.
//
// Thread-safety: ManualIdle is safe for concurrent use.
type ManualIdle struct {
	mu      sync.Mutex
	pending []func(engine.Deadline)
}

var _ IdleScheduler = (*ManualIdle)(nil)

// RequestIdleCallback implements IdleScheduler.
func (m *ManualIdle) RequestIdleCallback(cb func(engine.Deadline)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, cb)
}

// Idle runs the callbacks requested so far with d. Callbacks requested while
// running wait for the next Idle. It returns how many callbacks ran.
func (m *ManualIdle) Idle(d engine.Deadline) int {
	m.mu.Lock()
	batch := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, cb := range batch {
		cb(d)
	}
	return len(batch)
}

// Pending returns the number of callbacks waiting for an idle period.
func (m *ManualIdle) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
