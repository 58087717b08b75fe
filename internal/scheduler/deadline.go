package scheduler

import (
	"time"

	"github.com/roach88/reconcile/internal/engine"
)

// DefaultFrameBudget is the time one slice may use, roughly what a browser
// idle period leaves at 60 frames per second.
const DefaultFrameBudget = 10 * time.Millisecond

// FrameDeadline is a slice of budget time starting when it was created.
type FrameDeadline struct {
	start  time.Time
	budget time.Duration
	now    func() time.Time
}

var _ engine.Deadline = (*FrameDeadline)(nil)

// NewFrameDeadline starts a slice of budget measured with now. A nil now
// uses time.Now.
func NewFrameDeadline(budget time.Duration, now func() time.Time) *FrameDeadline {
	if now == nil {
		now = time.Now
	}
	return &FrameDeadline{start: now(), budget: budget, now: now}
}

// TimeRemaining returns the unspent budget, never negative.
func (d *FrameDeadline) TimeRemaining() time.Duration {
	left := d.budget - d.now().Sub(d.start)
	if left < 0 {
		return 0
	}
	return left
}

// Budget returns the slice length.
func (d *FrameDeadline) Budget() time.Duration {
	return d.budget
}
