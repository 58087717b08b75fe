package testutil

import (
	"sync"
	"time"
)

// Plenty is the time a UnitDeadline reports while it still has budget.
const Plenty = time.Hour

// UnitDeadline is an idle deadline measured in units of work instead of
// time. The work loop consults its deadline once after every unit, so a
// UnitDeadline of n lets exactly n units run before the slice ends.
//
// A budget of zero or less still lets the one unit every slice is
// guaranteed to perform run.
type UnitDeadline struct {
	mu     sync.Mutex
	budget int
	reads  int
}

// NewUnitDeadline creates a deadline allowing units of work per slice.
func NewUnitDeadline(units int) *UnitDeadline {
	return &UnitDeadline{budget: units}
}

// TimeRemaining reports Plenty until the budget is spent, then zero.
func (d *UnitDeadline) TimeRemaining() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads++
	if d.reads >= d.budget {
		return 0
	}
	return Plenty
}

// Reads returns how many times the deadline was consulted.
func (d *UnitDeadline) Reads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads
}

// Reset restores the full budget for the next slice.
func (d *UnitDeadline) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads = 0
}

// Expired is a deadline that is always exhausted.
type Expired struct{}

// TimeRemaining always returns zero.
func (Expired) TimeRemaining() time.Duration { return 0 }
