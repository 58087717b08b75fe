package engine

// QuotaEnforcer counts units of work in one render pass and enforces the
// maximum.
//
// A unit is one fiber begun by PerformUnitOfWork. Trees whose size exceeds
// the limit abort instead of hogging the loop forever.
type QuotaEnforcer struct {
	maxUnits int
	current  int
}

// NewQuotaEnforcer creates an enforcer allowing maxUnits units. A
// non-positive limit disables enforcement.
func NewQuotaEnforcer(maxUnits int) *QuotaEnforcer {
	return &QuotaEnforcer{maxUnits: maxUnits}
}

// Check counts one unit and reports an error once the limit is exceeded.
func (q *QuotaEnforcer) Check(passID string) error {
	q.current++
	if q.maxUnits > 0 && q.current > q.maxUnits {
		return NewUnitLimitError(passID, q.current, q.maxUnits)
	}
	return nil
}

// Reset zeroes the counter for the next pass.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// Current returns the units counted so far.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxUnits returns the configured limit.
func (q *QuotaEnforcer) MaxUnits() int {
	return q.maxUnits
}
