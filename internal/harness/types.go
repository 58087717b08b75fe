package harness

import "github.com/roach88/reconcile/internal/trace"

// StepResult is the observed outcome of one step.
type StepResult struct {
	Index int `json:"step"`

	// Trace is the pass that finished during the step as read back from
	// the commit log, or nil if the pass was left in flight.
	Trace *trace.Pass `json:"pass,omitempty"`

	// Error is the RenderError code of a failed Render or pass.
	Error string `json:"error,omitempty"`

	// Host is the container dump after the step.
	Host string `json:"host"`
}

// Status returns the pass status, or StatusPending.
func (s StepResult) Status() string {
	if s.Trace == nil {
		return StatusPending
	}
	return s.Trace.Status
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expectation held.
	Pass bool `json:"pass"`

	// Steps holds one entry per scenario step.
	Steps []StepResult `json:"steps"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
