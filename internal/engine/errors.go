package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/reconcile/internal/element"
	"github.com/roach88/reconcile/internal/host"
)

// RenderError represents a failed render request or render pass.
//
// Render errors include:
//   - Invalid element: the element tree is malformed (synchronous from Render)
//   - Adapter failure: a host operation failed while rendering
//   - Unit limit: the pass performed more units than allowed
//   - Container mismatch: Render targeted a different container
//   - Commit failure: a host operation failed while committing
type RenderError struct {
	// Code identifies the error category.
	Code RenderErrorCode

	// Message is a human-readable description.
	Message string

	// PassID identifies the affected pass, if one was in flight.
	PassID string

	// Err is the underlying cause (optional).
	Err error
}

// RenderErrorCode categorizes render errors.
type RenderErrorCode string

const (
	// ErrCodeInvalidElement indicates a malformed element tree.
	ErrCodeInvalidElement RenderErrorCode = "INVALID_ELEMENT"

	// ErrCodeAdapterFailure indicates a host operation failed during the
	// render phase. The committed tree is untouched.
	ErrCodeAdapterFailure RenderErrorCode = "ADAPTER_FAILURE"

	// ErrCodeUnitLimit indicates the pass exceeded the configured unit limit.
	ErrCodeUnitLimit RenderErrorCode = "UNIT_LIMIT"

	// ErrCodeContainerMismatch indicates Render targeted a container other
	// than the one the engine is scoped to.
	ErrCodeContainerMismatch RenderErrorCode = "CONTAINER_MISMATCH"

	// ErrCodeCommitFailure indicates a host operation failed during commit.
	// The previous tree stays current; the host tree may be partially
	// mutated.
	ErrCodeCommitFailure RenderErrorCode = "COMMIT_FAILURE"
)

// Error implements the error interface.
func (e *RenderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.PassID != "" {
		msg += fmt.Sprintf(" (pass=%s)", e.PassID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RenderError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RenderErrorCode) bool {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsInvalidElement reports whether err is an invalid element error, either
// as a RenderError or a bare element.InvalidElementError.
func IsInvalidElement(err error) bool {
	return hasCode(err, ErrCodeInvalidElement) || element.IsInvalidElement(err)
}

// IsAdapterFailure reports whether err came from the host adapter, in
// either the render or the commit phase.
func IsAdapterFailure(err error) bool {
	return hasCode(err, ErrCodeAdapterFailure) || hasCode(err, ErrCodeCommitFailure) || host.IsAdapterError(err)
}

// IsUnitLimit reports whether err is a unit limit error.
func IsUnitLimit(err error) bool {
	return hasCode(err, ErrCodeUnitLimit)
}

// IsCommitFailure reports whether err happened during commit.
func IsCommitFailure(err error) bool {
	return hasCode(err, ErrCodeCommitFailure)
}

// NewUnitLimitError creates a RenderError for an exceeded unit limit.
func NewUnitLimitError(passID string, units, maxUnits int) *RenderError {
	return &RenderError{
		Code:    ErrCodeUnitLimit,
		Message: fmt.Sprintf("pass exceeded max units (%d > %d)", units, maxUnits),
		PassID:  passID,
	}
}
