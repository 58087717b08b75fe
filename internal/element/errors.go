package element

import (
	"errors"
	"fmt"
)

// InvalidElementError reports a malformed element description.
type InvalidElementError struct {
	// Path locates the element, e.g. "0/1/2" for the third child of the
	// second child of the first root element.
	Path string

	// Reason is a human-readable description of the problem.
	Reason string
}

// Error implements the error interface.
func (e *InvalidElementError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid element: %s", e.Reason)
	}
	return fmt.Sprintf("invalid element at %s: %s", e.Path, e.Reason)
}

// IsInvalidElement reports whether err wraps an InvalidElementError.
func IsInvalidElement(err error) bool {
	var ie *InvalidElementError
	return errors.As(err, &ie)
}

func invalid(path, format string, args ...any) *InvalidElementError {
	return &InvalidElementError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
