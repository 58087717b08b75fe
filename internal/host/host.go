// Package host defines the platform adapter contract used by the reconciler
// to create, mutate and remove host nodes.
//
// The engine never inspects host nodes. It only passes the opaque Node
// handles returned by an Adapter back into the same Adapter. Handles must be
// comparable (typically pointers), because the engine compares containers.
package host

import (
	"errors"
	"fmt"

	"github.com/roach88/reconcile/internal/element"
)

// Node is an opaque handle to a platform node.
type Node = any

// Adapter creates and mutates host nodes.
//
// All methods are called from the goroutine that owns the engine.
type Adapter interface {
	// CreateNode creates an element node for a host tag name.
	CreateNode(tag string) (Node, error)

	// CreateText creates a text node holding text.
	CreateText(text string) (Node, error)

	// ApplyProps synchronises attributes of node from oldProps to
	// newProps. Keys present in oldProps but absent in newProps must be
	// removed. oldProps is nil when the node was just created.
	ApplyProps(node Node, oldProps, newProps element.Props) error

	// SetText replaces the content of a text node.
	SetText(node Node, text string) error

	// AppendChild appends child as the last child of parent.
	AppendChild(parent, child Node) error

	// RemoveChild detaches child from parent.
	RemoveChild(parent, child Node) error
}

// Operation names used in AdapterError.Op.
const (
	OpCreateNode  = "create_node"
	OpCreateText  = "create_text"
	OpApplyProps  = "apply_props"
	OpSetText     = "set_text"
	OpAppendChild = "append_child"
	OpRemoveChild = "remove_child"
)

// AdapterError reports a failed platform operation.
type AdapterError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *AdapterError) Error() string {
	return fmt.Sprintf("host %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// IsAdapterError reports whether err wraps an AdapterError.
func IsAdapterError(err error) bool {
	var ae *AdapterError
	return errors.As(err, &ae)
}

// Wrap returns err as an *AdapterError for op. A nil err stays nil, and an
// error that already is an AdapterError is returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *AdapterError
	if errors.As(err, &ae) {
		return err
	}
	return &AdapterError{Op: op, Err: err}
}
