// Package element provides the immutable virtual element model consumed by
// the reconciler.
//
// An Element describes one node of the desired tree: a host tag name, the
// reserved Text marker, or a component reference, together with its
// attribute Props and an ordered list of Children. Children may contain nil
// entries, which mean "nothing at this position" and are skipped by the
// reconciler while still occupying an index.
//
// Elements are produced fresh for every render call. Nothing in this package
// mutates an Element after Create returns it.
//
// # Factory
//
// Create normalises children: nested elements are kept, nil is kept as
// absence, and scalar values (strings, numbers, booleans, fmt.Stringer) are
// wrapped into Text leaf elements carrying the literal in Props["text"].
//
//	el := element.MustCreate("div", element.Props{"id": "A1"},
//	    "A1",
//	    element.MustCreate("div", element.Props{"id": "B1"}, "B1"),
//	)
//
// # Identity
//
// Fingerprint hashes an element tree using canonical JSON and SHA-256 with
// domain separation, so two structurally identical trees produce the same
// fingerprint regardless of map iteration order.
package element
