package element

import (
	"fmt"
	"reflect"
	"runtime"
	"sort"
)

// TextProp is the prop carrying the literal of a Text element.
const TextProp = "text"

// TextTypeName is the document and display name of the Text type.
const TextTypeName = "#text"

// ChildrenProp is reserved: children travel in Element.Children, never as an
// attribute.
const ChildrenProp = "children"

// Type identifies what an Element renders to: a host tag name (string), the
// Text marker, a FunctionComponent or a ClassComponent.
type Type = any

type textMarker struct{}

func (textMarker) String() string { return TextTypeName }

// Text is the reserved type of text leaf elements.
var Text Type = textMarker{}

// FunctionComponent is a component implemented as a plain function.
//
// Components are classified by the reconciler but never invoked.
type FunctionComponent func(props Props) *Element

// ClassComponent is a component implemented as a value with a Render method.
//
// The reconciler matches component types with ==, so a reference must be
// stable across renders: use a comparable value type, or reuse the same
// pointer. A fresh &T{} on every render never matches its predecessor and
// is replaced by a new Placement each time.
type ClassComponent interface {
	Render(props Props) *Element
}

// Props maps attribute names to values.
//
// Consumers iterate attribute names in sorted order (see SortedKeys), which
// gives every application of a Props value a deterministic order.
type Props map[string]any

// SortedKeys returns the attribute names in ascending order.
func (p Props) SortedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy. A nil Props clones to an empty map.
func (p Props) Clone() Props {
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// StringOf returns the prop as a string, formatting non-string values with
// fmt.Sprint. Missing props return "".
func (p Props) StringOf(name string) string {
	v, ok := p[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Element is an immutable description of a node in the desired tree.
type Element struct {
	Type     Type
	Props    Props
	Children []*Element
}

// IsText reports whether e is a Text leaf.
func (e *Element) IsText() bool {
	return e != nil && SameType(e.Type, Text)
}

// Literal returns the literal value of a Text element.
func (e *Element) Literal() string {
	if e == nil {
		return ""
	}
	return e.Props.StringOf(TextProp)
}

// String renders a compact description such as div#A1 or "B1".
func (e *Element) String() string {
	if e == nil {
		return "<nil>"
	}
	if e.IsText() {
		return fmt.Sprintf("%q", e.Literal())
	}
	name := TypeName(e.Type)
	if id := e.Props.StringOf("id"); id != "" {
		name += "#" + id
	}
	return name
}

// IsClassComponent reports whether t is a ClassComponent reference.
func IsClassComponent(t Type) bool {
	_, ok := t.(ClassComponent)
	return ok
}

// IsFunctionComponent reports whether t is callable and not a ClassComponent.
func IsFunctionComponent(t Type) bool {
	if t == nil || IsClassComponent(t) {
		return false
	}
	return reflect.ValueOf(t).Kind() == reflect.Func
}

// IsHostTag reports whether t names a host node.
func IsHostTag(t Type) bool {
	s, ok := t.(string)
	return ok && s != ""
}

// SameType reports whether a and b denote the same element type.
//
// Function references are compared by code pointer, so func-typed
// components can be compared without panicking. Other references are
// compared with ==, which for pointers means identity.
func SameType(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Kind() == reflect.Func {
		return va.Pointer() == vb.Pointer()
	}
	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}

// TypeName returns a stable human-readable name for t.
func TypeName(t Type) string {
	switch v := t.(type) {
	case nil:
		return "<nil>"
	case string:
		return v
	case textMarker:
		return v.String()
	}
	if IsClassComponent(t) {
		return fmt.Sprintf("%T", t)
	}
	rv := reflect.ValueOf(t)
	if rv.Kind() == reflect.Func {
		if fn := runtime.FuncForPC(rv.Pointer()); fn != nil {
			return fn.Name()
		}
		return "func"
	}
	return fmt.Sprintf("%T", t)
}
