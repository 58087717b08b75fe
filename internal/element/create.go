package element

import (
	"fmt"
	"strconv"
)

// Create builds an Element of the given type.
//
// props is copied; the caller may reuse it. children are normalised:
//   - *Element and Element values are kept (a nil *Element is kept as absence)
//   - nil is kept as absence
//   - []*Element and []any are flattened one level
//   - strings, booleans, integers, floats and fmt.Stringer values become Text
//     elements carrying the literal
//
// Any other child, a nil or empty type, or a reserved prop name produces an
// *InvalidElementError.
func Create(typ Type, props Props, children ...any) (*Element, error) {
	if err := validateType("", typ); err != nil {
		return nil, err
	}
	if err := validateProps("", typ, props); err != nil {
		return nil, err
	}

	normalized := make([]*Element, 0, len(children))
	for i, child := range children {
		var err error
		normalized, err = appendChild(normalized, strconv.Itoa(i), child)
		if err != nil {
			return nil, err
		}
	}
	if SameType(typ, Text) && len(normalized) > 0 {
		return nil, invalid("", "text elements cannot have children")
	}

	return &Element{
		Type:     typ,
		Props:    props.Clone(),
		Children: normalized,
	}, nil
}

// MustCreate is like Create but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCreate(typ Type, props Props, children ...any) *Element {
	el, err := Create(typ, props, children...)
	if err != nil {
		panic(err)
	}
	return el
}

// NewText returns a Text element carrying literal.
func NewText(literal string) *Element {
	return &Element{
		Type:  Text,
		Props: Props{TextProp: literal},
	}
}

func appendChild(dst []*Element, path string, child any) ([]*Element, error) {
	switch c := child.(type) {
	case nil:
		return append(dst, nil), nil
	case *Element:
		return append(dst, c), nil
	case Element:
		cp := c
		return append(dst, &cp), nil
	case []*Element:
		return append(dst, c...), nil
	case []any:
		for i, nested := range c {
			var err error
			dst, err = appendChild(dst, fmt.Sprintf("%s.%d", path, i), nested)
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	}

	if literal, ok := literalOf(child); ok {
		return append(dst, NewText(literal)), nil
	}
	return nil, invalid(path, "unsupported child of type %T", child)
}

// literalOf formats scalar children. It mirrors what a text node would show.
func literalOf(v any) (string, bool) {
	switch c := v.(type) {
	case string:
		return c, true
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(c), true
	case fmt.Stringer:
		return c.String(), true
	}
	return "", false
}
