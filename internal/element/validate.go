package element

import "strconv"

// Validate checks an element tree built without Create (for example a
// struct literal or a decoded document).
//
// A nil root is valid and renders nothing.
func Validate(e *Element) error {
	return validate("0", e)
}

func validate(path string, e *Element) error {
	if e == nil {
		return nil
	}
	if err := validateType(path, e.Type); err != nil {
		return err
	}
	if err := validateProps(path, e.Type, e.Props); err != nil {
		return err
	}
	if e.IsText() {
		if len(e.Children) > 0 {
			return invalid(path, "text elements cannot have children")
		}
		return nil
	}
	for i, child := range e.Children {
		if err := validate(path+"/"+strconv.Itoa(i), child); err != nil {
			return err
		}
	}
	return nil
}

func validateType(path string, typ Type) error {
	switch {
	case typ == nil:
		return invalid(path, "type is nil")
	case SameType(typ, Text):
		return nil
	case IsClassComponent(typ), IsFunctionComponent(typ):
		return nil
	}
	s, ok := typ.(string)
	if !ok {
		return invalid(path, "unsupported type %T", typ)
	}
	if s == "" {
		return invalid(path, "tag name is empty")
	}
	return nil
}

func validateProps(path string, typ Type, props Props) error {
	for k := range props {
		if k == "" {
			return invalid(path, "empty prop name")
		}
		if k == ChildrenProp {
			return invalid(path, "%q is reserved; pass children as arguments", ChildrenProp)
		}
	}
	if SameType(typ, Text) {
		if _, ok := props[TextProp].(string); !ok {
			return invalid(path, "text element requires a string %q prop", TextProp)
		}
	}
	return nil
}
