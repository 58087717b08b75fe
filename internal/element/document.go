package element

import (
	"fmt"
	"strconv"
)

// FromDocument converts a decoded YAML, JSON or CUE document into an element
// tree.
//
// Documents use maps with the keys "type", "props" and "children":
//
//	type: div
//	props: {id: A1}
//	children:
//	  - A1
//	  - {type: div, props: {id: B1}, children: [B1]}
//	  - null
//
// Scalars become Text elements and null becomes absence.
func FromDocument(doc any) (*Element, error) {
	return fromDocument("0", doc)
}

func fromDocument(path string, doc any) (*Element, error) {
	switch d := doc.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return fromMap(path, d)
	case map[any]any:
		m := make(map[string]any, len(d))
		for k, v := range d {
			ks, ok := k.(string)
			if !ok {
				return nil, invalid(path, "non-string key %v", k)
			}
			m[ks] = v
		}
		return fromMap(path, m)
	}
	if literal, ok := literalOf(doc); ok {
		return NewText(literal), nil
	}
	return nil, invalid(path, "unsupported document node of type %T", doc)
}

func fromMap(path string, m map[string]any) (*Element, error) {
	for k := range m {
		switch k {
		case "type", "props", "children":
		default:
			return nil, invalid(path, "unknown key %q", k)
		}
	}

	tag, ok := m["type"].(string)
	if !ok {
		return nil, invalid(path, "document node needs a string \"type\"")
	}
	var typ Type = tag
	if tag == TextTypeName {
		typ = Text
	}

	var props Props
	switch p := m["props"].(type) {
	case nil:
	case map[string]any:
		props = Props(p)
	case map[any]any:
		props = make(Props, len(p))
		for k, v := range p {
			props[fmt.Sprint(k)] = v
		}
	default:
		return nil, invalid(path, "props must be a map, got %T", m["props"])
	}
	if typ == Text {
		if v, ok := props[TextProp]; ok {
			if _, isString := v.(string); !isString {
				props = props.Clone()
				props[TextProp] = fmt.Sprint(v)
			}
		}
	}

	var children []*Element
	switch c := m["children"].(type) {
	case nil:
	case []any:
		children = make([]*Element, 0, len(c))
		for i, raw := range c {
			child, err := fromDocument(path+"/"+strconv.Itoa(i), raw)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
	default:
		return nil, invalid(path, "children must be a list, got %T", m["children"])
	}

	el := &Element{Type: typ, Props: props.Clone(), Children: children}
	if err := validate(path, el); err != nil {
		return nil, err
	}
	return el, nil
}
