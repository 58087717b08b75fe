// Package fiber defines the mutable work unit of the reconciler and the
// intrusive effect list threaded through it.
//
// A Fiber records one tree position in one of two buffers. The "current"
// buffer mirrors what is committed to the host; the "work-in-progress"
// buffer is being built by a render pass. Fibers at the same position in
// both buffers point at each other through Alternate, forming a 2-cycle.
//
// Child and Sibling are the tree edges. Return is a back-reference to the
// parent. FirstEffect, LastEffect and NextEffect form a singly linked list
// of fibers carrying an EffectTag, rebuilt on every pass.
package fiber

import (
	"github.com/roach88/reconcile/internal/element"
	"github.com/roach88/reconcile/internal/host"
)

// Tag classifies a fiber.
type Tag int

const (
	TagRoot Tag = iota + 1
	TagHost
	TagText
	TagFunctionComponent
	TagClassComponent
)

// String returns the tag name.
func (t Tag) String() string {
	switch t {
	case TagRoot:
		return "Root"
	case TagHost:
		return "Host"
	case TagText:
		return "Text"
	case TagFunctionComponent:
		return "FunctionComponent"
	case TagClassComponent:
		return "ClassComponent"
	default:
		return "Unknown"
	}
}

// HasHostNode reports whether fibers of this tag own a host node.
func (t Tag) HasHostNode() bool {
	return t == TagRoot || t == TagHost || t == TagText
}

// TagOf classifies an element type. ok is false for types the reconciler
// cannot place.
func TagOf(t element.Type) (tag Tag, ok bool) {
	switch {
	case t == nil:
		return 0, false
	case element.IsClassComponent(t):
		return TagClassComponent, true
	case element.IsFunctionComponent(t):
		return TagFunctionComponent, true
	case element.SameType(t, element.Text):
		return TagText, true
	case element.IsHostTag(t):
		return TagHost, true
	}
	return 0, false
}

// EffectTag records the host mutation a fiber needs at commit.
type EffectTag int

const (
	EffectNone EffectTag = iota
	EffectPlacement
	EffectUpdate
	EffectDeletion
)

// String returns the effect name.
func (e EffectTag) String() string {
	switch e {
	case EffectNone:
		return "None"
	case EffectPlacement:
		return "Placement"
	case EffectUpdate:
		return "Update"
	case EffectDeletion:
		return "Deletion"
	default:
		return "Unknown"
	}
}

// Fiber is a mutable per-position work record.
type Fiber struct {
	Tag      Tag
	Type     element.Type
	Props    element.Props
	Children []*element.Element

	// StateNode is the host node for Root, Host and Text fibers.
	StateNode host.Node

	// Index is the position of the fiber's element in its parent's
	// children, nil entries included.
	Index int

	Return    *Fiber
	Child     *Fiber
	Sibling   *Fiber
	Alternate *Fiber

	EffectTag   EffectTag
	FirstEffect *Fiber
	LastEffect  *Fiber
	NextEffect  *Fiber
}

// NewRoot returns the root fiber skeleton for rendering el into container.
func NewRoot(container host.Node, el *element.Element) *Fiber {
	return &Fiber{
		Tag:       TagRoot,
		StateNode: container,
		Props:     element.Props{},
		Children:  []*element.Element{el},
	}
}

// ResetEffects clears the fiber's own effect-list pointers.
func (f *Fiber) ResetEffects() {
	f.FirstEffect = nil
	f.LastEffect = nil
	f.NextEffect = nil
}

// Literal returns the text of a Text fiber.
func (f *Fiber) Literal() string {
	return f.Props.StringOf(element.TextProp)
}

// String describes the fiber the way element.Element.String does.
func (f *Fiber) String() string {
	if f == nil {
		return "<nil>"
	}
	switch f.Tag {
	case TagRoot:
		return "root"
	case TagText:
		return element.NewText(f.Literal()).String()
	}
	return (&element.Element{Type: f.Type, Props: f.Props}).String()
}

// HostParent returns the nearest ancestor owning a host node, or nil.
func (f *Fiber) HostParent() *Fiber {
	for p := f.Return; p != nil; p = p.Return {
		if p.Tag == TagHost || p.Tag == TagRoot {
			return p
		}
	}
	return nil
}

// Depth counts Return links up to the root.
func (f *Fiber) Depth() int {
	d := 0
	for p := f.Return; p != nil; p = p.Return {
		d++
	}
	return d
}

// Detach unlinks f from its parent's child list. Return is kept, so Depth
// and HostParent still work on a detached fiber.
func (f *Fiber) Detach() {
	p := f.Return
	if p == nil {
		return
	}
	if p.Child == f {
		p.Child = f.Sibling
	} else {
		for c := p.Child; c != nil; c = c.Sibling {
			if c.Sibling == f {
				c.Sibling = f.Sibling
				break
			}
		}
	}
	f.Sibling = nil
}
