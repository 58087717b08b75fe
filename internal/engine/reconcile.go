package engine

import (
	"github.com/roach88/reconcile/internal/element"
	"github.com/roach88/reconcile/internal/fiber"
)

// reconcileChildren diffs newChildren against the children parent had in
// the previous render, by index only.
//
// For each index:
//   - same type as the old fiber: reuse it as an Update. If the old fiber
//     already has an alternate (the position rendered at least twice), that
//     object is recycled, so a position never holds more than two fibers.
//   - otherwise a new child gets a fresh Placement fiber with no host node,
//     and an old fiber is queued for deletion.
//
// Old fibers past the end of newChildren are queued for deletion as well.
// Nil children occupy an index but produce no fiber, so old fibers are
// paired by their recorded Index rather than by chain position.
func (e *Engine) reconcileChildren(parent *fiber.Fiber, newChildren []*element.Element) error {
	var old *fiber.Fiber
	if parent.Alternate != nil {
		old = parent.Alternate.Child
	}
	if old != nil {
		old.ResetEffects()
	}
	parent.Child = nil

	var prev *fiber.Fiber
	for i, child := range newChildren {
		var matched *fiber.Fiber
		if old != nil && old.Index == i {
			matched = old
			old = old.Sibling
		}

		var next *fiber.Fiber
		if matched != nil && child != nil && element.SameType(matched.Type, child.Type) {
			next = e.reuse(matched, child)
		} else {
			if child != nil {
				tag, ok := fiber.TagOf(child.Type)
				if !ok {
					return &RenderError{
						Code:    ErrCodeInvalidElement,
						Message: "unclassifiable element type " + element.TypeName(child.Type),
					}
				}
				next = &fiber.Fiber{
					Tag:       tag,
					Type:      child.Type,
					Props:     child.Props,
					Children:  child.Children,
					EffectTag: fiber.EffectPlacement,
				}
			}
			if matched != nil {
				e.enqueueDeletion(matched)
			}
		}
		if next == nil {
			continue
		}

		next.Index = i
		next.Return = parent
		next.Sibling = nil
		next.Child = nil
		next.ResetEffects()
		if prev == nil {
			parent.Child = next
		} else {
			prev.Sibling = next
		}
		prev = next
	}

	for ; old != nil; old = old.Sibling {
		e.enqueueDeletion(old)
	}
	return nil
}

// reuse returns the Update fiber for a type match between old and child.
func (e *Engine) reuse(old *fiber.Fiber, child *element.Element) *fiber.Fiber {
	next := old.Alternate
	if next == nil {
		next = &fiber.Fiber{}
	}
	next.Tag = old.Tag
	next.Type = old.Type
	next.StateNode = old.StateNode
	next.Props = child.Props
	next.Children = child.Children
	next.Alternate = old
	next.EffectTag = fiber.EffectUpdate
	return next
}

func (e *Engine) enqueueDeletion(old *fiber.Fiber) {
	old.EffectTag = fiber.EffectDeletion
	e.deletions = append(e.deletions, old)
}
