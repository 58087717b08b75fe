// Package engine implements the incremental reconciler: the work loop, the
// double-buffered fiber tree, positional child diffing, effect-list
// construction and the two-phase commit.
//
// ARCHITECTURE:
//
// Single-Owner State:
// An Engine holds the current tree, the work-in-progress tree, the deletion
// list and the next-unit cursor. None of it is locked; exactly one
// goroutine may call into an Engine. The scheduler package shows how to
// confine an engine to a goroutine and feed it from others.
//
// Pass Flow:
//  1. Render validates the element and builds a Root fiber skeleton
//  2. ScheduleRoot picks the work-in-progress buffer and sets the cursor
//  3. WorkLoop performs units until the deadline says to yield
//  4. Each unit reconciles one fiber's children; completed fibers splice
//     their effects onto their parent
//  5. With no units left, commitRoot applies deletions, then the effect
//     list, and promotes the work-in-progress tree to current
//
// Suspension only happens between units. Calling Render again before a pass
// commits overwrites the cursor and abandons the unfinished pass; there is
// no cancellation or partial-state preservation beyond that.
//
// Failures during the render phase abort the pass and leave the committed
// tree untouched. Failures during commit stop the commit; the previous tree
// stays current, but the host may already hold some of the mutations.
package engine
