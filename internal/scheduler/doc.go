// Package scheduler drives an engine.Engine from an idle-scheduling
// facility.
//
// The engine itself never decides when to run: it performs work when its
// WorkLoop is called and yields when the deadline it was handed runs low.
// This package supplies the deadlines and the callers:
//
//   - FrameDeadline measures a time budget against a clock
//   - IdleScheduler abstracts a host's "call me when idle" hook, with
//     Attach re-arming it until a pass commits
//   - Loop confines an engine to one goroutine and accepts render
//     requests from any other through a FIFO queue
//   - RunToCompletion drives slices synchronously through a ManualIdle
//
// An Engine is not safe for concurrent use. Everything here calls it from a
// single goroutine.
package scheduler
