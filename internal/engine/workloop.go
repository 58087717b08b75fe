package engine

import (
	"errors"

	"github.com/roach88/reconcile/internal/fiber"
	"github.com/roach88/reconcile/internal/host"
	"github.com/roach88/reconcile/internal/trace"
)

// WorkLoop is one cooperative tick.
//
// It performs units of work while work remains and the deadline leaves at
// least the yield threshold, always completing at least one unit per call.
// When the last unit finishes, the pass is committed before returning. An
// idle engine returns immediately.
//
// A returned error means the pass was aborted (see RenderError); the engine
// is idle again afterwards.
func (e *Engine) WorkLoop(deadline Deadline) error {
	if !e.HasWork() {
		return nil
	}
	e.pass.slices++

	for e.nextUnit != nil {
		next, err := e.PerformUnitOfWork(e.nextUnit)
		if err != nil {
			return e.abort(err)
		}
		e.nextUnit = next
		if deadline.TimeRemaining() < e.yieldThreshold {
			break
		}
	}

	if e.nextUnit == nil && e.wipRoot != nil {
		return e.commitRoot()
	}
	e.logger.Debug("work loop yielded", "pass", e.pass.id, "units", e.pass.quota.Current())
	return nil
}

// PerformUnitOfWork expands f and returns the next unit: f's first child,
// else the sibling of the nearest completed ancestor, else nil once the
// root has completed.
func (e *Engine) PerformUnitOfWork(f *fiber.Fiber) (*fiber.Fiber, error) {
	if err := e.pass.quota.Check(e.pass.id); err != nil {
		return nil, err
	}
	if err := e.beginWork(f); err != nil {
		return nil, err
	}
	if f.Child != nil {
		return f.Child, nil
	}

	for cur := f; cur != nil; cur = cur.Return {
		fiber.CompleteInto(cur)
		if cur == e.wipRoot {
			return nil, nil
		}
		if cur.Sibling != nil {
			return cur.Sibling, nil
		}
	}
	return nil, nil
}

// beginWork materialises f's host node if needed and reconciles its
// children. Component fibers are classified only and have nothing to do.
func (e *Engine) beginWork(f *fiber.Fiber) error {
	switch f.Tag {
	case fiber.TagRoot:
		return e.reconcileChildren(f, f.Children)
	case fiber.TagText:
		return e.materialize(f)
	case fiber.TagHost:
		if err := e.materialize(f); err != nil {
			return err
		}
		return e.reconcileChildren(f, f.Children)
	}
	return nil
}

// materialize creates the host node of a Host or Text fiber, once.
func (e *Engine) materialize(f *fiber.Fiber) error {
	if f.StateNode != nil {
		return nil
	}

	if f.Tag == fiber.TagText {
		node, err := e.adapter.CreateText(f.Literal())
		if err != nil {
			return host.Wrap(host.OpCreateText, err)
		}
		f.StateNode = node
		return nil
	}

	tag, _ := f.Type.(string)
	node, err := e.adapter.CreateNode(tag)
	if err != nil {
		return host.Wrap(host.OpCreateNode, err)
	}
	if err := e.adapter.ApplyProps(node, nil, f.Props); err != nil {
		return host.Wrap(host.OpApplyProps, err)
	}
	f.StateNode = node
	return nil
}

// abort drops the pass in flight after a render-phase failure. The current
// tree is left exactly as committed.
func (e *Engine) abort(cause error) error {
	re := &RenderError{
		Code:    ErrCodeAdapterFailure,
		Message: "render pass aborted",
		PassID:  e.pass.id,
		Err:     cause,
	}
	var existing *RenderError
	if errors.As(cause, &existing) {
		re = existing
		if re.PassID == "" {
			re.PassID = e.pass.id
		}
	}

	e.logger.Error("render pass aborted",
		"pass", e.pass.id,
		"code", string(re.Code),
		"units", e.pass.quota.Current(),
		"error", cause,
	)
	e.finishAborted(re)
	return re
}

// finishAborted resets the engine to idle and notifies observers.
func (e *Engine) finishAborted(re *RenderError) {
	e.discardDeletions()
	e.wipRoot = nil
	e.nextUnit = nil
	e.state = StateIdle

	e.notify(trace.Pass{
		ID:       e.pass.id,
		Seq:      e.pass.seq,
		TreeHash: e.pass.treeHash,
		Units:    e.pass.quota.Current(),
		Slices:   e.pass.slices,
		Status:   trace.StatusAborted,
		Error:    re.Error(),
		Effects:  []trace.Effect{},
	})
}

// discardDeletions clears the deletion queue and the Deletion tags it put on
// current fibers.
func (e *Engine) discardDeletions() {
	for _, d := range e.deletions {
		d.EffectTag = fiber.EffectNone
	}
	e.deletions = nil
}

func (e *Engine) notify(p trace.Pass) {
	for _, o := range e.observers {
		o.OnCommit(p)
	}
}
