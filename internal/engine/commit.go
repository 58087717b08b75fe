package engine

import (
	"github.com/roach88/reconcile/internal/element"
	"github.com/roach88/reconcile/internal/fiber"
	"github.com/roach88/reconcile/internal/host"
	"github.com/roach88/reconcile/internal/trace"
)

// commitRoot applies a completed pass to the host and promotes the
// work-in-progress tree to current.
//
// Deletions are applied first, then the effect list in order. Each applied
// deletion is detached from the current tree at once. If the host rejects an
// effect, the effects already applied are reverted and nothing is promoted,
// so the current tree matches the host again and the next pass can commit.
func (e *Engine) commitRoot() error {
	e.state = StateCommitting
	records := make([]trace.Effect, 0, len(e.deletions))

	for _, d := range e.deletions {
		parent := d.HostParent()
		if parent == nil {
			d.EffectTag = fiber.EffectNone
			continue
		}
		if err := e.commitDeletion(d, parent.StateNode); err != nil {
			return e.commitFailed(err, nil)
		}
		records = append(records, effectRecord(trace.PhaseDeletion, d))
		d.EffectTag = fiber.EffectNone
		d.Detach()
	}
	e.deletions = nil

	effects := e.wipRoot.Effects()
	for i, f := range effects {
		if err := e.commitWork(f); err != nil {
			return e.commitFailed(err, effects[:i])
		}
		records = append(records, effectRecord(trace.PhaseEffect, f))
	}
	for _, f := range effects {
		f.EffectTag = fiber.EffectNone
	}

	e.currentRoot = e.wipRoot
	e.wipRoot = nil
	e.nextUnit = nil
	e.state = StateIdle

	p := trace.Pass{
		ID:       e.pass.id,
		Seq:      e.pass.seq,
		TreeHash: e.pass.treeHash,
		Units:    e.pass.quota.Current(),
		Slices:   e.pass.slices,
		Status:   trace.StatusCommitted,
		Effects:  records,
	}
	e.logger.Info("render pass committed",
		"pass", p.ID,
		"seq", p.Seq,
		"units", p.Units,
		"slices", p.Slices,
		"placements", p.Count(fiber.EffectPlacement.String()),
		"updates", p.Count(fiber.EffectUpdate.String()),
		"deletions", p.Count(fiber.EffectDeletion.String()),
	)
	e.notify(p)
	return nil
}

// commitWork applies one effect-list entry.
func (e *Engine) commitWork(f *fiber.Fiber) error {
	switch f.EffectTag {
	case fiber.EffectPlacement:
		if f.StateNode == nil {
			return nil
		}
		parent := f.HostParent()
		if parent == nil {
			return nil
		}
		if err := e.adapter.AppendChild(parent.StateNode, f.StateNode); err != nil {
			return host.Wrap(host.OpAppendChild, err)
		}

	case fiber.EffectUpdate:
		switch f.Tag {
		case fiber.TagText:
			if f.Alternate != nil && f.Alternate.Literal() == f.Literal() {
				return nil
			}
			if err := e.adapter.SetText(f.StateNode, f.Literal()); err != nil {
				return host.Wrap(host.OpSetText, err)
			}
		case fiber.TagHost:
			var oldProps element.Props
			if f.Alternate != nil {
				oldProps = f.Alternate.Props
			}
			if err := e.adapter.ApplyProps(f.StateNode, oldProps, f.Props); err != nil {
				return host.Wrap(host.OpApplyProps, err)
			}
		}
	}
	return nil
}

// commitDeletion detaches the host nodes of f's subtree from parentNode.
// A component owns no node, so each of its children is removed instead.
func (e *Engine) commitDeletion(f *fiber.Fiber, parentNode host.Node) error {
	if f.Tag.HasHostNode() {
		if f.StateNode == nil {
			return nil
		}
		if err := e.adapter.RemoveChild(parentNode, f.StateNode); err != nil {
			return host.Wrap(host.OpRemoveChild, err)
		}
		return nil
	}
	for c := f.Child; c != nil; c = c.Sibling {
		if err := e.commitDeletion(c, parentNode); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) commitFailed(cause error, applied []*fiber.Fiber) error {
	re := &RenderError{
		Code:    ErrCodeCommitFailure,
		Message: "commit interrupted",
		PassID:  e.pass.id,
		Err:     cause,
	}
	e.logger.Error("commit failed",
		"pass", e.pass.id,
		"applied", len(applied),
		"error", cause,
	)
	for i := len(applied) - 1; i >= 0; i-- {
		if err := e.revertWork(applied[i]); err != nil {
			e.logger.Warn("commit revert failed",
				"pass", e.pass.id,
				"fiber", applied[i].String(),
				"error", err,
			)
		}
	}
	e.finishAborted(re)
	return re
}

// revertWork undoes a commitWork that succeeded: placed nodes are detached
// again and updated nodes get the committed props or text back.
func (e *Engine) revertWork(f *fiber.Fiber) error {
	switch f.EffectTag {
	case fiber.EffectPlacement:
		parent := f.HostParent()
		if f.StateNode == nil || parent == nil {
			return nil
		}
		return e.adapter.RemoveChild(parent.StateNode, f.StateNode)

	case fiber.EffectUpdate:
		if f.Alternate == nil {
			return nil
		}
		switch f.Tag {
		case fiber.TagText:
			if f.Alternate.Literal() == f.Literal() {
				return nil
			}
			return e.adapter.SetText(f.StateNode, f.Alternate.Literal())
		case fiber.TagHost:
			return e.adapter.ApplyProps(f.StateNode, f.Props, f.Alternate.Props)
		}
	}
	return nil
}

func effectRecord(phase trace.Phase, f *fiber.Fiber) trace.Effect {
	props, err := element.MarshalProps(f.Props)
	if err != nil {
		props = "{}"
	}
	return trace.Effect{
		Phase:  phase,
		Effect: f.EffectTag.String(),
		Tag:    f.Tag.String(),
		Label:  f.String(),
		Depth:  f.Depth(),
		Props:  props,
	}
}
