package fiber

// CompleteInto splices f's effects onto its parent when f completes.
//
// The parent's range first receives f's accumulated subtree range
// [FirstEffect..LastEffect], then f itself if it carries an effect. Applied
// in post-order, this leaves the root holding every effect with descendants
// ahead of their ancestors.
func CompleteInto(f *Fiber) {
	parent := f.Return
	if parent == nil {
		return
	}

	if parent.FirstEffect == nil {
		parent.FirstEffect = f.FirstEffect
	}
	if f.LastEffect != nil {
		if parent.LastEffect != nil {
			parent.LastEffect.NextEffect = f.FirstEffect
		}
		parent.LastEffect = f.LastEffect
	}

	if f.EffectTag != EffectNone {
		if parent.LastEffect != nil {
			parent.LastEffect.NextEffect = f
		} else {
			parent.FirstEffect = f
		}
		parent.LastEffect = f
	}
}

// Effects returns the effect list starting at f.FirstEffect.
func (f *Fiber) Effects() []*Fiber {
	var out []*Fiber
	for e := f.FirstEffect; e != nil; e = e.NextEffect {
		out = append(out, e)
		if e == f.LastEffect {
			break
		}
	}
	return out
}
