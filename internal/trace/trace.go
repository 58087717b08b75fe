// Package trace defines the records the engine emits for every committed
// render pass. The store persists them and the harness compares them
// against golden files.
//
// This package contains type definitions only and imports nothing internal.
package trace

// Phase distinguishes the two mutation phases of a commit.
type Phase string

const (
	// PhaseDeletion marks fibers removed before any other mutation.
	PhaseDeletion Phase = "deletion"
	// PhaseEffect marks fibers applied in effect-list order.
	PhaseEffect Phase = "effect"
)

// Status of a recorded pass.
const (
	StatusCommitted = "committed"
	StatusAborted   = "aborted"
)

// Effect is one applied mutation.
type Effect struct {
	Phase  Phase  `json:"phase"`
	Effect string `json:"effect"` // Placement, Update or Deletion
	Tag    string `json:"tag"`    // fiber tag name
	Label  string `json:"label"`  // e.g. div#A1 or "A1"
	Depth  int    `json:"depth"`  // distance from the root fiber
	Props  string `json:"props"`  // canonical JSON of the new props
}

// Pass summarises one render pass.
type Pass struct {
	ID       string   `json:"id"`
	Seq      int64    `json:"seq"`
	TreeHash string   `json:"tree_hash,omitempty"`
	Units    int      `json:"units"`
	Slices   int      `json:"slices"`
	Status   string   `json:"status"`
	Error    string   `json:"error,omitempty"`
	Effects  []Effect `json:"effects"`
}

// Count returns how many effects of the given name the pass applied.
func (p *Pass) Count(effect string) int {
	n := 0
	for _, e := range p.Effects {
		if e.Effect == effect {
			n++
		}
	}
	return n
}

// ByPhase returns the effects of one phase in application order.
func (p *Pass) ByPhase(phase Phase) []Effect {
	var out []Effect
	for _, e := range p.Effects {
		if e.Phase == phase {
			out = append(out, e)
		}
	}
	return out
}

// Labels returns "<Effect> <Label>" strings in application order, the
// compact form used by scenario assertions.
func (p *Pass) Labels() []string {
	out := make([]string, len(p.Effects))
	for i, e := range p.Effects {
		out[i] = e.Effect + " " + e.Label
	}
	return out
}
