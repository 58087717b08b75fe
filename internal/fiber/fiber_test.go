package fiber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reconcile/internal/element"
)

type classComp struct{}

func (classComp) Render(element.Props) *element.Element { return nil }

func funcComp(element.Props) *element.Element { return nil }

func TestTagOf(t *testing.T) {
	tests := []struct {
		name string
		typ  element.Type
		want Tag
		ok   bool
	}{
		{"host", "div", TagHost, true},
		{"text", element.Text, TagText, true},
		{"function", element.FunctionComponent(funcComp), TagFunctionComponent, true},
		{"class", classComp{}, TagClassComponent, true},
		{"nil", nil, 0, false},
		{"number", 3, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TagOf(tt.typ)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTagAndEffectNames(t *testing.T) {
	assert.Equal(t, "Root", TagRoot.String())
	assert.Equal(t, "ClassComponent", TagClassComponent.String())
	assert.Equal(t, "Unknown", Tag(42).String())
	assert.Equal(t, "Placement", EffectPlacement.String())
	assert.Equal(t, "None", EffectNone.String())
	assert.True(t, TagText.HasHostNode())
	assert.False(t, TagFunctionComponent.HasHostNode())
}

// link builds parent -> children with Return set.
func link(parent *Fiber, children ...*Fiber) {
	var prev *Fiber
	for i, c := range children {
		c.Return = parent
		if i == 0 {
			parent.Child = c
		} else {
			prev.Sibling = c
		}
		prev = c
	}
}

func named(id string, effect EffectTag) *Fiber {
	return &Fiber{Tag: TagHost, Type: "div", Props: element.Props{"id": id}, EffectTag: effect}
}

func ids(fs []*Fiber) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Props.StringOf("id")
	}
	return out
}

func TestCompleteInto_PostOrder(t *testing.T) {
	root := &Fiber{Tag: TagRoot}
	a1 := named("A1", EffectPlacement)
	b1 := named("B1", EffectPlacement)
	b2 := named("B2", EffectPlacement)
	c1 := named("C1", EffectPlacement)
	c2 := named("C2", EffectPlacement)
	link(root, a1)
	link(a1, b1, b2)
	link(b1, c1, c2)

	// Completion order of the depth-first walk.
	for _, f := range []*Fiber{c1, c2, b1, b2, a1} {
		CompleteInto(f)
	}

	assert.Equal(t, []string{"C1", "C2", "B1", "B2", "A1"}, ids(root.Effects()))
}

func TestCompleteInto_UntaggedFiberContributesDescendantsOnly(t *testing.T) {
	root := &Fiber{Tag: TagRoot}
	a := named("A", EffectNone)
	b := named("B", EffectUpdate)
	link(root, a)
	link(a, b)

	CompleteInto(b)
	CompleteInto(a)

	assert.Equal(t, []string{"B"}, ids(root.Effects()))
}

func TestCompleteInto_RootHasNoParent(t *testing.T) {
	root := &Fiber{Tag: TagRoot, EffectTag: EffectUpdate}
	CompleteInto(root)
	assert.Empty(t, root.Effects())
}

func TestEffects_StopsAtLastEffect(t *testing.T) {
	stale := named("stale", EffectUpdate)
	a := named("A", EffectUpdate)
	a.NextEffect = stale
	root := &Fiber{Tag: TagRoot, FirstEffect: a, LastEffect: a}

	assert.Equal(t, []string{"A"}, ids(root.Effects()))
}

func TestHostParent_SkipsComponents(t *testing.T) {
	root := &Fiber{Tag: TagRoot}
	comp := &Fiber{Tag: TagFunctionComponent}
	leaf := named("L", EffectNone)
	link(root, comp)
	link(comp, leaf)

	require.Same(t, root, leaf.HostParent())
	assert.Equal(t, 2, leaf.Depth())
}

func TestDetach(t *testing.T) {
	root := &Fiber{Tag: TagRoot}
	a := named("A", EffectNone)
	b := named("B", EffectNone)
	c := named("C", EffectNone)
	link(root, a, b, c)

	b.Detach()
	assert.Same(t, c, a.Sibling)
	assert.Nil(t, b.Sibling)
	assert.Same(t, root, b.Return, "return link survives")
	assert.Equal(t, 1, b.Depth())

	a.Detach()
	assert.Same(t, c, root.Child)

	c.Detach()
	assert.Nil(t, root.Child)

	orphan := named("O", EffectNone)
	orphan.Detach()
	assert.Nil(t, orphan.Return)
}

func TestFiber_String(t *testing.T) {
	assert.Equal(t, "root", (&Fiber{Tag: TagRoot}).String())
	assert.Equal(t, "div#A1", named("A1", EffectNone).String())
	assert.Equal(t, `"hi"`, (&Fiber{Tag: TagText, Type: element.Text, Props: element.Props{"text": "hi"}}).String())
}
