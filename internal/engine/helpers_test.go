package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/reconcile/internal/element"
	"github.com/roach88/reconcile/internal/host/memhost"
	"github.com/roach88/reconcile/internal/trace"
)

// harness bundles an engine with its in-memory host and the passes it
// reported.
type harness struct {
	eng       *Engine
	host      *memhost.Host
	container *memhost.Node
	passes    []trace.Pass
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{host: memhost.New()}
	h.container = h.host.NewContainer("root")
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithPassIDGenerator(NewFixedGenerator()),
		WithObserver(ObserverFunc(func(p trace.Pass) {
			h.passes = append(h.passes, p)
		})),
	}
	h.eng = New(h.host, append(base, opts...)...)
	return h
}

// render schedules el and runs the pass to completion without yielding.
func (h *harness) render(t *testing.T, el *element.Element) trace.Pass {
	t.Helper()
	require.NoError(t, h.eng.Render(el, h.container))
	require.NoError(t, h.eng.WorkLoop(Unbounded))
	require.False(t, h.eng.HasWork(), "pass should have committed")
	return h.last(t)
}

func (h *harness) last(t *testing.T) trace.Pass {
	t.Helper()
	require.NotEmpty(t, h.passes, "no pass reported")
	return h.passes[len(h.passes)-1]
}

func (h *harness) dump() string {
	return memhost.Dump(h.container)
}

func div(id string, children ...any) *element.Element {
	return element.MustCreate("div", element.Props{"id": id}, children...)
}

func span(id string, children ...any) *element.Element {
	return element.MustCreate("span", element.Props{"id": id}, children...)
}

// scenarioTree is div#A1[div#B1[div#C1, div#C2], div#B2].
func scenarioTree(rootID string) *element.Element {
	return div(rootID,
		div("B1", div("C1"), div("C2")),
		div("B2"),
	)
}

const scenarioDump = `<root>
  <div id="A1">
    <div id="B1">
      <div id="C1">
      <div id="C2">
    <div id="B2">
`
