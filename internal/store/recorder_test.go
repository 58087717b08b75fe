package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reconcile/internal/element"
	"github.com/roach88/reconcile/internal/engine"
	"github.com/roach88/reconcile/internal/host"
	"github.com/roach88/reconcile/internal/host/memhost"
	"github.com/roach88/reconcile/internal/trace"
)

func TestRecorder_PersistsEnginePasses(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := NewRecorder(ctx, s, logger)

	h := memhost.New()
	container := h.NewContainer("root")
	eng := engine.New(h,
		engine.WithLogger(logger),
		engine.WithPassIDGenerator(engine.NewFixedGenerator()),
		engine.WithObserver(rec),
	)
	tree := element.MustCreate("div", element.Props{"id": "A1"},
		element.MustCreate("div", element.Props{"id": "B1"}),
	)

	require.NoError(t, eng.Render(tree, container))
	require.NoError(t, eng.WorkLoop(engine.Unbounded))

	h.FailNext(host.OpCreateNode, nil)
	require.NoError(t, eng.Render(element.MustCreate("span", nil), container))
	require.Error(t, eng.WorkLoop(engine.Unbounded))

	require.NoError(t, rec.Err())
	assert.Equal(t, 2, rec.Recorded())

	first, err := s.ReadPass(ctx, "pass-1")
	require.NoError(t, err)
	assert.Equal(t, trace.StatusCommitted, first.Status)
	assert.Equal(t, []string{"Placement div#B1", "Placement div#A1"}, first.Labels())
	assert.Equal(t, element.MustFingerprint(tree), first.TreeHash)

	second, err := s.ReadPass(ctx, "pass-2")
	require.NoError(t, err)
	assert.Equal(t, trace.StatusAborted, second.Status)
	assert.Contains(t, second.Error, "ADAPTER_FAILURE")
}

func TestRecorder_KeepsFirstError(t *testing.T) {
	s := createTestStore(t)
	rec := NewRecorder(context.Background(), s, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec.OnCommit(createTestPass("", 1))
	rec.OnCommit(createTestPass("ok", 2))

	assert.Error(t, rec.Err())
	assert.Equal(t, 1, rec.Recorded())
}

func TestStore_ResumeClock(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WritePass(ctx, createTestPass("a", 41)))

	clock, err := s.ResumeClock(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(42), clock.Next())
}
