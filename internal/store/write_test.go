package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reconcile/internal/trace"
)

func TestWritePass_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	p := createTestPass("pass-1", 1, "div#C1", "div#B1", "div#A1")
	p.TreeHash = "abc"
	p.Effects[0].Phase = trace.PhaseDeletion
	p.Effects[0].Effect = "Deletion"

	require.NoError(t, s.WritePass(ctx, p))

	got, err := s.ReadPass(ctx, "pass-1")
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestWritePass_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WritePass(ctx, createTestPass("pass-1", 1, "div#A1")))
	require.NoError(t, s.WritePass(ctx, createTestPass("pass-1", 1, "div#A1", "div#B1")))

	effects, err := s.ReadEffects(ctx, "pass-1")
	require.NoError(t, err)
	assert.Len(t, effects, 1, "the second write is ignored")
}

func TestWritePass_DuplicateSeqRejected(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WritePass(ctx, createTestPass("pass-1", 1)))
	err := s.WritePass(ctx, createTestPass("pass-2", 1))

	require.Error(t, err)
	_, readErr := s.ReadPass(ctx, "pass-2")
	assert.ErrorIs(t, readErr, ErrNotFound, "the failed transaction left nothing behind")
}

func TestWritePass_AbortedPass(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	p := trace.Pass{
		ID:      "pass-1",
		Seq:     1,
		Units:   3,
		Slices:  2,
		Status:  trace.StatusAborted,
		Error:   "ADAPTER_FAILURE: render pass aborted",
		Effects: []trace.Effect{},
	}

	require.NoError(t, s.WritePass(ctx, p))

	got, err := s.ReadPass(ctx, "pass-1")
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestWritePass_RejectsBadStatus(t *testing.T) {
	s := createTestStore(t)
	p := createTestPass("pass-1", 1)
	p.Status = "pending"

	assert.Error(t, s.WritePass(context.Background(), p))
}

func TestWritePass_EmptyID(t *testing.T) {
	s := createTestStore(t)

	assert.Error(t, s.WritePass(context.Background(), createTestPass("", 1)))
}
