package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reconcile/internal/store"
	"github.com/roach88/reconcile/internal/trace"
)

func seedStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "passes.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.WritePass(ctx, trace.Pass{
		ID: "pass-1", Seq: 1, Units: 3, Slices: 1, Status: trace.StatusCommitted,
		Effects: []trace.Effect{
			{Phase: trace.PhaseEffect, Effect: "Placement", Tag: "Text", Label: `"hi"`, Depth: 2, Props: `{"text":"hi"}`},
			{Phase: trace.PhaseEffect, Effect: "Placement", Tag: "Host", Label: "div#A1", Depth: 1, Props: `{"id":"A1"}`},
		},
	}))
	require.NoError(t, st.WritePass(ctx, trace.Pass{
		ID: "pass-2", Seq: 2, Units: 2, Slices: 1, Status: trace.StatusAborted,
		Error:   "ADAPTER_FAILURE: render pass aborted (pass=pass-2): host create_text: injected failure",
		Effects: []trace.Effect{},
	}))
	return path
}

func TestTraceCommand_List(t *testing.T) {
	out, _, err := execute(t, "trace", "--db", seedStore(t))
	require.NoError(t, err)
	assert.Contains(t, out, "pass-1")
	assert.Contains(t, out, "pass-2")
	assert.Contains(t, out, "ADAPTER_FAILURE")
	assert.Contains(t, out, "1 committed / 1 aborted")
	assert.Contains(t, out, "2 Placement")
}

func TestTraceCommand_Limit(t *testing.T) {
	out, _, err := execute(t, "trace", "--db", seedStore(t), "--limit", "1", "--format", "json")
	require.NoError(t, err)

	var result TraceResult
	decodeData(t, out, &result)
	require.Len(t, result.Passes, 1)
	assert.Equal(t, "pass-2", result.Passes[0].ID)
	assert.Equal(t, 2, result.Stats.Passes)
	assert.Equal(t, 2, result.Stats.Effects["Placement"])
}

func TestTraceCommand_Pass(t *testing.T) {
	out, _, err := execute(t, "trace", "--db", seedStore(t), "--pass", "pass-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Pass pass-1 (seq 1): committed, 3 unit(s) in 1 slice(s)")
	assert.Contains(t, out, "div#A1")
	assert.Contains(t, out, `{"text":"hi"}`)
}

func TestTraceCommand_PassJSON(t *testing.T) {
	out, _, err := execute(t, "trace", "--db", seedStore(t), "--pass", "pass-2", "--format", "json")
	require.NoError(t, err)

	var p trace.Pass
	decodeData(t, out, &p)
	assert.Equal(t, trace.StatusAborted, p.Status)
	assert.Empty(t, p.Effects)
}

func TestTraceCommand_UnknownPass(t *testing.T) {
	_, _, err := execute(t, "trace", "--db", seedStore(t), "--pass", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTraceCommand_MissingDatabase(t *testing.T) {
	_, _, err := execute(t, "trace", "--db", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceCommand_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, "trace", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No passes recorded.")
}

func TestTraceCommand_RequiresDB(t *testing.T) {
	_, _, err := execute(t, "trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}

func TestTraceCommand_EmptyFileIsNotAPassLog(t *testing.T) {
	path := writeFile(t, "blank.db", "")

	_, _, err := execute(t, "trace", "--db", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrNotPassLog)

	info, statErr := os.Stat(path)
	require.NoError(t, statErr)
	assert.Zero(t, info.Size(), "trace never writes to the database")
}
