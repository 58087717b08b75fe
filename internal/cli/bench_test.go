package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "bench", "--iters", "3", "--format", "json", writeFile(t, "frames.yaml", framesYAML))
	require.NoError(t, err)

	var result BenchResult
	decodeData(t, out, &result)
	assert.Equal(t, 3, result.Iterations)
	assert.Equal(t, 6, result.Passes)
	require.Len(t, result.Frames, 2)
	for _, f := range result.Frames {
		assert.Equal(t, 3, f.Passes)
		assert.NotEmpty(t, f.Avg)
		assert.NotEmpty(t, f.P99)
	}
	// Frame 1 begins root, div and one text fiber; frame 2 adds a span.
	assert.Equal(t, int64(9), result.Frames[0].Units)
	assert.Equal(t, int64(12), result.Frames[1].Units)
	assert.Equal(t, int64(21), result.Units)
}

func TestBenchCommand_Text(t *testing.T) {
	out, _, err := execute(t, "bench", "--iters", "2", writeFile(t, "tree.yaml", treeYAML))
	require.NoError(t, err)
	assert.Contains(t, out, "units/pass")
	assert.Contains(t, out, "total")
	assert.Contains(t, out, "2 passes")
}

func TestBenchCommand_BadIterations(t *testing.T) {
	_, _, err := execute(t, "bench", "--iters", "0", writeFile(t, "tree.yaml", treeYAML))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBenchCommand_Failure(t *testing.T) {
	_, _, err := execute(t, "bench", "--iters", "2", "--units", "1", writeFile(t, "tree.yaml", treeYAML))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
