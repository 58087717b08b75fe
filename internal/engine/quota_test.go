package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaEnforcer_WithinLimit(t *testing.T) {
	q := NewQuotaEnforcer(10)

	for i := 0; i < 10; i++ {
		assert.NoError(t, q.Check("pass-1"), "unit %d should be allowed", i+1)
	}
	assert.Equal(t, 10, q.Current())
	assert.Equal(t, 10, q.MaxUnits())
}

func TestQuotaEnforcer_ExceedsLimit(t *testing.T) {
	q := NewQuotaEnforcer(2)
	require.NoError(t, q.Check("pass-1"))
	require.NoError(t, q.Check("pass-1"))

	err := q.Check("pass-1")

	require.Error(t, err)
	assert.True(t, IsUnitLimit(err))
	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "pass-1", re.PassID)
	assert.Contains(t, re.Message, "(3 > 2)")
}

func TestQuotaEnforcer_Reset(t *testing.T) {
	q := NewQuotaEnforcer(1)
	require.NoError(t, q.Check("pass-1"))
	require.Error(t, q.Check("pass-1"))

	q.Reset()

	assert.Equal(t, 0, q.Current())
	assert.NoError(t, q.Check("pass-2"))
}

func TestQuotaEnforcer_Disabled(t *testing.T) {
	for _, limit := range []int{0, -1} {
		q := NewQuotaEnforcer(limit)
		for i := 0; i < 1000; i++ {
			require.NoError(t, q.Check("pass-1"))
		}
		assert.Equal(t, 1000, q.Current())
	}
}
