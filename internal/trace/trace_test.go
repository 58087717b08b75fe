package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPass_Helpers(t *testing.T) {
	p := &Pass{Effects: []Effect{
		{Phase: PhaseDeletion, Effect: "Deletion", Label: "div#B1"},
		{Phase: PhaseEffect, Effect: "Placement", Label: "div#X"},
		{Phase: PhaseEffect, Effect: "Update", Label: "div#A1"},
	}}

	assert.Equal(t, 1, p.Count("Deletion"))
	assert.Equal(t, 0, p.Count("Other"))
	assert.Len(t, p.ByPhase(PhaseEffect), 2)
	assert.Equal(t, []string{"Deletion div#B1", "Placement div#X", "Update div#A1"}, p.Labels())
}
