package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/reconcile/internal/element"
	"github.com/roach88/reconcile/internal/trace"
)

// Snapshot captures everything a scenario observably did.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	Scenario string
	Steps    []StepResult
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. Tree hashes are left out so that golden files do not churn
// when element encoding changes.
func (s *Snapshot) toCanonicalMap() map[string]any {
	steps := make([]any, len(s.Steps))
	for i, sr := range s.Steps {
		m := map[string]any{
			"step": i + 1,
			"host": sr.Host,
		}
		if sr.Trace != nil {
			m["pass"] = passMap(sr.Trace)
		}
		if sr.Error != "" {
			m["error"] = sr.Error
		}
		steps[i] = m
	}
	return map[string]any{
		"scenario": s.Scenario,
		"steps":    steps,
	}
}

func passMap(p *trace.Pass) map[string]any {
	effects := make([]any, len(p.Effects))
	for i, e := range p.Effects {
		effects[i] = map[string]any{
			"phase":  string(e.Phase),
			"effect": e.Effect,
			"tag":    e.Tag,
			"label":  e.Label,
			"depth":  e.Depth,
			"props":  e.Props,
		}
	}
	m := map[string]any{
		"id":      p.ID,
		"seq":     p.Seq,
		"status":  p.Status,
		"units":   p.Units,
		"slices":  p.Slices,
		"effects": effects,
	}
	if p.Error != "" {
		m["error"] = p.Error
	}
	return m
}

// MarshalSnapshot returns the canonical JSON form of a scenario result.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snapshot := Snapshot{Scenario: name, Steps: result.Steps}
	return element.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check expectations.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
