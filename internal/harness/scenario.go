package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/reconcile/internal/host"
)

// Scenario defines a sequence of renders and the outcomes they must have.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Container is the tag of the host container. Default: "root".
	Container string `yaml:"container,omitempty"`

	// PassIDs are handed out to passes in order; afterwards passes are
	// named pass-N.
	PassIDs []string `yaml:"pass_ids,omitempty"`

	// MaxUnits is the per-pass unit limit. Zero keeps the engine default.
	MaxUnits int `yaml:"max_units,omitempty"`

	// Steps run in order against the same engine.
	Steps []Step `yaml:"steps"`
}

// Step is one render request.
type Step struct {
	// Render is the element document to render. Null renders nothing.
	Render any `yaml:"render"`

	// Units bounds the units of work per slice. Zero means unbounded.
	Units int `yaml:"units,omitempty"`

	// Slices stops driving after this many slices, leaving the pass in
	// flight. Zero drives to the end.
	Slices int `yaml:"slices,omitempty"`

	// Fail arms a one-shot failure of a host operation, e.g. create_node.
	Fail string `yaml:"fail,omitempty"`

	// Expect lists assertions on this step's outcome.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome of a step. Unset fields are not checked.
type Expect struct {
	// Effects is the exact sequence of "<Effect> <label>" strings the pass
	// applied, deletions included.
	Effects []string `yaml:"effects,omitempty"`

	// Counts maps an effect name (Placement, Update, Deletion) to how many
	// times it must occur.
	Counts map[string]int `yaml:"counts,omitempty"`

	// Host is the expected memhost dump of the container after the step.
	Host string `yaml:"host,omitempty"`

	// Status is committed, aborted or pending (no pass finished).
	Status string `yaml:"status,omitempty"`

	// Error is the expected RenderError code.
	Error string `yaml:"error,omitempty"`

	// Units and Slices check the pass counters.
	Units  int `yaml:"units,omitempty"`
	Slices int `yaml:"slices,omitempty"`
}

// StatusPending marks a step whose pass was left in flight.
const StatusPending = "pending"

var knownOps = map[string]bool{
	host.OpCreateNode:  true,
	host.OpCreateText:  true,
	host.OpApplyProps:  true,
	host.OpSetText:     true,
	host.OpAppendChild: true,
	host.OpRemoveChild: true,
}

var knownEffects = map[string]bool{
	"Placement": true,
	"Update":    true,
	"Deletion":  true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.MaxUnits < 0 {
		return fmt.Errorf("max_units must be non-negative")
	}

	for i, step := range s.Steps {
		if step.Units < 0 {
			return fmt.Errorf("steps[%d]: units must be non-negative", i)
		}
		if step.Slices < 0 {
			return fmt.Errorf("steps[%d]: slices must be non-negative", i)
		}
		if step.Fail != "" && !knownOps[step.Fail] {
			return fmt.Errorf("steps[%d]: unknown host operation %q", i, step.Fail)
		}
		if step.Expect == nil {
			continue
		}
		for name, n := range step.Expect.Counts {
			if !knownEffects[name] {
				return fmt.Errorf("steps[%d].expect: unknown effect %q", i, name)
			}
			if n < 0 {
				return fmt.Errorf("steps[%d].expect: count for %s must be non-negative", i, name)
			}
		}
		switch step.Expect.Status {
		case "", "committed", "aborted", StatusPending:
		default:
			return fmt.Errorf("steps[%d].expect: unknown status %q", i, step.Expect.Status)
		}
	}
	return nil
}
