package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

// Scenario defines a template conformance scenario.
// Scenarios store a set of templates, run engine operations against them
// and assert on the results and the describe requests they caused.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Templates maps template names to their JSON source.
	Templates map[string]string `yaml:"templates"`

	// Interfaces is a directory of GRASS interface-description dumps,
	// relative to the scenario file. Empty means the bundled fixtures.
	Interfaces string `yaml:"interfaces,omitempty"`

	// Flow contains the operations to run, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the describe requests made during the flow.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// ResolutionID fixes the engine resolution id for golden comparison.
	// Defaults to "test-resolution".
	ResolutionID string `yaml:"resolution_id,omitempty"`
}

// FlowStep runs exactly one of synthesize, fill or expand.
type FlowStep struct {
	Synthesize string `yaml:"synthesize,omitempty"`

	Fill  string     `yaml:"fill,omitempty"`
	Items []ItemSpec `yaml:"items,omitempty"`

	// Expand is a process chain in JSON.
	Expand string `yaml:"expand,omitempty"`

	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ItemSpec is the YAML form of a fill request item.
type ItemSpec struct {
	Param       string            `yaml:"param"`
	Value       string            `yaml:"value"`
	ImportDescr map[string]string `yaml:"import_descr,omitempty"`
	Exporter    map[string]string `yaml:"exporter,omitempty"`
}

// Items converts specs to fill request items.
func Items(specs []ItemSpec) []ir.Item {
	out := make([]ir.Item, len(specs))
	for i, s := range specs {
		out[i] = ir.Item{Param: s.Param, Value: s.Value, ImportDescr: s.ImportDescr, Exporter: s.Exporter}
	}
	return out
}

// ExpectClause specifies the expected outcome of a flow step.
type ExpectClause struct {
	// Error is the expected engine error code (e.g. "MISSING_PARAMETER").
	// Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Message must be contained in the error text.
	Message string `yaml:"message,omitempty"`

	// Parameters and Returns are the expected exposed names of a
	// synthesized module, in order.
	Parameters []string `yaml:"parameters,omitempty"`
	Returns    []string `yaml:"returns,omitempty"`

	// Steps is the expected number of concrete steps of a fill or expand.
	Steps *int `yaml:"steps,omitempty"`
}

// Assertion validates the describe requests of the whole flow.
type Assertion struct {
	// Type specifies the assertion type:
	// - "describe_count": Module is described exactly Count times
	// - "describe_order": Modules are described in this order (subsequence)
	Type string `yaml:"type"`

	Module  string   `yaml:"module,omitempty"`
	Count   int      `yaml:"count,omitempty"`
	Modules []string `yaml:"modules,omitempty"`
}

// Assertion type constants.
const (
	AssertDescribeCount = "describe_count"
	AssertDescribeOrder = "describe_order"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Relative interface directories are resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	if s.Interfaces != "" && !filepath.IsAbs(s.Interfaces) {
		s.Interfaces = filepath.Join(filepath.Dir(path), s.Interfaces)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

// validateScenario checks required fields and step shapes.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow is required and must be non-empty")
	}

	for i, step := range s.Flow {
		set := 0
		for _, v := range []string{step.Synthesize, step.Fill, step.Expand} {
			if v != "" {
				set++
			}
		}
		if set != 1 {
			return fmt.Errorf("flow[%d]: exactly one of synthesize, fill and expand is required", i)
		}
		if len(step.Items) > 0 && step.Fill == "" {
			return fmt.Errorf("flow[%d]: items are only valid with fill", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertDescribeCount:
		if a.Module == "" {
			return fmt.Errorf("assertions[%d]: module is required for describe_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for describe_count", index)
		}
	case AssertDescribeOrder:
		if len(a.Modules) == 0 {
			return fmt.Errorf("assertions[%d]: modules list is required for describe_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
