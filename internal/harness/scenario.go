package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one YAML journal scenario.
type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Thresholds  *Thresholds `yaml:"thresholds,omitempty"`
	Journal     []Step      `yaml:"journal"`
	Assertions  []Assertion `yaml:"assertions"`
}

// Thresholds overrides the engine's alert thresholds, in credits.
type Thresholds struct {
	PlanetValue   int64 `yaml:"planet_value"`
	OrganismValue int64 `yaml:"organism_value"`
}

// Step is one journal line: either an event with fields, or a raw line.
type Step struct {
	Event  string         `yaml:"event,omitempty"`
	Fields map[string]any `yaml:"fields,omitempty"`
	Raw    *string        `yaml:"raw,omitempty"`
}

// Assertion types.
const (
	AssertNoticeContains = "notice_contains"
	AssertNoticeAbsent   = "notice_absent"
	AssertNoticeOrder    = "notice_order"
	AssertNoticeCount    = "notice_count"
	AssertFinalState     = "final_state"
	AssertFaults         = "faults"
)

// Assertion is one check against a scenario result.
type Assertion struct {
	Type   string         `yaml:"type"`
	Text   string         `yaml:"text,omitempty"`
	Texts  []string       `yaml:"texts,omitempty"`
	Count  int            `yaml:"count,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// LoadScenario reads and validates a scenario file. Unknown keys are
// rejected so a typo cannot silently disable an assertion.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Journal) == 0 {
		return fmt.Errorf("journal list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Journal {
		switch {
		case step.Raw != nil && (step.Event != "" || step.Fields != nil):
			return fmt.Errorf("journal[%d]: raw cannot be combined with event or fields", i)
		case step.Raw == nil && step.Event == "":
			return fmt.Errorf("journal[%d]: event or raw is required", i)
		}
		if _, ok := step.Fields["event"]; ok {
			return fmt.Errorf("journal[%d]: put the event name in event, not fields", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertNoticeContains, AssertNoticeAbsent:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertNoticeOrder:
		if len(a.Texts) < 2 {
			return fmt.Errorf("assertions[%d]: texts needs at least two entries for notice_order", index)
		}
	case AssertNoticeCount:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for notice_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertFaults:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
