package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/timeline/internal/action"
)

// Scenario is a scripted editing session with expected outcomes.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Setup actions run first and must succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Steps run after setup; each may carry an expectation.
	Steps []Step `yaml:"steps"`

	// Assertions are checked against the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one action or history verb.
type Step struct {
	// Do is an action type such as ADD_EVENT, or "undo" / "redo".
	Do string `yaml:"do"`

	// Payload is the action payload in its JSON shape.
	Payload map[string]any `yaml:"payload,omitempty"`

	// Description overrides the action's default description.
	Description string `yaml:"description,omitempty"`

	// Expect describes the outcome. Nil means the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes a step's expected outcome.
type Expect struct {
	// Code is the expected failure code. Empty means success.
	Code string `yaml:"code,omitempty"`

	// EntityID is the expected affected entity.
	EntityID string `yaml:"entity_id,omitempty"`

	// Message is the expected result message (success only).
	Message string `yaml:"message,omitempty"`
}

// Assertion types.
const (
	AssertCounts  = "counts"
	AssertNotes   = "notes"
	AssertHistory = "history"
	AssertEntity  = "entity"
)

// Assertion checks the final state.
//
//	counts:  properties, events
//	notes:   equals
//	history: undo, redo
//	entity:  id, exists (default true), title (events) or name (properties)
type Assertion struct {
	Type       string  `yaml:"type"`
	Properties *int    `yaml:"properties,omitempty"`
	Events     *int    `yaml:"events,omitempty"`
	Equals     *string `yaml:"equals,omitempty"`
	Undo       *int    `yaml:"undo,omitempty"`
	Redo       *int    `yaml:"redo,omitempty"`
	ID         string  `yaml:"id,omitempty"`
	Exists     *bool   `yaml:"exists,omitempty"`
	Title      string  `yaml:"title,omitempty"`
	Name       string  `yaml:"name,omitempty"`
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
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if len(s.Steps) == 0 {
		errs = append(errs, errors.New("at least one step is required"))
	}
	for i, step := range s.Setup {
		if err := validateStep(step, false); err != nil {
			errs = append(errs, fmt.Errorf("setup[%d]: %w", i, err))
		}
	}
	for i, step := range s.Steps {
		if err := validateStep(step, true); err != nil {
			errs = append(errs, fmt.Errorf("steps[%d]: %w", i, err))
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			errs = append(errs, fmt.Errorf("assertions[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func validateStep(step Step, allowVerbs bool) error {
	switch {
	case step.Do == "":
		return errors.New("do is required")
	case step.Do == VerbUndo || step.Do == VerbRedo:
		if !allowVerbs {
			return fmt.Errorf("%s is not allowed in setup", step.Do)
		}
		if step.Payload != nil {
			return fmt.Errorf("%s takes no payload", step.Do)
		}
		return nil
	}
	if !isActionType(step.Do) && step.Expect == nil {
		return fmt.Errorf("unknown action type %q (expected one of %s, undo, redo)", step.Do, actionTypeList())
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertCounts:
		if a.Properties == nil && a.Events == nil {
			return errors.New("counts needs properties or events")
		}
	case AssertNotes:
		if a.Equals == nil {
			return errors.New("notes needs equals")
		}
	case AssertHistory:
		if a.Undo == nil && a.Redo == nil {
			return errors.New("history needs undo or redo")
		}
	case AssertEntity:
		if a.ID == "" {
			return errors.New("entity needs id")
		}
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func isActionType(s string) bool {
	for _, t := range action.AllTypes() {
		if string(t) == s {
			return true
		}
	}
	return false
}

func actionTypeList() string {
	types := action.AllTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
