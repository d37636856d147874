package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/stateview/internal/ingest"
)

// Scenario defines a conformance scenario: blocks to apply and steps to
// check afterwards.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Type is the default document type for transitions and steps.
	Type string `yaml:"type"`

	// Token is the block token recorded by the applier. Defaults to
	// DefaultToken so golden traces stay deterministic.
	Token string `yaml:"token,omitempty"`

	// Blocks are applied in order before the first step.
	Blocks []ingest.Block `yaml:"-"`

	// Steps run in order against the populated repositories.
	Steps []Step `yaml:"steps"`
}

// DefaultToken is the block token used when a scenario does not set one.
const DefaultToken = "scenario-token"

// Step operation names.
const (
	OpFetch    = "fetch"
	OpFind     = "find"
	OpOrigin   = "origin"
	OpRollback = "rollback"
)

// Step is one repository operation and its expected outcome.
type Step struct {
	// Op is one of fetch, find, origin and rollback.
	Op string `yaml:"op"`

	// Type overrides the scenario document type for this step.
	Type string `yaml:"type,omitempty"`

	// Query is the raw fetch query (fetch).
	Query map[string]any `yaml:"query,omitempty"`

	// ID is the document id (find).
	ID string `yaml:"id,omitempty"`

	// StHash is the state transition hash (origin, rollback).
	StHash string `yaml:"stHash,omitempty"`

	// Expect is checked against the outcome. Nil expects success only.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome of a step. Unset fields are not checked.
type Expect struct {
	// IDs are the expected document ids in result order (fetch, origin).
	// An empty list expects no documents.
	IDs []string `yaml:"ids,omitempty"`

	// Errors are the expected validation codes, in order (fetch).
	Errors []string `yaml:"errors,omitempty"`

	// Found reports whether find returns an active document.
	Found *bool `yaml:"found,omitempty"`

	// State is the expected state of the stored document (find), looked up
	// through the history so deleted documents can be checked too.
	State string `yaml:"state,omitempty"`

	// Data is a subset of the expected current data (find).
	Data map[string]any `yaml:"data,omitempty"`
}

// scenarioFile adds the raw block list, which is decoded by the ingest
// package once the default type is known.
type scenarioFile struct {
	Scenario `yaml:",inline"`
	Blocks   yaml.Node `yaml:"blocks"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var file scenarioFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	s := file.Scenario
	if file.Blocks.Kind != 0 {
		raw, err := yaml.Marshal(map[string]*yaml.Node{"blocks": &file.Blocks})
		if err != nil {
			return nil, fmt.Errorf("failed to re-encode blocks: %w", err)
		}
		s.Blocks, err = ingest.DecodeBlocks(raw, s.Type)
		if err != nil {
			return nil, fmt.Errorf("invalid scenario: %w", err)
		}
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// LoadScenarios loads every .yaml file in dir, ordered by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("scenario %q defined in both %s and %s", s.Name, prev, p)
		}
		seen[s.Name] = p
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Type == "" {
		return fmt.Errorf("type is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	switch step.Op {
	case OpFetch:
		if step.Query == nil {
			return fmt.Errorf("fetch requires query (use {} for an empty query)")
		}
	case OpFind:
		if step.ID == "" {
			return fmt.Errorf("find requires id")
		}
	case OpOrigin, OpRollback:
		if step.StHash == "" {
			return fmt.Errorf("%s requires stHash", step.Op)
		}
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	e := step.Expect
	if e == nil {
		return nil
	}
	if e.IDs != nil && e.Errors != nil {
		return fmt.Errorf("expect: ids and errors are mutually exclusive")
	}
	if e.Errors != nil && step.Op != OpFetch {
		return fmt.Errorf("expect: errors only apply to fetch")
	}
	if e.IDs != nil && step.Op != OpFetch && step.Op != OpOrigin {
		return fmt.Errorf("expect: ids only apply to fetch and origin")
	}
	if (e.Found != nil || e.State != "" || e.Data != nil) && step.Op != OpFind {
		return fmt.Errorf("expect: found, state and data only apply to find")
	}
	return nil
}
