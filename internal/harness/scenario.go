// Package harness runs conformance scenarios: YAML documents that declare
// a policy, a mutation batch, and optionally seed records, and whose
// compiled (and applied) outcome is compared against golden files.
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fieldpatch/fieldpatch/internal/attr"
	"github.com/fieldpatch/fieldpatch/internal/patch"
	"github.com/fieldpatch/fieldpatch/internal/policy"
)

// Scenario declares one conformance case.
type Scenario struct {
	// Name uniquely identifies the scenario; the golden file shares it.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description,omitempty"`

	// Table is the compile target.
	Table string `yaml:"table"`

	// Policy is the policy under test. Omitted means the permissive
	// default policy.
	Policy *policy.Policy `yaml:"policy,omitempty"`

	// Seed lists records put into the reference store before the batch is
	// applied. When empty, the scenario compiles without applying.
	Seed []SeedRecord `yaml:"seed,omitempty"`

	// Requests is the mutation batch, in order.
	Requests []patch.Request `yaml:"requests"`
}

// SeedRecord is one pre-existing record in the reference store.
type SeedRecord struct {
	Key   patch.Key `yaml:"key"`
	Attrs attr.Map  `yaml:"attrs"`
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if scenario.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if scenario.Table == "" {
		return nil, fmt.Errorf("scenario %s: table is required", path)
	}
	return &scenario, nil
}
