// Package harness provides conformance testing for the enumeration engine.
//
// Scenarios declare a parameter grid, optional failure injection, and
// expectations about the resulting enumeration. The harness runs the grid
// through the real engine, captures the iteration trace through the
// observer hook, and validates the expectations. Traces are deterministic,
// so they can also be compared against golden snapshots.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: letters_numbers
//	description: "Cartesian product of two parameters"
//	parameters:
//	  - name: letter
//	    values: [a, b]
//	  - name: number
//	    values: [1, 2, 3]
//	fail_on:
//	  - { letter: a, number: 2 }
//	expect:
//	  iterations: 6
//	  failures: 1
//	  summary_prefix: "Failed 1/6 cases"
//	  order:
//	    - letter=a number=1
//	    - letter=a number=2
//	    - letter=a number=3
//	    - letter=b number=1
//	    - letter=b number=2
//	    - letter=b number=3
//
// A parameter with a `when` clause is declared only when the already-bound
// parameters match it, which exercises conditionally-declared sub-trees.
// `pairwise: true` runs a two-parameter scenario through the pairwise
// consumer instead of the cartesian engine path.
//
// # Determinism
//
// Matching in fail_on and when clauses compares displayed argument values,
// so `number: 2` matches the integer argument 2. Each scenario runs with a
// fixed run token (scenario.token, defaulting to "run-<name>") for golden
// comparison.
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance test case for the enumeration engine.
type Scenario struct {
	// Name uniquely identifies this scenario; also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Token is an optional fixed run token. Defaults to "run-<name>".
	Token string `yaml:"token,omitempty"`

	// Parameters is the grid, in declaration order.
	Parameters []ParameterSpec `yaml:"parameters"`

	// Pairwise runs the first two parameters through the pairwise
	// consumer (same-index pairing) instead of the cartesian product.
	Pairwise bool `yaml:"pairwise,omitempty"`

	// FailOn lists argument combinations whose iterations fail.
	// Values are matched by displayed value; a combination matches when
	// every listed parameter matches.
	FailOn []map[string]any `yaml:"fail_on,omitempty"`

	// BreakOnFailure requests an early break on the first failure.
	BreakOnFailure bool `yaml:"break_on_failure,omitempty"`

	// MaxRecorded overrides the recorded-failure cap. Zero keeps the
	// engine default.
	MaxRecorded int `yaml:"max_recorded,omitempty"`

	// Expect validates the run's outcome.
	Expect *Expectation `yaml:"expect,omitempty"`
}

// ParameterSpec declares one parameter of the grid.
type ParameterSpec struct {
	// Name is the parameter's binding-site name.
	Name string `yaml:"name"`

	// Values is the argument sequence, in order.
	Values []any `yaml:"values"`

	// When restricts declaration to iterations where the already-bound
	// parameters match (by displayed value).
	When map[string]any `yaml:"when,omitempty"`
}

// Expectation validates the final trace and counts.
type Expectation struct {
	// Iterations is the expected total, including skipped iterations.
	Iterations *uint64 `yaml:"iterations,omitempty"`

	// Skipped is the expected number of skipped iterations.
	Skipped *uint64 `yaml:"skipped,omitempty"`

	// Failures is the expected number of failing iterations.
	Failures *uint64 `yaml:"failures,omitempty"`

	// CompletedEarly is the expected early-completion flag.
	CompletedEarly *bool `yaml:"completed_early,omitempty"`

	// SummaryPrefix is the expected prefix of the aggregate error
	// message; empty requires a silent run.
	SummaryPrefix *string `yaml:"summary_prefix,omitempty"`

	// Order lists the expected combinations in enumeration order, each
	// formatted as space-separated "name=value" pairs.
	Order []string `yaml:"order,omitempty"`
}

// LoadScenario reads, schema-validates, and decodes a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(path, data)
}

// ParseScenario schema-validates and decodes scenario YAML.
func ParseScenario(filename string, data []byte) (*Scenario, error) {
	if err := ValidateScenario(filename, data); err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.check(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// check enforces the semantic constraints the schema cannot express.
func (sc *Scenario) check() error {
	if sc.Pairwise && len(sc.Parameters) != 2 {
		return fmt.Errorf("scenario %s: pairwise requires exactly 2 parameters, got %d", sc.Name, len(sc.Parameters))
	}
	seen := make(map[string]bool, len(sc.Parameters))
	for _, p := range sc.Parameters {
		if seen[p.Name] {
			return fmt.Errorf("scenario %s: duplicate parameter name %q", sc.Name, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// token returns the scenario's fixed run token.
func (sc *Scenario) token() string {
	if sc.Token != "" {
		return sc.Token
	}
	return "run-" + sc.Name
}
