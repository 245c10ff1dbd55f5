package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario defines a composition scenario.
// A scenario compiles a mixin configuration, composes one target through the
// caches and checks the surviving mixins and their identities.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is an inline CUE mixin configuration.
	Config string `yaml:"config,omitempty"`

	// ConfigFiles lists CUE files unified into the configuration.
	// Paths are relative to the scenario file location.
	ConfigFiles []string `yaml:"config_files,omitempty"`

	// Target is the fully qualified name of the target to compose.
	Target string `yaml:"target"`

	// Constructors are constructor calls made against the composed types.
	Constructors []ConstructorCall `yaml:"constructors,omitempty"`

	// Expect describes the expected composition.
	Expect Expectation `yaml:"expect"`
}

// ConstructorCall requests an instance of one composed mixin.
type ConstructorCall struct {
	// Mixin names the composed mixin whose generated type is constructed.
	Mixin string `yaml:"mixin"`

	// Signature is the constructor signature, e.g. "(string)".
	Signature string `yaml:"signature"`

	// NonPublic allows matching non-public constructors.
	NonPublic bool `yaml:"non_public,omitempty"`

	// Args are passed to the constructor.
	Args []string `yaml:"args,omitempty"`

	// Error is a substring of the expected error. Empty means success.
	Error string `yaml:"error,omitempty"`
}

// Expectation is the expected outcome of composing the target.
type Expectation struct {
	// Mixins are the surviving mixins in integration order.
	Mixins []string `yaml:"mixins"`

	// Error is a substring of the expected composition error.
	// When set, Mixins must be empty.
	Error string `yaml:"error,omitempty"`

	// Identities maps surviving mixins to their expected method sets.
	// Subset match - only listed mixins are validated.
	Identities map[string]IdentityExpect `yaml:"identities,omitempty"`
}

// IdentityExpect lists the method sets of one composition identity as
// "Type.Method(sig)" strings, ordered by declaring type, name and signature.
type IdentityExpect struct {
	Overriders []string `yaml:"overriders"`
	Overridden []string `yaml:"overridden"`
}

// LoadScenario reads and parses a scenario YAML file.
// Config file paths are resolved relative to the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "mixin:" vs "mixins:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, p := range scenario.ConfigFiles {
		if !filepath.IsAbs(p) {
			scenario.ConfigFiles[i] = filepath.Join(base, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, in file name order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Target == "" {
		return fmt.Errorf("target is required")
	}

	switch {
	case s.Config == "" && len(s.ConfigFiles) == 0:
		return fmt.Errorf("config or config_files is required")
	case s.Config != "" && len(s.ConfigFiles) > 0:
		return fmt.Errorf("config and config_files are mutually exclusive")
	}
	for _, p := range s.ConfigFiles {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", p)
		}
	}

	if s.Expect.Error != "" && len(s.Expect.Mixins) > 0 {
		return fmt.Errorf("expect: mixins and error are mutually exclusive")
	}
	for name := range s.Expect.Identities {
		if !slices.Contains(s.Expect.Mixins, name) {
			return fmt.Errorf("expect.identities: %s is not an expected mixin", name)
		}
	}

	for i, c := range s.Constructors {
		if c.Mixin == "" {
			return fmt.Errorf("constructors[%d]: mixin is required", i)
		}
		if c.Signature == "" {
			return fmt.Errorf("constructors[%d]: signature is required (use \"()\" for the default)", i)
		}
	}
	return nil
}
