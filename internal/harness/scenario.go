package harness

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Scenario defines one rewrite run and what it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists the CUE spec files to compile together.
	Specs []string `yaml:"specs"`

	// Tree names the tree, declared in the specs, to rewrite.
	Tree string `yaml:"tree"`

	// Rules restricts and orders the rules applied. Empty means every rule
	// of the specs in declaration order.
	Rules []string `yaml:"rules,omitempty"`

	// PassLimit overrides the processor's pass limit when positive.
	PassLimit int `yaml:"pass_limit,omitempty"`

	// Context selects how subtrees are identified: "fingerprint" (default)
	// treats structurally equal subtrees as the same state, "identity" only
	// the same nodes.
	Context string `yaml:"context,omitempty"`

	// RunID is the fixed id of the run. Defaults to DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`

	// Assertions validate the trace and the result.
	Assertions []Assertion `yaml:"assertions"`
}

// DefaultRunID is the run id of scenarios that do not set one.
const DefaultRunID = "test-run-default"

// Context names.
const (
	ContextFingerprint = "fingerprint"
	ContextIdentity    = "identity"
)

// Assertion validates the trace or the result tree.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Rule is the rule name (fired, not_fired, fire_count).
	Rule string `yaml:"rule,omitempty"`

	// Rules is the expected first-firing order (fire_order).
	Rules []string `yaml:"rules,omitempty"`

	// Count is the expected number of firings (fire_count).
	Count int `yaml:"count,omitempty"`

	// Expect is the expected ir.Format output (result).
	Expect string `yaml:"expect,omitempty"`

	// Stats maps processor counter names to expected values (stats).
	Stats map[string]int `yaml:"stats,omitempty"`
}

// Assertion type constants.
const (
	AssertFired         = "fired"
	AssertNotFired      = "not_fired"
	AssertFireOrder     = "fire_order"
	AssertFireCount     = "fire_count"
	AssertResult        = "result"
	AssertStats         = "stats"
	AssertDeterministic = "deterministic"
)

// statNames are the counters a stats assertion may name.
var statNames = map[string]bool{
	"passes":        true,
	"firings":       true,
	"cycles_broken": true,
	"memoized":      true,
	"anomalies":     true,
}

// LoadScenario reads and parses a scenario YAML file. Spec paths are
// resolved relative to the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scenario file")
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML")
	}

	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, errors.Wrap(err, "invalid scenario")
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if len(s.Specs) == 0 {
		return errors.New("specs list is required and must be non-empty")
	}
	if s.Tree == "" {
		return errors.New("tree is required")
	}
	if len(s.Assertions) == 0 {
		return errors.New("assertions list is required and must be non-empty")
	}
	if s.PassLimit < 0 {
		return errors.New("pass_limit must be non-negative")
	}
	switch s.Context {
	case "", ContextFingerprint, ContextIdentity:
	default:
		return errors.Newf("unknown context %q", s.Context)
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return errors.Newf("spec file not found: %s", specPath)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return errors.Newf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFired, AssertNotFired:
		if a.Rule == "" {
			return errors.Newf("assertions[%d]: rule is required for %s", index, a.Type)
		}
	case AssertFireOrder:
		if len(a.Rules) == 0 {
			return errors.Newf("assertions[%d]: rules list is required for fire_order", index)
		}
	case AssertFireCount:
		if a.Rule == "" {
			return errors.Newf("assertions[%d]: rule is required for fire_count", index)
		}
		if a.Count < 0 {
			return errors.Newf("assertions[%d]: count must be non-negative for fire_count", index)
		}
	case AssertResult:
		if a.Expect == "" {
			return errors.Newf("assertions[%d]: expect is required for result", index)
		}
	case AssertStats:
		if len(a.Stats) == 0 {
			return errors.Newf("assertions[%d]: stats is required for stats", index)
		}
		for name := range a.Stats {
			if !statNames[name] {
				return errors.Newf("assertions[%d]: unknown stat %q", index, name)
			}
		}
	case AssertDeterministic:
	default:
		return errors.Newf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
