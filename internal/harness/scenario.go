package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tenure/internal/config"
	"github.com/roach88/tenure/internal/telemetry"
)

// Scenario is one seeded run plus the outcomes it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario demonstrates.
	Description string `yaml:"description"`

	// Seed is the run seed.
	Seed int64 `yaml:"seed"`

	// Policy pins every succession to one catalog variant. Empty uses the
	// configured weighted generator.
	Policy string `yaml:"policy,omitempty"`

	// Config holds overrides merged over config.Default(). It is kept as a
	// node so the config package applies its own strict decoding.
	Config yaml.Node `yaml:"config,omitempty"`

	// Assertions are checked against the finished run.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one property of a finished run.
type Assertion struct {
	// Type selects the check; see the package documentation.
	Type string `yaml:"type"`

	// Regime is the expected regime (regime).
	Regime string `yaml:"regime,omitempty"`

	// Cause is the expected terminal cause (terminal_cause).
	Cause string `yaml:"cause,omitempty"`

	// Min and Max bound the succession count (successions).
	Min *int `yaml:"min,omitempty"`
	Max *int `yaml:"max,omitempty"`

	// Kind and Count select and size events (event_count).
	Kind  string `yaml:"kind,omitempty"`
	Count *int   `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertRegime        = "regime"
	AssertTerminalCause = "terminal_cause"
	AssertSuccessions   = "successions"
	AssertEventCount    = "event_count"
	AssertNoBankruptcy  = "no_bankruptcy"
	AssertDeterministic = "deterministic"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every .yaml and .yml scenario in dir, ordered by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	scenarios := make([]*Scenario, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", name, s.Name, prev)
		}
		seen[s.Name] = name
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// Resolve applies the scenario's overrides to the default configuration.
func (s *Scenario) Resolve() (config.Config, error) {
	if s.Config.Kind == 0 {
		cfg := config.Default()
		cfg.Policy = s.Policy
		return cfg, cfg.Validate()
	}
	data, err := yaml.Marshal(&s.Config)
	if err != nil {
		return config.Config{}, fmt.Errorf("scenario %q: encode overrides: %w", s.Name, err)
	}
	base := config.Default()
	base.Policy = s.Policy
	cfg, err := config.Overlay(base, data, config.FormatYAML)
	if err != nil {
		return config.Config{}, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return cfg, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Config.Kind != 0 && s.Config.Kind != yaml.MappingNode {
		return fmt.Errorf("config must be a mapping")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

var eventKinds = []telemetry.EventKind{
	telemetry.EventEndorsed,
	telemetry.EventRenewed,
	telemetry.EventBankrupt,
	telemetry.EventRevoked,
	telemetry.EventRenewalLimit,
	telemetry.EventLapse,
	telemetry.EventRecovery,
	telemetry.EventCommitmentExpired,
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRegime:
		if a.Regime == "" {
			return fmt.Errorf("assertions[%d]: regime is required for regime", index)
		}
	case AssertTerminalCause:
		if a.Cause == "" {
			return fmt.Errorf("assertions[%d]: cause is required for terminal_cause", index)
		}
	case AssertSuccessions:
		if a.Min == nil && a.Max == nil {
			return fmt.Errorf("assertions[%d]: min or max is required for successions", index)
		}
		if a.Min != nil && a.Max != nil && *a.Min > *a.Max {
			return fmt.Errorf("assertions[%d]: min %d exceeds max %d", index, *a.Min, *a.Max)
		}
	case AssertEventCount:
		if !slices.Contains(eventKinds, telemetry.EventKind(a.Kind)) {
			return fmt.Errorf("assertions[%d]: unknown event kind %q", index, a.Kind)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for event_count", index)
		}
	case AssertNoBankruptcy, AssertDeterministic:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
