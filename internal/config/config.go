// Package config defines the run configuration record, its defaults and
// its validation.
//
// Files may be YAML (or JSON) or CUE. Every loaded configuration is laid
// over Default, checked against the embedded CUE schema and then against
// the Go-side rules that need domain knowledge (rent feasibility,
// predicate shape).
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tenure/internal/canon"
	"github.com/roach88/tenure/internal/commitment"
	"github.com/roach88/tenure/internal/eclass"
	"github.com/roach88/tenure/internal/interference"
	"github.com/roach88/tenure/internal/rent"
	"github.com/roach88/tenure/internal/succession"
)

// Stop selects the opt-in stop conditions.
type Stop struct {
	OnBankruptcy     bool `yaml:"on_bankruptcy" json:"on_bankruptcy"`
	OnRevocation     bool `yaml:"on_revocation" json:"on_revocation"`
	OnRenewalFailure bool `yaml:"on_renewal_failure" json:"on_renewal_failure"`
}

// Config is the full run configuration.
type Config struct {
	// Horizon is the maximum number of cycles in a run.
	Horizon     int `yaml:"horizon" json:"horizon"`
	EpochLength int `yaml:"epoch_length" json:"epoch_length"`

	StepsCap         int                `yaml:"steps_cap_epoch" json:"steps_cap_epoch"`
	ActionsCap       int                `yaml:"actions_cap_epoch" json:"actions_cap_epoch"`
	MetabolicMinimum int                `yaml:"metabolic_minimum" json:"metabolic_minimum"`
	RentFractions    map[string]float64 `yaml:"rent_fractions" json:"rent_fractions"`

	// RenewalCheckInterval is in cycles, independent of epoch length.
	RenewalCheckInterval int `yaml:"renewal_check_interval" json:"renewal_check_interval"`
	MaxRenewals          int `yaml:"max_successive_renewals" json:"max_successive_renewals"`

	EligibilityThreshold int    `yaml:"eligibility_threshold_k" json:"eligibility_threshold_k"`
	MaxSuccessionRetries int    `yaml:"max_succession_retries" json:"max_succession_retries"`
	MaxEClass            string `yaml:"max_eclass" json:"max_eclass"`

	CommitmentTTL     int               `yaml:"commitment_ttl" json:"commitment_ttl"`
	CommitmentCostCap int               `yaml:"commitment_cost_cap" json:"commitment_cost_cap"`
	Commitments       []commitment.Spec `yaml:"commitments,omitempty" json:"commitments,omitempty"`

	CandidateWeights map[string]int      `yaml:"candidate_weights" json:"candidate_weights"`

	// Policy pins every succession to one catalog variant and bypasses the
	// weights. Empty draws by weight.
	Policy string `yaml:"policy,omitempty" json:"policy,omitempty"`

	Interference     interference.Config `yaml:"interference" json:"interference"`

	// DegeneracyWindow is the number of consecutive idle epochs that ends
	// a run. Zero disables the check.
	DegeneracyWindow int  `yaml:"degeneracy_window" json:"degeneracy_window"`
	Stop             Stop `yaml:"stop" json:"stop"`
}

// Default returns the baseline configuration.
func Default() Config {
	fractions := make(map[string]float64, len(rent.DefaultFractions))
	for c, f := range rent.DefaultFractions {
		fractions[c.String()] = f
	}
	return Config{
		Horizon:              3000,
		EpochLength:          10,
		StepsCap:             200,
		ActionsCap:           10,
		MetabolicMinimum:     rent.DefaultMetabolicMinimum,
		RentFractions:        fractions,
		RenewalCheckInterval: 90,
		MaxRenewals:          10,
		EligibilityThreshold: 3,
		MaxSuccessionRetries: succession.DefaultMaxRetries,
		MaxEClass:            eclass.Max.String(),
		CommitmentTTL:        100,
		CommitmentCostCap:    10,
		CandidateWeights:     succession.DefaultWeights(),
		Interference:         interference.Config{Model: interference.ModelNone},
		DegeneracyWindow:     10,
	}
}

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Fractions resolves the rent fraction table.
func (c Config) Fractions() (rent.Fractions, error) {
	out := make(rent.Fractions, len(c.RentFractions))
	for k, f := range c.RentFractions {
		class, err := eclass.Parse(k)
		if err != nil || class == eclass.E0 {
			return nil, invalid("rent_fractions", "unknown class %q (want E1..E4)", k)
		}
		out[class] = f
	}
	return out, nil
}

// Schedule builds the rent schedule. Errors are *rent.ScheduleError or
// *ValidationError.
func (c Config) Schedule() (*rent.Schedule, error) {
	fractions, err := c.Fractions()
	if err != nil {
		return nil, err
	}
	return rent.New(c.StepsCap, c.MetabolicMinimum, fractions)
}

// Tier returns the parsed tier ceiling.
func (c Config) Tier() (eclass.Class, error) {
	class, err := eclass.Parse(c.MaxEClass)
	if err != nil {
		return 0, invalid("max_eclass", "%v", err)
	}
	return class, nil
}

// Specs returns the commitments to seed.
func (c Config) Specs() []commitment.Spec {
	if len(c.Commitments) == 0 {
		return commitment.DefaultSpecs()
	}
	return slices.Clone(c.Commitments)
}

// Epochs is the number of whole or partial epochs in the horizon.
func (c Config) Epochs() int {
	if c.EpochLength < 1 {
		return 0
	}
	return (c.Horizon + c.EpochLength - 1) / c.EpochLength
}

// Validate checks every rule that can be checked without running.
func (c Config) Validate() error {
	switch {
	case c.Horizon < 1:
		return invalid("horizon", "must be at least 1, got %d", c.Horizon)
	case c.EpochLength < 1:
		return invalid("epoch_length", "must be at least 1, got %d", c.EpochLength)
	case c.ActionsCap < 1:
		return invalid("actions_cap_epoch", "must be at least 1, got %d", c.ActionsCap)
	case c.RenewalCheckInterval < 0:
		return invalid("renewal_check_interval", "must be non-negative")
	case c.MaxRenewals < 0:
		return invalid("max_successive_renewals", "must be non-negative")
	case c.EligibilityThreshold < 1:
		return invalid("eligibility_threshold_k", "must be at least 1, got %d", c.EligibilityThreshold)
	case c.MaxSuccessionRetries < 1:
		return invalid("max_succession_retries", "must be at least 1, got %d", c.MaxSuccessionRetries)
	case c.CommitmentTTL < 1:
		return invalid("commitment_ttl", "must be at least 1, got %d", c.CommitmentTTL)
	case c.CommitmentCostCap < 0:
		return invalid("commitment_cost_cap", "must be non-negative")
	case c.DegeneracyWindow < 0:
		return invalid("degeneracy_window", "must be non-negative")
	}
	if _, err := c.Schedule(); err != nil {
		return err
	}
	if _, err := c.Tier(); err != nil {
		return err
	}
	if err := commitment.NewLedger(c.CommitmentCostCap, c.CommitmentTTL).Seed(c.Specs(), 0); err != nil {
		return invalid("commitments", "%v", err)
	}
	if err := c.Interference.Validate(); err != nil {
		return invalid("interference", "%v", err)
	}
	if t := c.Interference.Target; t != "" && !slices.ContainsFunc(c.Specs(), func(s commitment.Spec) bool { return s.Key == t }) {
		return invalid("interference.target", "no commitment named %q", t)
	}
	total := 0
	for id, w := range c.CandidateWeights {
		if w < 0 {
			return invalid("candidate_weights", "%q has negative weight", id)
		}
		total += w
	}
	if total == 0 {
		return invalid("candidate_weights", "at least one positive weight required")
	}
	return nil
}

// Canon returns the canonical form hashed by Digest.
func (c Config) Canon() canon.Object {
	fractions := canon.Object{}
	for k, f := range c.RentFractions {
		fractions[k] = canon.FormatFloat(f)
	}
	weights := canon.Object{}
	for id, w := range c.CandidateWeights {
		weights[id] = canon.Int(w)
	}
	specs := canon.Array{}
	for _, s := range c.Specs() {
		types := make([]string, len(s.Predicate.Types))
		for i, t := range s.Predicate.Types {
			types[i] = string(t)
		}
		specs = append(specs, canon.Obj(
			canon.P("key", canon.String(s.Key)),
			canon.P("kind", canon.String(s.Predicate.Kind)),
			canon.P("types", canon.Strings(types)),
			canon.P("count", canon.Int(s.Predicate.Count)),
			canon.P("ttl", canon.Int(s.TTL)),
			canon.P("cost", canon.Int(s.Cost)),
		))
	}
	return canon.Obj(
		canon.P("horizon", canon.Int(c.Horizon)),
		canon.P("epoch_length", canon.Int(c.EpochLength)),
		canon.P("steps_cap_epoch", canon.Int(c.StepsCap)),
		canon.P("actions_cap_epoch", canon.Int(c.ActionsCap)),
		canon.P("metabolic_minimum", canon.Int(c.MetabolicMinimum)),
		canon.P("rent_fractions", fractions),
		canon.P("renewal_check_interval", canon.Int(c.RenewalCheckInterval)),
		canon.P("max_successive_renewals", canon.Int(c.MaxRenewals)),
		canon.P("eligibility_threshold_k", canon.Int(c.EligibilityThreshold)),
		canon.P("max_succession_retries", canon.Int(c.MaxSuccessionRetries)),
		canon.P("max_eclass", canon.String(c.MaxEClass)),
		canon.P("commitment_ttl", canon.Int(c.CommitmentTTL)),
		canon.P("commitment_cost_cap", canon.Int(c.CommitmentCostCap)),
		canon.P("commitments", specs),
		canon.P("candidate_weights", weights),
		canon.P("policy", canon.String(c.Policy)),
		canon.P("interference", canon.Obj(
			canon.P("model", canon.String(strings.ToLower(c.Interference.Model))),
			canon.P("flip_rate", canon.FormatFloat(c.Interference.FlipRate)),
			canon.P("period", canon.Int(c.Interference.Period)),
			canon.P("target", canon.String(c.Interference.Target)),
		)),
		canon.P("degeneracy_window", canon.Int(c.DegeneracyWindow)),
		canon.P("stop", canon.Obj(
			canon.P("on_bankruptcy", canon.Bool(c.Stop.OnBankruptcy)),
			canon.P("on_revocation", canon.Bool(c.Stop.OnRevocation)),
			canon.P("on_renewal_failure", canon.Bool(c.Stop.OnRenewalFailure)),
		)),
	)
}

// Digest is the content hash of the configuration.
func (c Config) Digest() (string, error) {
	return canon.Digest(canon.DomainConfig, c.Canon())
}
