// Package interference implements deterministic adversarial models that
// perturb what the judging components observe about a tenure, without
// ever touching the true action log.
//
// A model advances exactly once per epoch. Its transition and output
// depend only on its prior state and the current Observable.
package interference

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Model names accepted in configuration.
const (
	ModelNone     = "none"
	ModelFlip     = "flip"
	ModelPeriodic = "periodic"
	ModelToggle   = "toggle"
)

// Observable is what a model may see at an epoch boundary.
type Observable struct {
	Epoch     int
	Active    bool // a tenure held authority at epoch end
	Streak    int  // the holder's semantic failure streak before this epoch's update
	Threshold int  // eligibility threshold K
}

// Effect is a model's output for one epoch.
type Effect struct {
	// InjectInvalid appends an INVALID action to the observed view.
	InjectInvalid bool

	// FlipTarget inverts the target commitment's observed verdict.
	FlipTarget bool

	// FailTarget forces the target commitment's observed verdict false.
	FailTarget bool
}

// Model is a declared deterministic adversary.
type Model interface {
	Name() string

	// States is the declared internal state domain.
	States() []int

	// State is the current internal state.
	State() int

	// Step applies the transition for one epoch and returns its output.
	Step(o Observable) Effect
}

// Config selects and parameterizes a model.
type Config struct {
	Model    string  `yaml:"model" json:"model"`
	FlipRate float64 `yaml:"flip_rate,omitempty" json:"flip_rate,omitempty"`
	Period   int     `yaml:"period,omitempty" json:"period,omitempty"`

	// Target is the commitment key whose signal is perturbed. Empty means
	// the first seeded commitment.
	Target string `yaml:"target,omitempty" json:"target,omitempty"`
}

// Validate checks the model parameters.
func (c Config) Validate() error {
	switch strings.ToLower(c.Model) {
	case "", ModelNone, ModelToggle:
		return nil
	case ModelFlip:
		if c.FlipRate < 0 || c.FlipRate > 1 {
			return fmt.Errorf("flip_rate %v outside [0,1]", c.FlipRate)
		}
		return nil
	case ModelPeriodic:
		if c.Period < 1 {
			return fmt.Errorf("period must be at least 1, got %d", c.Period)
		}
		return nil
	default:
		return fmt.Errorf("unknown interference model %q", c.Model)
	}
}

// New builds the configured model. r is the run's interference stream and
// is only drawn from by probabilistic models.
func New(c Config, r *rand.Rand) (Model, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(c.Model) {
	case ModelFlip:
		return &Flip{Rate: c.FlipRate, rng: r}, nil
	case ModelPeriodic:
		return &Periodic{Period: c.Period}, nil
	case ModelToggle:
		return &Toggle{}, nil
	default:
		return None{}, nil
	}
}

// None is the pass-through model.
type None struct{}

func (None) Name() string           { return ModelNone }
func (None) States() []int          { return []int{0} }
func (None) State() int             { return 0 }
func (None) Step(Observable) Effect { return Effect{} }

// Flip inverts the target signal with probability Rate at each evaluation
// point. State records whether the last step flipped.
type Flip struct {
	Rate float64

	rng     *rand.Rand
	flipped bool
}

func (*Flip) Name() string  { return ModelFlip }
func (*Flip) States() []int { return []int{0, 1} }

func (f *Flip) State() int {
	if f.flipped {
		return 1
	}
	return 0
}

func (f *Flip) Step(Observable) Effect {
	// Always draw so the stream position depends only on the epoch count.
	f.flipped = f.rng.Float64() < f.Rate
	return Effect{FlipTarget: f.flipped}
}

// Periodic is a counter modulo Period. It emits INVALID in the epoch where
// the counter reads Period-1.
type Periodic struct {
	Period int

	counter int
}

func (*Periodic) Name() string { return ModelPeriodic }

func (p *Periodic) States() []int {
	states := make([]int, p.Period)
	for i := range states {
		states[i] = i
	}
	return states
}

func (p *Periodic) State() int { return p.counter }

func (p *Periodic) Step(Observable) Effect {
	fire := p.counter == p.Period-1
	p.counter = (p.counter + 1) % p.Period
	return Effect{InjectInvalid: fire}
}

// Toggle is a one-bit adversary keyed to the eligibility boundary:
// o = streak ≥ K-1, b' = b XOR o. While b' is set the target signal is
// forced false.
type Toggle struct {
	bit bool
}

func (*Toggle) Name() string  { return ModelToggle }
func (*Toggle) States() []int { return []int{0, 1} }

func (t *Toggle) State() int {
	if t.bit {
		return 1
	}
	return 0
}

func (t *Toggle) Step(o Observable) Effect {
	near := o.Active && o.Threshold > 0 && o.Streak >= o.Threshold-1
	t.bit = t.bit != near
	return Effect{FailTarget: t.bit}
}
