// Package rent maps expressivity classes to per-epoch budget deductions.
//
// rent(E0) is a fixed metabolic minimum independent of the step cap;
// rent(Ek) = ceil(fraction(Ek) × S) for k ≥ 1. A Schedule is only
// constructed when rents strictly increase with class and every class is
// left at least one effective step.
package rent

import (
	"fmt"
	"math"

	"github.com/roach88/tenure/internal/eclass"
)

// DefaultMetabolicMinimum is rent(E0) when none is configured.
const DefaultMetabolicMinimum = 1

// DefaultFractions are the fractions of the step cap charged for E1..E4.
var DefaultFractions = Fractions{
	eclass.E1: 0.10,
	eclass.E2: 0.25,
	eclass.E3: 0.40,
	eclass.E4: 0.60,
}

// Fractions holds the rent fraction per class E1..E4. E0 is ignored.
type Fractions map[eclass.Class]float64

// ScheduleError reports an infeasible or non-monotonic rent configuration.
// It is a configuration error, never an experimental outcome.
type ScheduleError struct {
	Class  eclass.Class
	Reason string
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("rent schedule: %s: %s", e.Class, e.Reason)
}

// Entry is one resolved row of the schedule.
type Entry struct {
	Class          eclass.Class `json:"e_class"`
	Fraction       float64      `json:"fraction,omitempty"`
	Rent           int          `json:"rent"`
	EffectiveSteps int          `json:"effective_steps"`
}

// Schedule is an immutable, validated rent table for one step cap.
type Schedule struct {
	stepsCap  int
	fractions Fractions
	rents     [len(eclass.All)]int
}

// New validates the fractions against stepsCap and resolves the table.
func New(stepsCap, metabolicMinimum int, fractions Fractions) (*Schedule, error) {
	if stepsCap < 2 {
		return nil, &ScheduleError{Class: eclass.E0, Reason: fmt.Sprintf("steps cap %d leaves no room for rent", stepsCap)}
	}
	if metabolicMinimum < 1 {
		return nil, &ScheduleError{Class: eclass.E0, Reason: fmt.Sprintf("metabolic minimum %d must be at least 1", metabolicMinimum)}
	}

	s := &Schedule{stepsCap: stepsCap, fractions: make(Fractions, len(fractions))}
	s.rents[eclass.E0] = metabolicMinimum

	prevFraction := 0.0
	for _, c := range eclass.All[1:] {
		f, ok := fractions[c]
		if !ok {
			return nil, &ScheduleError{Class: c, Reason: "fraction missing"}
		}
		if math.IsNaN(f) || f <= 0 || f >= 1 {
			return nil, &ScheduleError{Class: c, Reason: fmt.Sprintf("fraction %v outside (0,1)", f)}
		}
		if f <= prevFraction {
			return nil, &ScheduleError{Class: c, Reason: fmt.Sprintf("fraction %v not greater than %s fraction %v", f, c-1, prevFraction)}
		}
		prevFraction = f
		s.fractions[c] = f
		// The epsilon absorbs float noise in products such as 0.1×S.
		s.rents[c] = int(math.Ceil(f*float64(stepsCap) - 1e-9))
	}

	for _, c := range eclass.All {
		r := s.rents[c]
		if r > stepsCap-1 {
			return nil, &ScheduleError{Class: c, Reason: fmt.Sprintf("rent %d leaves fewer than 1 effective step of %d", r, stepsCap)}
		}
		if c > eclass.E0 && r <= s.rents[c-1] {
			return nil, &ScheduleError{Class: c, Reason: fmt.Sprintf("rent %d not greater than %s rent %d", r, c-1, s.rents[c-1])}
		}
	}
	return s, nil
}

// StepsCap returns the per-epoch step cap the table was resolved against.
func (s *Schedule) StepsCap() int {
	return s.stepsCap
}

// Rent returns the per-epoch deduction for class c.
// Invalid classes are charged as the maximal class.
func (s *Schedule) Rent(c eclass.Class) int {
	if !c.Valid() {
		c = eclass.Max
	}
	return s.rents[c]
}

// EffectiveSteps returns max(0, S − rent(c)).
func (s *Schedule) EffectiveSteps(c eclass.Class) int {
	return max(0, s.stepsCap-s.Rent(c))
}

// Table returns the resolved schedule in class order.
func (s *Schedule) Table() []Entry {
	out := make([]Entry, 0, len(eclass.All))
	for _, c := range eclass.All {
		out = append(out, Entry{
			Class:          c,
			Fraction:       s.fractions[c],
			Rent:           s.rents[c],
			EffectiveSteps: s.EffectiveSteps(c),
		})
	}
	return out
}
