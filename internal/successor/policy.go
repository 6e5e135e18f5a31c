// Package successor defines the capability every successor policy must
// satisfy, plus the reference variants used by the default candidate
// catalog.
//
// The harness depends only on Policy. Variant bodies are free to keep
// private state; a fresh instance is created for every tenure.
package successor

import (
	"slices"

	"github.com/roach88/tenure/internal/eclass"
)

// Action is one emitted action. WAIT is an ordinary no-op record that
// costs zero steps.
type Action struct {
	Type  eclass.ActionType `json:"type"`
	Steps int               `json:"steps"`
}

// WaitAction is the canonical no-op.
var WaitAction = Action{Type: eclass.Wait}

// IsWait reports whether a is a no-op.
func (a Action) IsWait() bool {
	return a.Type == eclass.Wait
}

// Observation is the read-only view a policy receives each cycle.
// It is built from already-finalized state plus the open epoch's counters.
type Observation struct {
	Cycle       int
	Epoch       int
	EpochCycle  int
	EpochLength int

	EClass eclass.Class
	Rent   int

	StepsCap         int
	ActionsCap       int
	StepsRemaining   int
	ActionsRemaining int

	// Outstanding lists action types still required by live commitments
	// this epoch, in sorted order.
	Outstanding []eclass.ActionType

	// FailStreak is the policy's own semantic failure streak at epoch start.
	FailStreak int
}

// Policy is the successor capability: given the observable state, produce
// the next action, and expose a declared manifest.
type Policy interface {
	// ID is the stable identity eligibility is attributed to.
	ID() string

	// Manifest is the declared action surface. The expressivity class is
	// derived from it; nothing the policy says about its own class is read.
	Manifest() []eclass.ActionType

	// Decide returns the action for the current cycle.
	Decide(obs Observation) Action
}

// Factory creates a fresh policy instance for one tenure.
type Factory func() Policy

// Declares reports whether t is in the manifest of p.
func Declares(p Policy, t eclass.ActionType) bool {
	return slices.Contains(p.Manifest(), t)
}

// nextOutstanding returns the first outstanding type the manifest covers.
func nextOutstanding(manifest []eclass.ActionType, obs Observation) (eclass.ActionType, bool) {
	for _, t := range obs.Outstanding {
		if slices.Contains(manifest, t) {
			return t, true
		}
	}
	return "", false
}

// affordable reports whether a single action of steps fits the open epoch.
func affordable(obs Observation, steps int) bool {
	return obs.ActionsRemaining > 0 && obs.StepsRemaining >= steps
}
