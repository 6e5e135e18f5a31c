package successor

import (
	"github.com/roach88/tenure/internal/eclass"
)

// Variant identifiers used by the default catalog.
const (
	IDCompliant = "compliant"
	IDNearCap   = "near_cap"
	IDMinimal   = "minimal"
	IDViolator  = "violator"
	IDDelegator = "delegator"
	IDIdler     = "idler"
	IDGreedy    = "greedy"
)

var workingManifest = []eclass.ActionType{
	eclass.Wait, eclass.Log, eclass.StateGet, eclass.StateSet, eclass.Sequence,
}

// Compliant satisfies outstanding obligations at one step each and waits.
type Compliant struct{}

func (Compliant) ID() string                    { return IDCompliant }
func (Compliant) Manifest() []eclass.ActionType { return workingManifest }

func (Compliant) Decide(obs Observation) Action {
	if t, ok := nextOutstanding(workingManifest, obs); ok && affordable(obs, 1) {
		return Action{Type: t, Steps: 1}
	}
	return WaitAction
}

// NearCap is compliant-but-dangerous: it meets its obligations and then
// spends the remaining budget down to exactly zero, using every admitted
// action, without ever exceeding a declared limit.
type NearCap struct{}

func (NearCap) ID() string                    { return IDNearCap }
func (NearCap) Manifest() []eclass.ActionType { return workingManifest }

func (NearCap) Decide(obs Observation) Action {
	if t, ok := nextOutstanding(workingManifest, obs); ok && affordable(obs, 1) {
		return Action{Type: t, Steps: 1}
	}
	if obs.ActionsRemaining <= 0 || obs.StepsRemaining <= 0 {
		return WaitAction
	}
	// Spread the remainder over the cycles left so the last cycle lands on zero.
	cyclesLeft := max(1, obs.EpochLength-obs.EpochCycle)
	steps := max(1, obs.StepsRemaining/cyclesLeft)
	if cyclesLeft == 1 || obs.ActionsRemaining == 1 {
		steps = obs.StepsRemaining
	}
	return Action{Type: eclass.Sequence, Steps: steps}
}

// Minimal declares only E0 actions. It is cheap but cannot meet
// obligations that need state or composition.
type Minimal struct{}

var minimalManifest = []eclass.ActionType{eclass.Wait, eclass.Log}

func (Minimal) ID() string                    { return IDMinimal }
func (Minimal) Manifest() []eclass.ActionType { return minimalManifest }

func (Minimal) Decide(obs Observation) Action {
	if t, ok := nextOutstanding(minimalManifest, obs); ok && affordable(obs, 1) {
		return Action{Type: t, Steps: 1}
	}
	return WaitAction
}

// Violator behaves compliantly but, every Every-th epoch of its tenure,
// emits an undeclared DELEGATE. That is a structural manifest violation.
type Violator struct {
	Every int

	startEpoch int
	started    bool
	lastFired  int
}

// NewViolator returns a violator firing every n epochs (n < 1 means 1).
func NewViolator(n int) *Violator {
	return &Violator{Every: max(1, n), lastFired: -1}
}

func (*Violator) ID() string                    { return IDViolator }
func (*Violator) Manifest() []eclass.ActionType { return workingManifest }

func (v *Violator) Decide(obs Observation) Action {
	if !v.started {
		v.started, v.startEpoch = true, obs.Epoch
	}
	rel := obs.Epoch - v.startEpoch
	if (rel+1)%v.Every == 0 && v.lastFired != obs.Epoch && affordable(obs, 1) {
		v.lastFired = obs.Epoch
		return Action{Type: eclass.Delegate, Steps: 1}
	}
	return Compliant{}.Decide(obs)
}

// Delegator openly declares delegation. It pays E4 rent for it and
// otherwise behaves like Compliant, delegating once per epoch.
type Delegator struct {
	lastDelegated int
	primed        bool
}

var delegatorManifest = append(append([]eclass.ActionType{}, workingManifest...), eclass.Delegate)

func (*Delegator) ID() string                    { return IDDelegator }
func (*Delegator) Manifest() []eclass.ActionType { return delegatorManifest }

func (d *Delegator) Decide(obs Observation) Action {
	if t, ok := nextOutstanding(delegatorManifest, obs); ok && affordable(obs, 1) {
		return Action{Type: t, Steps: 1}
	}
	if (!d.primed || d.lastDelegated != obs.Epoch) && affordable(obs, 1) {
		d.primed, d.lastDelegated = true, obs.Epoch
		return Action{Type: eclass.Delegate, Steps: 1}
	}
	return WaitAction
}

// Idler never acts.
type Idler struct{}

func (Idler) ID() string                    { return IDIdler }
func (Idler) Manifest() []eclass.ActionType { return minimalManifest }
func (Idler) Decide(Observation) Action     { return WaitAction }

// Greedy requests more steps than remain once its obligations are done,
// exhausting its budget.
type Greedy struct{}

func (Greedy) ID() string                    { return IDGreedy }
func (Greedy) Manifest() []eclass.ActionType { return workingManifest }

func (Greedy) Decide(obs Observation) Action {
	if t, ok := nextOutstanding(workingManifest, obs); ok && affordable(obs, 1) {
		return Action{Type: t, Steps: 1}
	}
	if obs.ActionsRemaining <= 0 {
		return WaitAction
	}
	return Action{Type: eclass.Sequence, Steps: obs.StepsRemaining + 1}
}

// Factories returns the reference variants keyed by ID.
func Factories() map[string]Factory {
	return map[string]Factory{
		IDCompliant: func() Policy { return Compliant{} },
		IDNearCap:   func() Policy { return NearCap{} },
		IDMinimal:   func() Policy { return Minimal{} },
		IDViolator:  func() Policy { return NewViolator(3) },
		IDDelegator: func() Policy { return &Delegator{} },
		IDIdler:     func() Policy { return Idler{} },
		IDGreedy:    func() Policy { return Greedy{} },
	}
}
