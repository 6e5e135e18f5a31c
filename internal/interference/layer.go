package interference

import (
	"slices"

	"github.com/roach88/tenure/internal/commitment"
	"github.com/roach88/tenure/internal/eclass"
	"github.com/roach88/tenure/internal/successor"
)

// Layer decorates one run's action stream with a model.
//
// Every emitted action goes into the true log unchanged. The observed
// view starts as a copy of the true log and receives the model's
// injections at epoch end; renewal and commitment judgment read only the
// observed view, attribution and telemetry read only the true log.
type Layer struct {
	model  Model
	target string

	trueLog  []successor.Action
	observed []successor.Action
	effect   Effect
	trace    []int
}

// NewLayer wraps model, perturbing the commitment named target.
func NewLayer(model Model, target string) *Layer {
	if model == nil {
		model = None{}
	}
	return &Layer{model: model, target: target}
}

// Model returns the wrapped model.
func (l *Layer) Model() Model {
	return l.model
}

// Target returns the perturbed commitment key.
func (l *Layer) Target() string {
	return l.target
}

// BeginEpoch clears the per-epoch logs.
func (l *Layer) BeginEpoch() {
	l.trueLog = l.trueLog[:0]
	l.observed = l.observed[:0]
	l.effect = Effect{}
}

// Record passes one executed action through the layer.
func (l *Layer) Record(a successor.Action) {
	l.trueLog = append(l.trueLog, a)
	l.observed = append(l.observed, a)
}

// EndEpoch advances the model once and applies its output to the
// observed view. It returns the effect and the post-transition state.
func (l *Layer) EndEpoch(o Observable) (Effect, int) {
	l.effect = l.model.Step(o)
	if l.effect.InjectInvalid {
		l.observed = append(l.observed, successor.Action{Type: eclass.Invalid})
	}
	state := l.model.State()
	l.trace = append(l.trace, state)
	return l.effect, state
}

// TrueLog returns a copy of the epoch's executed actions.
func (l *Layer) TrueLog() []successor.Action {
	return slices.Clone(l.trueLog)
}

// Observed returns a copy of the epoch's observed view.
func (l *Layer) Observed() []successor.Action {
	return slices.Clone(l.observed)
}

// ObservedTypes returns the action types of the observed view.
func (l *Layer) ObservedTypes() []eclass.ActionType {
	return Types(l.observed)
}

// Observer returns the verdict hook for commitment evaluation under the
// current epoch's effect.
func (l *Layer) Observer() commitment.Observer {
	effect, target := l.effect, l.target
	return func(key string, satisfied bool) bool {
		if key != target {
			return satisfied
		}
		if effect.FailTarget {
			return false
		}
		if effect.FlipTarget {
			return !satisfied
		}
		return satisfied
	}
}

// Trace returns the model state after every epoch so far.
func (l *Layer) Trace() []int {
	return slices.Clone(l.trace)
}

// Types extracts the action types of a log, in order.
func Types(log []successor.Action) []eclass.ActionType {
	out := make([]eclass.ActionType, len(log))
	for i, a := range log {
		out[i] = a.Type
	}
	return out
}

// Undeclared returns the non-WAIT types in log missing from p's manifest.
func Undeclared(log []successor.Action, p successor.Policy) []eclass.ActionType {
	var out []eclass.ActionType
	for _, a := range log {
		if a.IsWait() || successor.Declares(p, a.Type) || slices.Contains(out, a.Type) {
			continue
		}
		out = append(out, a.Type)
	}
	return out
}
