package commitment

import (
	"fmt"
	"slices"

	"github.com/roach88/tenure/internal/eclass"
)

// PredicateKind selects how a commitment judges an epoch's action log.
type PredicateKind string

const (
	// RequiresAll is satisfied when every listed type occurs at least once.
	RequiresAll PredicateKind = "requires_all"

	// RequiresAny is satisfied when at least one listed type occurs.
	RequiresAny PredicateKind = "requires_any"

	// RequiresCount is satisfied when the single listed type occurs Count times.
	RequiresCount PredicateKind = "requires_count"
)

// Predicate is an obligation over the multiset of an epoch's action types.
// Predicates never look at ordering, so verdicts do not depend on the
// order actions were emitted within the epoch.
type Predicate struct {
	Kind  PredicateKind       `yaml:"kind" json:"kind"`
	Types []eclass.ActionType `yaml:"types" json:"types"`
	Count int                 `yaml:"count,omitempty" json:"count,omitempty"`
}

// Validate checks the predicate is well formed.
func (p Predicate) Validate() error {
	if len(p.Types) == 0 {
		return fmt.Errorf("predicate %s: types must be non-empty", p.Kind)
	}
	for _, t := range p.Types {
		if t == eclass.Wait {
			return fmt.Errorf("predicate %s: WAIT cannot be required", p.Kind)
		}
		if !eclass.Known(t) {
			return fmt.Errorf("predicate %s: unknown action type %q", p.Kind, t)
		}
	}
	switch p.Kind {
	case RequiresAll, RequiresAny:
	case RequiresCount:
		if len(p.Types) != 1 {
			return fmt.Errorf("predicate %s: exactly one type required, got %d", p.Kind, len(p.Types))
		}
		if p.Count < 1 {
			return fmt.Errorf("predicate %s: count must be at least 1", p.Kind)
		}
	default:
		return fmt.Errorf("unknown predicate kind %q", p.Kind)
	}
	return nil
}

// Satisfied judges the predicate against per-type occurrence counts.
func (p Predicate) Satisfied(counts map[eclass.ActionType]int) bool {
	switch p.Kind {
	case RequiresAll:
		for _, t := range p.Types {
			if counts[t] == 0 {
				return false
			}
		}
		return true
	case RequiresAny:
		for _, t := range p.Types {
			if counts[t] > 0 {
				return true
			}
		}
		return false
	case RequiresCount:
		return counts[p.Types[0]] >= p.Count
	}
	return false
}

// Outstanding lists the types whose emission would move the predicate
// toward satisfaction. Empty once satisfied.
func (p Predicate) Outstanding(counts map[eclass.ActionType]int) []eclass.ActionType {
	if p.Satisfied(counts) {
		return nil
	}
	switch p.Kind {
	case RequiresAll:
		var out []eclass.ActionType
		for _, t := range p.Types {
			if counts[t] == 0 {
				out = append(out, t)
			}
		}
		return out
	case RequiresAny, RequiresCount:
		return slices.Clone(p.Types[:1])
	}
	return nil
}

// Tally counts action types. WAIT records are ignored.
func Tally(types []eclass.ActionType) map[eclass.ActionType]int {
	counts := make(map[eclass.ActionType]int, len(types))
	for _, t := range types {
		if t == eclass.Wait {
			continue
		}
		counts[t]++
	}
	return counts
}
