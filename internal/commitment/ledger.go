// Package commitment implements the commitment ledger: a fixed set of
// obligations seeded once, each with a per-epoch cost, a TTL in epochs and
// an epoch-end verdict over that epoch's action log.
//
// Lifecycle of one commitment:
//
//	ACTIVE ⇄ SATISFIED   (re-judged at every epoch end while within TTL)
//	   └──────────┴──→ EXPIRED   (once, after its TTL-th epoch; cost is zero forever)
//
// The ledger is never re-seeded. Evaluation happens only at epoch end and
// strictly in epoch order.
package commitment

import (
	"fmt"
	"slices"

	"github.com/roach88/tenure/internal/contract"
	"github.com/roach88/tenure/internal/eclass"
)

// Status of one commitment.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSatisfied Status = "SATISFIED"
	StatusExpired   Status = "EXPIRED"
)

// Spec declares one commitment to seed.
type Spec struct {
	Key       string    `yaml:"key" json:"key"`
	Predicate Predicate `yaml:"predicate" json:"predicate"`
	TTL       int       `yaml:"ttl,omitempty" json:"ttl,omitempty"`
	Cost      int       `yaml:"cost" json:"cost"`
}

// DefaultSpecs is the obligation set seeded when none is configured.
// TTL 0 inherits the configured default.
func DefaultSpecs() []Spec {
	return []Spec{
		{Key: "C0_LOG", Predicate: Predicate{Kind: RequiresCount, Types: []eclass.ActionType{eclass.Log}, Count: 1}, Cost: 1},
		{Key: "C1_STATE", Predicate: Predicate{Kind: RequiresAll, Types: []eclass.ActionType{eclass.StateSet, eclass.StateGet}}, Cost: 2},
		{Key: "C2_COMPOSE", Predicate: Predicate{Kind: RequiresAny, Types: []eclass.ActionType{eclass.Sequence, eclass.Batch}}, Cost: 3},
	}
}

// Commitment is one seeded obligation.
type Commitment struct {
	Key       string
	Predicate Predicate
	TTL       int
	Cost      int
	Status    Status

	SeededEpoch  int
	ExpiredEpoch int // -1 while not expired

	Satisfactions int
	Failures      int
}

// live reports whether the commitment still binds at epoch.
func (c *Commitment) live(epoch int) bool {
	return c.Status != StatusExpired && epoch-c.SeededEpoch < c.TTL
}

// Observer maps a true verdict to the verdict the judging components see.
// The interference layer supplies one; nil means pass-through.
type Observer func(key string, satisfied bool) bool

// Verdict is one commitment's judgment for one epoch.
type Verdict struct {
	Key       string
	Satisfied bool // true verdict from the action log
	Observed  bool // verdict after interference
}

// Evaluation is the epoch-end outcome of the whole ledger.
type Evaluation struct {
	Epoch    int
	Verdicts []Verdict

	// Expired lists keys that transitioned to EXPIRED at this evaluation.
	Expired []string
}

// Evaluated is the number of commitments judged this epoch.
func (e Evaluation) Evaluated() int {
	return len(e.Verdicts)
}

// Satisfied is the number of observed-satisfied verdicts.
func (e Evaluation) Satisfied() int {
	n := 0
	for _, v := range e.Verdicts {
		if v.Observed {
			n++
		}
	}
	return n
}

// Pass reports whether every judged commitment was observed satisfied.
// An epoch with nothing to judge is neither pass nor fail: ok is false.
func (e Evaluation) Pass() (pass, ok bool) {
	if len(e.Verdicts) == 0 {
		return false, false
	}
	return e.Satisfied() == len(e.Verdicts), true
}

// Ledger tracks the seeded commitment set.
type Ledger struct {
	commitments   []*Commitment
	costCap       int
	defaultTTL    int
	seeded        bool
	lastEvaluated int
}

// NewLedger creates an empty ledger. costCap < 1 disables the clamp.
func NewLedger(costCap, defaultTTL int) *Ledger {
	return &Ledger{costCap: costCap, defaultTTL: defaultTTL, lastEvaluated: -1}
}

// Seed installs the obligation set at epoch. It may be called once.
func (l *Ledger) Seed(specs []Spec, epoch int) error {
	if l.seeded {
		return contract.New(contract.CodeLedgerReseeded, epoch, "ledger already seeded with %d commitments", len(l.commitments))
	}
	seen := make(map[string]bool, len(specs))
	commitments := make([]*Commitment, 0, len(specs))
	for i, s := range specs {
		if s.Key == "" {
			return fmt.Errorf("commitment[%d]: key is required", i)
		}
		if seen[s.Key] {
			return fmt.Errorf("commitment[%d]: duplicate key %q", i, s.Key)
		}
		seen[s.Key] = true
		if err := s.Predicate.Validate(); err != nil {
			return fmt.Errorf("commitment %q: %w", s.Key, err)
		}
		if s.Cost < 0 {
			return fmt.Errorf("commitment %q: cost must be non-negative", s.Key)
		}
		ttl := s.TTL
		if ttl == 0 {
			ttl = l.defaultTTL
		}
		if ttl < 1 {
			return fmt.Errorf("commitment %q: ttl must be at least 1", s.Key)
		}
		commitments = append(commitments, &Commitment{
			Key:          s.Key,
			Predicate:    s.Predicate,
			TTL:          ttl,
			Cost:         s.Cost,
			Status:       StatusActive,
			SeededEpoch:  epoch,
			ExpiredEpoch: -1,
		})
	}
	l.commitments = commitments
	l.seeded = true
	return nil
}

// Cost returns the obligation cost charged in epoch, after rent.
// Expired commitments contribute zero; the sum is clamped to the cost cap.
func (l *Ledger) Cost(epoch int) int {
	total := 0
	for _, c := range l.commitments {
		if c.live(epoch) {
			total += c.Cost
		}
	}
	if l.costCap > 0 && total > l.costCap {
		return l.costCap
	}
	return total
}

// Outstanding returns the sorted union of types still needed by live
// commitments given the epoch's actions so far.
func (l *Ledger) Outstanding(epoch int, types []eclass.ActionType) []eclass.ActionType {
	counts := Tally(types)
	var out []eclass.ActionType
	for _, c := range l.commitments {
		if !c.live(epoch) {
			continue
		}
		for _, t := range c.Predicate.Outstanding(counts) {
			if !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	slices.Sort(out)
	return out
}

// Evaluate judges every live commitment against the epoch's action types.
// It must be called exactly once per epoch, in increasing epoch order,
// after the epoch has closed.
func (l *Ledger) Evaluate(epoch int, types []eclass.ActionType, observe Observer) (Evaluation, error) {
	if epoch <= l.lastEvaluated {
		return Evaluation{}, contract.New(contract.CodeEvaluationOrder, epoch,
			"evaluation for epoch %d after epoch %d", epoch, l.lastEvaluated)
	}
	l.lastEvaluated = epoch

	counts := Tally(types)
	ev := Evaluation{Epoch: epoch}
	for _, c := range l.commitments {
		if !c.live(epoch) {
			continue
		}
		truth := c.Predicate.Satisfied(counts)
		seen := truth
		if observe != nil {
			seen = observe(c.Key, truth)
		}
		ev.Verdicts = append(ev.Verdicts, Verdict{Key: c.Key, Satisfied: truth, Observed: seen})

		if seen {
			c.Status = StatusSatisfied
			c.Satisfactions++
		} else {
			c.Status = StatusActive
			c.Failures++
		}

		if epoch-c.SeededEpoch+1 >= c.TTL {
			c.Status = StatusExpired
			c.ExpiredEpoch = epoch
			c.Cost = 0
			ev.Expired = append(ev.Expired, c.Key)
		}
	}
	return ev, nil
}

// Keys returns commitment keys in seed order.
func (l *Ledger) Keys() []string {
	keys := make([]string, len(l.commitments))
	for i, c := range l.commitments {
		keys[i] = c.Key
	}
	return keys
}

// Get returns a copy of one commitment.
func (l *Ledger) Get(key string) (Commitment, bool) {
	for _, c := range l.commitments {
		if c.Key == key {
			return *c, true
		}
	}
	return Commitment{}, false
}

// Live reports how many commitments still bind at epoch.
func (l *Ledger) Live(epoch int) int {
	n := 0
	for _, c := range l.commitments {
		if c.live(epoch) {
			n++
		}
	}
	return n
}
