package succession

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/roach88/tenure/internal/eclass"
	"github.com/roach88/tenure/internal/successor"
)

// Candidate is a proposed successor. EClass is always derived from the
// manifest by NewCandidate.
type Candidate struct {
	PolicyID string
	Manifest []eclass.ActionType
	EClass   eclass.Class
	Policy   successor.Policy
}

// NewCandidate wraps a fresh policy instance.
func NewCandidate(p successor.Policy) Candidate {
	manifest := p.Manifest()
	return Candidate{
		PolicyID: p.ID(),
		Manifest: manifest,
		EClass:   eclass.Derive(manifest),
		Policy:   p,
	}
}

// Generator proposes candidates, drawing only from r.
type Generator interface {
	Propose(r *rand.Rand) Candidate
}

// DefaultWeights is the candidate mix used when none is configured.
func DefaultWeights() map[string]int {
	return map[string]int{
		successor.IDCompliant: 4,
		successor.IDNearCap:   2,
		successor.IDMinimal:   2,
		successor.IDViolator:  1,
		successor.IDDelegator: 1,
		successor.IDIdler:     1,
		successor.IDGreedy:    1,
	}
}

type weighted struct {
	id      string
	weight  int
	factory successor.Factory
}

// WeightedGenerator draws policies from a catalog in proportion to their
// weights.
type WeightedGenerator struct {
	entries []weighted
	total   int
}

// NewWeightedGenerator builds a generator over catalog using weights.
// Entries are ordered by ID so draws do not depend on map iteration.
// Zero-weight entries are never proposed.
func NewWeightedGenerator(catalog map[string]successor.Factory, weights map[string]int) (*WeightedGenerator, error) {
	g := &WeightedGenerator{}
	for id, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("candidate %q: negative weight %d", id, w)
		}
		if w == 0 {
			continue
		}
		f, ok := catalog[id]
		if !ok {
			return nil, fmt.Errorf("candidate %q: not in catalog", id)
		}
		g.entries = append(g.entries, weighted{id: id, weight: w, factory: f})
		g.total += w
	}
	if g.total == 0 {
		return nil, fmt.Errorf("candidate weights: at least one positive weight required")
	}
	sort.Slice(g.entries, func(i, j int) bool { return g.entries[i].id < g.entries[j].id })
	return g, nil
}

// Propose draws one candidate.
func (g *WeightedGenerator) Propose(r *rand.Rand) Candidate {
	n := r.IntN(g.total)
	for _, e := range g.entries {
		if n < e.weight {
			return NewCandidate(e.factory())
		}
		n -= e.weight
	}
	// Unreachable: n < total.
	return NewCandidate(g.entries[len(g.entries)-1].factory())
}

// IDs returns the proposable policy IDs in draw order.
func (g *WeightedGenerator) IDs() []string {
	ids := make([]string, len(g.entries))
	for i, e := range g.entries {
		ids[i] = e.id
	}
	return ids
}

// FixedGenerator always proposes a fresh instance of one policy. It never
// draws from the stream.
type FixedGenerator struct {
	factory successor.Factory
}

// NewFixedGenerator returns a generator for the catalog entry id.
func NewFixedGenerator(catalog map[string]successor.Factory, id string) (*FixedGenerator, error) {
	f, ok := catalog[id]
	if !ok {
		return nil, fmt.Errorf("candidate %q: not in catalog", id)
	}
	return &FixedGenerator{factory: f}, nil
}

// Propose returns a fresh candidate.
func (g *FixedGenerator) Propose(*rand.Rand) Candidate {
	return NewCandidate(g.factory())
}
