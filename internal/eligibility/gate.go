// Package eligibility tracks consecutive semantic failures per policy
// identity and answers whether an identity may be endorsed.
package eligibility

import (
	"maps"

	"github.com/roach88/tenure/internal/contract"
)

// DefaultThreshold is the streak at which an identity becomes ineligible.
const DefaultThreshold = 3

// Gate holds the semantic failure streak of every identity it has seen.
//
// Streaks change only through Update, which the scheduler calls at epoch
// end under an ACTIVE tenure. While authority has lapsed the gate is
// frozen and any Update is a contract violation.
type Gate struct {
	threshold int
	streaks   map[string]int
	frozen    bool
}

// New creates a gate with threshold k (k < 1 uses DefaultThreshold).
func New(k int) *Gate {
	if k < 1 {
		k = DefaultThreshold
	}
	return &Gate{threshold: k, streaks: make(map[string]int)}
}

// Threshold returns K.
func (g *Gate) Threshold() int {
	return g.threshold
}

// Update records one epoch-end verdict for id: a failure extends the
// streak, a pass resets it to zero. It returns the new streak.
func (g *Gate) Update(id string, epoch int, pass bool) (int, error) {
	if g.frozen {
		return 0, contract.New(contract.CodeStreakDuringLapse, epoch,
			"streak update for %q while authority is lapsed", id)
	}
	if pass {
		g.streaks[id] = 0
	} else {
		g.streaks[id]++
	}
	return g.streaks[id], nil
}

// Eligible reports whether id may be endorsed. Unknown identities have a
// zero streak and are eligible.
func (g *Gate) Eligible(id string) bool {
	return g.streaks[id] < g.threshold
}

// Streak returns the current streak of id.
func (g *Gate) Streak(id string) int {
	return g.streaks[id]
}

// Freeze stops all streak changes. Called when authority lapses.
func (g *Gate) Freeze() {
	g.frozen = true
}

// Thaw re-enables streak changes. Called on endorsement.
func (g *Gate) Thaw() {
	g.frozen = false
}

// Frozen reports whether the gate is frozen.
func (g *Gate) Frozen() bool {
	return g.frozen
}

// Snapshot returns a copy of every recorded streak.
func (g *Gate) Snapshot() map[string]int {
	return maps.Clone(g.streaks)
}
