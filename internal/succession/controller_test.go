package succession

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tenure/internal/eclass"
	"github.com/roach88/tenure/internal/eligibility"
	"github.com/roach88/tenure/internal/lease"
	"github.com/roach88/tenure/internal/rent"
	"github.com/roach88/tenure/internal/streams"
	"github.com/roach88/tenure/internal/successor"
)

// scripted proposes a fixed sequence, repeating the last entry.
type scripted struct {
	policies []successor.Policy
	next     int
}

func (s *scripted) Propose(*rand.Rand) Candidate {
	p := s.policies[min(s.next, len(s.policies)-1)]
	s.next++
	return NewCandidate(p)
}

func fixture(t *testing.T, gen Generator, opts ...Option) (*Controller, *lease.Lease, *eligibility.Gate) {
	t.Helper()
	sched, err := rent.New(200, rent.DefaultMetabolicMinimum, rent.DefaultFractions)
	require.NoError(t, err)
	l := lease.New(sched, lease.Config{ActionsCap: 10})
	g := eligibility.New(3)
	return NewController(gen, streams.Derive(1, streams.Candidates), g, l, opts...), l, g
}

func TestController_EndorsesFirstConforming(t *testing.T) {
	gen := &scripted{policies: []successor.Policy{&successor.Delegator{}, successor.Compliant{}}}
	ctl, l, _ := fixture(t, gen, WithMaxEClass(eclass.E3))

	out, err := ctl.Succeed(0)
	require.NoError(t, err)
	assert.True(t, out.Endorsed)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, 1, out.RejectedTier)
	assert.Equal(t, successor.IDCompliant, out.Candidate.PolicyID)
	assert.Equal(t, eclass.E3, out.Tenure.EClass)
	assert.Equal(t, 1, ctl.Count())

	ten, ok := l.Current()
	require.True(t, ok)
	assert.Equal(t, successor.IDCompliant, ten.PolicyID)
}

func TestController_SkipsIneligible(t *testing.T) {
	gen := &scripted{policies: []successor.Policy{successor.Compliant{}, successor.Minimal{}}}
	ctl, _, gate := fixture(t, gen)
	for i := 0; i < 3; i++ {
		_, err := gate.Update(successor.IDCompliant, i, false)
		require.NoError(t, err)
	}

	out, err := ctl.Succeed(3)
	require.NoError(t, err)
	assert.True(t, out.Endorsed)
	assert.Equal(t, 1, out.RejectedIneligible)
	assert.Equal(t, successor.IDMinimal, out.Candidate.PolicyID)
}

func TestController_LapseFreezesGate(t *testing.T) {
	gen := &scripted{policies: []successor.Policy{successor.Compliant{}}}
	ctl, l, gate := fixture(t, gen, WithMaxRetries(5))
	for i := 0; i < 3; i++ {
		_, err := gate.Update(successor.IDCompliant, i, false)
		require.NoError(t, err)
	}

	out, err := ctl.Succeed(3)
	require.NoError(t, err)
	assert.False(t, out.Endorsed)
	assert.Equal(t, 5, out.Attempts)
	assert.Equal(t, 5, out.RejectedIneligible)
	assert.Zero(t, ctl.Count())
	assert.Equal(t, lease.AuthorityNull, l.Authority())
	assert.True(t, gate.Frozen())

	// No streak changes while lapsed.
	_, err = gate.Update(successor.IDCompliant, 4, true)
	assert.Error(t, err)
	assert.Equal(t, 3, gate.Streak(successor.IDCompliant))
}

func TestController_RecoveryThawsGate(t *testing.T) {
	gen := &scripted{policies: []successor.Policy{&successor.Delegator{}, &successor.Delegator{}, successor.Minimal{}}}
	ctl, _, gate := fixture(t, gen, WithMaxEClass(eclass.E3), WithMaxRetries(2))

	out, err := ctl.Succeed(0)
	require.NoError(t, err)
	require.False(t, out.Endorsed)
	require.True(t, gate.Frozen())

	out, err = ctl.Succeed(1)
	require.NoError(t, err)
	assert.True(t, out.Endorsed)
	assert.False(t, gate.Frozen())
	assert.Equal(t, 1, ctl.Count())
}

func TestController_EndorseOverActiveIsViolation(t *testing.T) {
	gen := &scripted{policies: []successor.Policy{successor.Minimal{}}}
	ctl, _, _ := fixture(t, gen)

	_, err := ctl.Succeed(0)
	require.NoError(t, err)
	_, err = ctl.Succeed(0)
	require.Error(t, err)
	assert.Equal(t, 1, ctl.Count())
}

func TestNewCandidate_DerivesClass(t *testing.T) {
	c := NewCandidate(successor.NewViolator(2))
	assert.Equal(t, successor.IDViolator, c.PolicyID)
	assert.Equal(t, eclass.E3, c.EClass)
}
