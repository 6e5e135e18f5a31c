package commitment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tenure/internal/contract"
	"github.com/roach88/tenure/internal/eclass"
)

func seeded(t *testing.T, costCap, ttl int) *Ledger {
	t.Helper()
	l := NewLedger(costCap, ttl)
	require.NoError(t, l.Seed(DefaultSpecs(), 0))
	return l
}

var fullLog = []eclass.ActionType{
	eclass.Log, eclass.StateSet, eclass.StateGet, eclass.Sequence,
}

func TestPredicate_Satisfied(t *testing.T) {
	counts := Tally([]eclass.ActionType{eclass.Log, eclass.Log, eclass.Read, eclass.Wait})

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"all present", Predicate{Kind: RequiresAll, Types: []eclass.ActionType{eclass.Log, eclass.Read}}, true},
		{"all missing one", Predicate{Kind: RequiresAll, Types: []eclass.ActionType{eclass.Log, eclass.Write}}, false},
		{"any", Predicate{Kind: RequiresAny, Types: []eclass.ActionType{eclass.Write, eclass.Read}}, true},
		{"any none", Predicate{Kind: RequiresAny, Types: []eclass.ActionType{eclass.Write}}, false},
		{"count met", Predicate{Kind: RequiresCount, Types: []eclass.ActionType{eclass.Log}, Count: 2}, true},
		{"count short", Predicate{Kind: RequiresCount, Types: []eclass.ActionType{eclass.Log}, Count: 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Satisfied(counts))
		})
	}
}

func TestPredicate_OrderIndependent(t *testing.T) {
	p := Predicate{Kind: RequiresAll, Types: []eclass.ActionType{eclass.StateSet, eclass.StateGet}}
	a := Tally([]eclass.ActionType{eclass.StateSet, eclass.StateGet})
	b := Tally([]eclass.ActionType{eclass.StateGet, eclass.StateSet})
	assert.Equal(t, p.Satisfied(a), p.Satisfied(b))
}

func TestPredicate_Validate(t *testing.T) {
	bad := []Predicate{
		{Kind: RequiresAll},
		{Kind: "sometimes", Types: []eclass.ActionType{eclass.Log}},
		{Kind: RequiresCount, Types: []eclass.ActionType{eclass.Log, eclass.Read}, Count: 1},
		{Kind: RequiresCount, Types: []eclass.ActionType{eclass.Log}},
		{Kind: RequiresAny, Types: []eclass.ActionType{eclass.Wait}},
		{Kind: RequiresAny, Types: []eclass.ActionType{eclass.Invalid}},
		{Kind: RequiresAll, Types: []eclass.ActionType{eclass.Log, "TELEPORT"}},
	}
	for _, p := range bad {
		assert.Error(t, p.Validate(), "%+v", p)
	}
	for _, s := range DefaultSpecs() {
		assert.NoError(t, s.Predicate.Validate(), s.Key)
	}
}

func TestLedger_SeedOnce(t *testing.T) {
	l := seeded(t, 0, 5)

	err := l.Seed(DefaultSpecs(), 3)
	require.Error(t, err)
	assert.Equal(t, contract.CodeLedgerReseeded, contract.CodeOf(err))
	assert.Equal(t, []string{"C0_LOG", "C1_STATE", "C2_COMPOSE"}, l.Keys())
}

func TestLedger_SeedRejectsDuplicates(t *testing.T) {
	l := NewLedger(0, 5)
	specs := append(DefaultSpecs(), DefaultSpecs()[0])
	require.Error(t, l.Seed(specs, 0))
}

func TestLedger_CostClamped(t *testing.T) {
	assert.Equal(t, 6, seeded(t, 0, 5).Cost(0))
	assert.Equal(t, 4, seeded(t, 4, 5).Cost(0))
}

func TestLedger_EvaluateAllSatisfied(t *testing.T) {
	l := seeded(t, 0, 5)

	ev, err := l.Evaluate(0, fullLog, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, ev.Evaluated())
	assert.Equal(t, 3, ev.Satisfied())
	pass, ok := ev.Pass()
	assert.True(t, ok)
	assert.True(t, pass)

	c, _ := l.Get("C1_STATE")
	assert.Equal(t, StatusSatisfied, c.Status)
}

func TestLedger_EmptyLogFails(t *testing.T) {
	l := seeded(t, 0, 5)

	ev, err := l.Evaluate(0, nil, nil)
	require.NoError(t, err)
	pass, ok := ev.Pass()
	assert.True(t, ok)
	assert.False(t, pass)
}

func TestLedger_EvaluationOrder(t *testing.T) {
	l := seeded(t, 0, 5)

	_, err := l.Evaluate(2, fullLog, nil)
	require.NoError(t, err)

	_, err = l.Evaluate(2, fullLog, nil)
	assert.Equal(t, contract.CodeEvaluationOrder, contract.CodeOf(err))
	_, err = l.Evaluate(1, fullLog, nil)
	assert.Equal(t, contract.CodeEvaluationOrder, contract.CodeOf(err))
}

func TestLedger_ExpiresOnceAfterTTL(t *testing.T) {
	l := seeded(t, 0, 3)

	expirations := 0
	for epoch := 0; epoch < 6; epoch++ {
		ev, err := l.Evaluate(epoch, nil, nil)
		require.NoError(t, err)
		expirations += len(ev.Expired)
		if epoch < 3 {
			assert.Equal(t, 3, ev.Evaluated(), "epoch %d", epoch)
		} else {
			assert.Zero(t, ev.Evaluated(), "epoch %d", epoch)
			_, ok := ev.Pass()
			assert.False(t, ok)
		}
	}
	assert.Equal(t, 3, expirations)

	c, _ := l.Get("C0_LOG")
	assert.Equal(t, StatusExpired, c.Status)
	assert.Equal(t, 2, c.ExpiredEpoch)
	assert.Zero(t, c.Cost)
	assert.Zero(t, l.Cost(3))
	assert.Zero(t, l.Live(3))
}

func TestLedger_PerSpecTTL(t *testing.T) {
	l := NewLedger(0, 10)
	specs := DefaultSpecs()
	specs[0].TTL = 1
	require.NoError(t, l.Seed(specs, 0))

	assert.Equal(t, 6, l.Cost(0))
	assert.Equal(t, 5, l.Cost(1))
}

func TestLedger_ObserverPerturbsJudgment(t *testing.T) {
	l := seeded(t, 0, 5)

	flipLog := func(key string, sat bool) bool {
		if key == "C0_LOG" {
			return !sat
		}
		return sat
	}
	ev, err := l.Evaluate(0, fullLog, flipLog)
	require.NoError(t, err)

	assert.Equal(t, 2, ev.Satisfied())
	for _, v := range ev.Verdicts {
		assert.True(t, v.Satisfied, "true verdict for %s is untouched", v.Key)
	}
	c, _ := l.Get("C0_LOG")
	assert.Equal(t, StatusActive, c.Status)
	assert.Equal(t, 1, c.Failures)
}

func TestLedger_Outstanding(t *testing.T) {
	l := seeded(t, 0, 5)

	got := l.Outstanding(0, []eclass.ActionType{eclass.StateSet})
	assert.Equal(t, []eclass.ActionType{eclass.Log, eclass.Sequence, eclass.StateGet}, got)

	assert.Empty(t, l.Outstanding(0, fullLog))
	assert.Empty(t, l.Outstanding(5, nil))
}
