package rent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tenure/internal/eclass"
)

func TestNew_ReferenceTable(t *testing.T) {
	s, err := New(10000, 1, Fractions{
		eclass.E1: 0.10,
		eclass.E2: 0.25,
		eclass.E3: 0.40,
		eclass.E4: 0.60,
	})
	require.NoError(t, err)

	wantRent := []int{1, 1000, 2500, 4000, 6000}
	wantEffective := []int{9999, 9000, 7500, 6000, 4000}
	for i, c := range eclass.All {
		assert.Equal(t, wantRent[i], s.Rent(c), "rent(%s)", c)
		assert.Equal(t, wantEffective[i], s.EffectiveSteps(c), "effective(%s)", c)
	}

	table := s.Table()
	require.Len(t, table, 5)
	assert.Equal(t, eclass.E3, table[3].Class)
	assert.Equal(t, 4000, table[3].Rent)
	assert.InDelta(t, 0.40, table[3].Fraction, 1e-12)
	assert.Zero(t, table[0].Fraction)
}

func TestNew_E3TwoHundredStepCap(t *testing.T) {
	s, err := New(200, DefaultMetabolicMinimum, DefaultFractions)
	require.NoError(t, err)

	assert.Equal(t, 80, s.Rent(eclass.E3))
	assert.Equal(t, 120, s.EffectiveSteps(eclass.E3))
}

func TestNew_CeilingRounding(t *testing.T) {
	s, err := New(7, 1, Fractions{eclass.E1: 0.2, eclass.E2: 0.4, eclass.E3: 0.6, eclass.E4: 0.8})
	require.NoError(t, err)

	// ceil(1.4)=2, ceil(2.8)=3, ceil(4.2)=5, ceil(5.6)=6
	assert.Equal(t, []int{1, 2, 3, 5, 6}, rents(s))
	assert.Equal(t, 1, s.EffectiveSteps(eclass.E4))
}

func TestNew_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		cap       int
		minimum   int
		fractions Fractions
		class     eclass.Class
	}{
		{"non-increasing fractions", 100, 1, Fractions{eclass.E1: 0.1, eclass.E2: 0.3, eclass.E3: 0.3, eclass.E4: 0.6}, eclass.E3},
		{"decreasing fractions", 100, 1, Fractions{eclass.E1: 0.5, eclass.E2: 0.3, eclass.E3: 0.6, eclass.E4: 0.7}, eclass.E2},
		{"missing fraction", 100, 1, Fractions{eclass.E1: 0.1, eclass.E2: 0.2, eclass.E3: 0.3}, eclass.E4},
		{"fraction of one", 100, 1, Fractions{eclass.E1: 0.1, eclass.E2: 0.2, eclass.E3: 0.3, eclass.E4: 1.0}, eclass.E4},
		{"rent swallows cap", 10, 1, Fractions{eclass.E1: 0.2, eclass.E2: 0.3, eclass.E3: 0.5, eclass.E4: 0.95}, eclass.E4},
		{"rents collide after ceiling", 10, 1, Fractions{eclass.E1: 0.15, eclass.E2: 0.18, eclass.E3: 0.5, eclass.E4: 0.6}, eclass.E2},
		{"minimum collides with E1", 100, 10, Fractions{eclass.E1: 0.1, eclass.E2: 0.2, eclass.E3: 0.3, eclass.E4: 0.4}, eclass.E1},
		{"zero minimum", 100, 0, DefaultFractions, eclass.E0},
		{"tiny cap", 1, 1, DefaultFractions, eclass.E0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cap, tt.minimum, tt.fractions)
			require.Error(t, err)

			var se *ScheduleError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.class, se.Class)
		})
	}
}

func TestSchedule_InvalidClassChargedAsMax(t *testing.T) {
	s, err := New(100, 1, DefaultFractions)
	require.NoError(t, err)
	assert.Equal(t, s.Rent(eclass.E4), s.Rent(eclass.Class(42)))
}

func rents(s *Schedule) []int {
	out := make([]int, 0, len(eclass.All))
	for _, c := range eclass.All {
		out = append(out, s.Rent(c))
	}
	return out
}
