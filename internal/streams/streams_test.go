package streams

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func draws(s *Set, name string, n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = s.Get(name).Uint64()
	}
	return out
}

func TestDerive_Reproducible(t *testing.T) {
	a, b := Derive(42, Candidates), Derive(42, Candidates)
	for i := 0; i < 16; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestDerive_StreamsDiffer(t *testing.T) {
	k1a, k1b := Key(42, Candidates)
	k2a, k2b := Key(42, Interference)
	assert.NotEqual(t, [2]uint64{k1a, k1b}, [2]uint64{k2a, k2b})

	k3a, k3b := Key(43, Candidates)
	assert.NotEqual(t, [2]uint64{k1a, k1b}, [2]uint64{k3a, k3b})
}

func TestSet_StreamsIndependent(t *testing.T) {
	quiet := NewSet(7)
	want := draws(quiet, Candidates, 8)

	// Interleaving heavy use of another stream must not shift candidates.
	busy := NewSet(7)
	var got []uint64
	for i := 0; i < 8; i++ {
		draws(busy, Interference, 5)
		got = append(got, busy.Get(Candidates).Uint64())
	}
	assert.Equal(t, want, got)
	assert.Equal(t, int64(7), busy.Seed())
}

func TestSet_SameInstance(t *testing.T) {
	s := NewSet(1)
	assert.Same(t, s.Get(Candidates), s.Get(Candidates))
}
