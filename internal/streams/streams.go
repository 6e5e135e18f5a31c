// Package streams provides named, independently seeded random streams.
//
// Each stream is seeded from SHA-256 over the canonical encoding of
// {seed, stream}, so drawing from one stream never perturbs another and
// adding a new stream never shifts existing draws.
package streams

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/roach88/tenure/internal/canon"
)

// Stream names used by the harness.
const (
	Candidates   = "candidates"
	Interference = "interference"
)

// Derive returns a fresh generator for the named stream of a run seed.
func Derive(seed int64, name string) *rand.Rand {
	s1, s2 := Key(seed, name)
	return rand.New(rand.NewPCG(s1, s2))
}

// Key returns the two PCG seed words for a stream.
func Key(seed int64, name string) (uint64, uint64) {
	sum, err := canon.Sum(canon.DomainStream, canon.Obj(
		canon.P("seed", canon.Int(seed)),
		canon.P("stream", canon.String(name)),
	))
	if err != nil {
		// Only reachable with an invalid UTF-8 stream name.
		panic(err)
	}
	return binary.BigEndian.Uint64(sum[0:8]), binary.BigEndian.Uint64(sum[8:16])
}

// Set hands out one generator per stream name for a single run.
type Set struct {
	seed    int64
	streams map[string]*rand.Rand
}

// NewSet creates an empty stream set for seed.
func NewSet(seed int64) *Set {
	return &Set{seed: seed, streams: make(map[string]*rand.Rand)}
}

// Seed returns the run seed.
func (s *Set) Seed() int64 {
	return s.seed
}

// Get returns the generator for name, creating it on first use.
func (s *Set) Get(name string) *rand.Rand {
	r, ok := s.streams[name]
	if !ok {
		r = Derive(s.seed, name)
		s.streams[name] = r
	}
	return r
}
