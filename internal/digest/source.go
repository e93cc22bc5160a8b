package digest

import "math/rand/v2"

// Source is the random source consumed by every digestion. It is satisfied
// by *rand.Rand from math/rand/v2.
type Source interface {
	IntN(n int) int
	Uint64N(n uint64) uint64
	Uint64() uint64
	Float64() float64
}

// NewSource returns a deterministic source for seed. Two sources built from
// the same seed yield the same sequence.
func NewSource(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}
