// Package rng implements the deterministic pseudo-random stream used to seed
// matches, agents and scenarios.
//
// The generator keeps 32 bits of state, advances it by a fixed additive
// constant and runs two xorshift-multiply mixing rounds per draw. It is fast and
// reproduces bit-for-bit across platforms. It is NOT suitable for anything
// security related.
//
// Identical seeds always produce identical streams, and the seed-derivation
// chain (DeriveSeed) is what lets a single master seed fan out into per-agent
// and per-scenario seeds without losing reproducibility.
package rng

import "math"

const (
	increment = 0x6D2B79F5
	twoPow32  = 4294967296.0
	maxSeed   = 2147483647.0
)

// Source is a deterministic stream of floats in [0,1). A Source is not safe
// for concurrent use; give every goroutine its own Source.
type Source struct {
	state uint32
}

// New creates a Source seeded with seed.
func New(seed int32) *Source {
	return &Source{state: uint32(seed)}
}

// Float64 advances the stream and returns the next value in [0,1).
func (s *Source) Float64() float64 {
	s.state += increment
	t := (s.state ^ (s.state >> 15)) * (1 | s.state)
	t = (t + (t^(t>>7))*(61|t)) ^ t
	return float64(t^(t>>14)) / twoPow32
}

// RandomInt draws an integer in the inclusive range [min, max]. Swapped bounds
// are tolerated.
func RandomInt(s *Source, min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + int(math.Floor(s.Float64()*float64(max-min+1)))
}

// DeriveSeed draws one value from s and rescales it to a non-negative 32-bit
// seed suitable for New.
func DeriveSeed(s *Source) int32 {
	return int32(math.Floor(s.Float64() * maxSeed))
}
