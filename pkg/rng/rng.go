// Package rng provides the seeded deterministic random source used across
// the chaos verification core.
//
// Determinism is the contract, not statistical quality: for a fixed seed,
// the generator yields an identical sequence on every platform and in every
// process. All derived operations are pure functions of Next and draw no
// entropy from the clock or the OS.
package rng

// RNG is a Mulberry32 pseudorandom generator over a 32-bit seed.
//
// An RNG instance is not safe for concurrent use. Callers running truly
// parallel work must give each task its own derived generator via Fork.
type RNG struct {
	seed  uint32
	state uint32
}

// New creates a generator positioned at the start of the sequence for seed.
func New(seed uint32) *RNG {
	return &RNG{seed: seed, state: seed}
}

// Seed returns the immutable seed this generator was created with.
func (r *RNG) Seed() uint32 {
	return r.seed
}

// Reset rewinds the generator to the start of its sequence.
func (r *RNG) Reset() {
	r.state = r.seed
}

// Next advances the generator and returns a float64 in [0, 1).
//
// Mulberry32: advance state by a fixed odd increment, then two
// xor-shift/multiply mixing rounds. All arithmetic is 32-bit integer,
// so the sequence is identical on every platform; the only float step
// is the final IEEE-754 division by 2^32.
func (r *RNG) Next() float64 {
	r.state += 0x6D2B79F5
	z := r.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	z ^= z >> 14
	return float64(z) / 4294967296.0
}

// NextInt returns an integer in [min, max], inclusive on both ends.
// If min > max the bounds are swapped.
func (r *RNG) NextInt(min, max int) int {
	if min > max {
		min, max = max, min
	}
	span := max - min + 1
	return min + int(r.Next()*float64(span))
}

// NextFloat returns a float64 in [min, max).
func (r *RNG) NextFloat(min, max float64) float64 {
	return min + r.Next()*(max-min)
}

// NextBool returns true with probability p. p outside [0,1] clamps.
func (r *RNG) NextBool(p float64) bool {
	return r.Next() < p
}

// Fork derives an independent generator for the given stream index.
// Forked generators are deterministic functions of (seed, index) only,
// so concurrent attempts can each own a generator without sharing state.
func (r *RNG) Fork(index uint32) *RNG {
	z := r.seed + (index+1)*0x9E3779B9
	z = (z ^ (z >> 16)) * 0x85EBCA6B
	z = (z ^ (z >> 13)) * 0xC2B2AE35
	z ^= z >> 16
	return New(z)
}

// Shuffle permutes s in place using a Fisher-Yates walk. This is the one
// collection helper that mutates its input; Pick and PickN never do.
func Shuffle[T any](r *RNG, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.NextInt(0, i)
		s[i], s[j] = s[j], s[i]
	}
}

// Pick returns a uniformly chosen element of s without mutating it.
// The second return is false when s is empty.
func Pick[T any](r *RNG, s []T) (T, bool) {
	var zero T
	if len(s) == 0 {
		return zero, false
	}
	return s[r.NextInt(0, len(s)-1)], true
}

// PickN returns up to n distinct elements of s in random order. The input
// slice is never mutated; the result is always a fresh slice. When n exceeds
// len(s) every element is returned once.
func PickN[T any](r *RNG, s []T, n int) []T {
	if n <= 0 || len(s) == 0 {
		return []T{}
	}
	scratch := make([]T, len(s))
	copy(scratch, s)
	Shuffle(r, scratch)
	if n > len(scratch) {
		n = len(scratch)
	}
	return scratch[:n]
}
