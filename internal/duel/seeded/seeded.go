// Package seeded provides the string-seeded pseudo-randomness both duel
// participants use to reach identical shuffles without a server round-trip.
//
// The hash and generator are fixed algorithms (Java-style string hash over
// UTF-16 code units, Mulberry32) so that browser and mobile clients can
// reproduce every result bit for bit.
package seeded

import "unicode/utf16"

// HashSeed turns an arbitrary string into a 32-bit seed.
func HashSeed(seed string) uint32 {
	var h int32
	for _, unit := range utf16.Encode([]rune(seed)) {
		h = h*31 + int32(unit)
	}
	if h < 0 {
		return uint32(-int64(h))
	}
	return uint32(h)
}

// Rand is a Mulberry32 generator. The zero value is a valid generator seeded with 0.
type Rand struct {
	state uint32
}

// New returns a generator seeded with seed.
func New(seed uint32) *Rand {
	return &Rand{state: seed}
}

// Uint32 returns the next raw 32-bit output.
func (r *Rand) Uint32() uint32 {
	r.state += 0x6D2B79F5
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return t ^ (t >> 14)
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.Uint32()) / 4294967296.0
}

// Intn returns a value in [0, n). It returns 0 when n <= 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Float64() * float64(n))
}

// Shuffle returns a permuted copy of seq. The input is never mutated and the
// same (seq, seed) pair always produces the same order.
func Shuffle[T any](seq []T, seed uint32) []T {
	out := make([]T, len(seq))
	copy(out, seq)

	rng := New(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
