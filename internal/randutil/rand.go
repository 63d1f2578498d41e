// Package randutil builds deterministic rand/v2 generators from a single
// int64 seed, so engines, bots and tests all derive reproducible sequences
// the same way.
package randutil

import rand "math/rand/v2"

// New returns a PCG-backed *rand.Rand seeded from one int64. The two 64-bit
// PCG seeds are derived with a splitmix step so nearby seeds still produce
// unrelated streams.
func New(seed int64) *rand.Rand {
	s := splitmix(uint64(seed))
	return rand.New(rand.NewPCG(s, splitmix(s)))
}

func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
