package utils

import "math/rand"

// RandSource is a seeded pseudo-random generator. It is not safe for
// concurrent use; callers that share one across goroutines must serialize
// access themselves.
type RandSource struct {
	rng *rand.Rand
}

// NewRandSource creates a new random source with the given seed. Every seed,
// including zero, yields a reproducible stream.
func NewRandSource(seed int64) *RandSource {
	return &RandSource{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Sample draws k distinct integers uniformly from [0, n) without
// replacement and returns them in draw order. It panics if k > n or k < 0.
//
// The draw is a partial Fisher-Yates shuffle, so it consumes exactly k
// values from the underlying stream.
func (r *RandSource) Sample(n, k int) []int {
	if k < 0 || k > n {
		panic("utils: Sample called with k outside [0, n]")
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		j := i + r.rng.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
		out[i] = pool[i]
	}
	return out
}
