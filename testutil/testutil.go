package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// RNG wraps a seeded random source. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64s returns n values spread over the whole uint64 range.
func (r *RNG) Uint64s(n int) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]uint64, n)
	for i := range out {
		out[i] = r.rand.Uint64()
	}
	return out
}

// Int64s returns n values of both signs, including the extremes.
func (r *RNG) Int64s(n int) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int64, n)
	for i := range out {
		switch r.rand.Intn(100) {
		case 0:
			out[i] = math.MinInt64
		case 1:
			out[i] = math.MaxInt64
		default:
			out[i] = int64(r.rand.Uint64()) //nolint:gosec
		}
	}
	return out
}

// Float64s returns n normally distributed values. With probability
// specialRate a value is replaced by NaN, +Inf, -Inf or -0.
func (r *RNG) Float64s(n int, specialRate float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	specials := []float64{math.NaN(), math.Inf(1), math.Inf(-1), math.Copysign(0, -1)}
	out := make([]float64, n)
	for i := range out {
		if r.rand.Float64() < specialRate {
			out[i] = specials[r.rand.Intn(len(specials))]
			continue
		}
		out[i] = r.rand.NormFloat64() * 1e6
	}
	return out
}

// Strings returns n printable strings with lengths uniform in [0, maxLen].
func (r *RNG) Strings(n, maxLen int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 -_"
	out := make([]string, n)
	buf := make([]byte, maxLen)
	for i := range out {
		l := r.rand.Intn(maxLen + 1)
		for j := range l {
			buf[j] = alphabet[r.rand.Intn(len(alphabet))]
		}
		out[i] = string(buf[:l])
	}
	return out
}

// NullMask returns n flags where true marks a null row.
// nullRate is the probability that a row is null (0.3 = 30% nulls).
func (r *RNG) NullMask(n int, nullRate float64) []bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	nulls := make([]bool, n)
	for i := range n {
		nulls[i] = r.rand.Float64() < nullRate
	}
	return nulls
}
