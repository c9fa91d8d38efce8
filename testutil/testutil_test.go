package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReset(t *testing.T) {
	rng := NewRNG(42)
	first := rng.Uint64s(8)
	rng.Reset()
	assert.Equal(t, first, rng.Uint64s(8))
	assert.Equal(t, int64(42), rng.Seed())
}

func TestStrings(t *testing.T) {
	rng := NewRNG(1)
	strs := rng.Strings(500, 5)
	assert.Len(t, strs, 500)

	var empty bool
	for _, s := range strs {
		assert.LessOrEqual(t, len(s), 5)
		empty = empty || s == ""
	}
	assert.True(t, empty)
}

func TestFloat64s_Specials(t *testing.T) {
	vals := NewRNG(3).Float64s(1000, 0.5)

	var nan, inf, negZero int
	for _, v := range vals {
		switch {
		case math.IsNaN(v):
			nan++
		case math.IsInf(v, 0):
			inf++
		case v == 0 && math.Signbit(v):
			negZero++
		}
	}
	assert.Positive(t, nan)
	assert.Positive(t, inf)
	assert.Positive(t, negZero)
}

func TestNullMask(t *testing.T) {
	rng := NewRNG(9)
	assert.NotContains(t, rng.NullMask(100, 0), true)
	assert.NotContains(t, rng.NullMask(100, 1), false)
}
