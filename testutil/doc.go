// Package testutil provides deterministic test data for column writers.
//
// This package is intended for use in tests and benchmarks only.
//
//	rng := testutil.NewRNG(42)
//	ids := rng.Uint64s(1000)
//	prices := rng.Float64s(1000, 0.01) // 1% NaN, ±Inf and -0
//	notes := rng.Strings(1000, 64)     // lengths in [0, 64]
//	nulls := rng.NullMask(1000, 0.1)
package testutil
