// Package workload supplies the field-index generator the benchmark
// core consumes but never constructs itself (spec.md §6).
package workload

import "math/rand"

// FieldSelector returns an index in [0, num_field) for the next
// operation's target field. The core only ever calls through this
// type; it never knows the distribution behind it.
type FieldSelector func(rng *rand.Rand) int

// Uniform returns a FieldSelector that picks uniformly among
// [0, numField). The driver uses it whenever skew_parameter is 0,
// for every implementation.
func Uniform(numField int) FieldSelector {
	if numField <= 0 {
		panic("workload: numField must be positive")
	}

	return func(rng *rand.Rand) int {
		return rng.Intn(numField)
	}
}

// Zipf returns a FieldSelector drawing from a Zipf-like distribution
// over [0, numField) with the given skew, via the standard library's
// math/rand.NewZipf, which needs s > 1: any skewParameter <= 1
// (including 0) is mapped to a mild default skew of 1.0001.
func Zipf(rng *rand.Rand, numField int, skewParameter float64) FieldSelector {
	if numField <= 0 {
		panic("workload: numField must be positive")
	}

	s := skewParameter
	if s <= 1 {
		s = 1.0001
	}

	z := rand.NewZipf(rng, s, 1, uint64(numField-1))

	// z is bound to rng at construction time; the returned selector
	// still takes an *rand.Rand to satisfy FieldSelector; benchmarks
	// must pass the same rng they built this selector from.
	return func(*rand.Rand) int {
		return int(z.Uint64())
	}
}
