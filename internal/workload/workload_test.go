package workload_test

import (
	"math/rand"
	"testing"

	"github.com/calvinalkan/mwcasbench/internal/workload"
)

func TestUniformStaysInRange(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	sel := workload.Uniform(8)

	for i := 0; i < 10_000; i++ {
		idx := sel(rng)
		if idx < 0 || idx >= 8 {
			t.Fatalf("Uniform selector returned %d, want [0, 8)", idx)
		}
	}
}

func TestZipfStaysInRangeAndIsSkewed(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	sel := workload.Zipf(rng, 16, 1.5)

	counts := make([]int, 16)

	const n = 50_000

	for i := 0; i < n; i++ {
		idx := sel(rng)
		if idx < 0 || idx >= 16 {
			t.Fatalf("Zipf selector returned %d, want [0, 16)", idx)
		}

		counts[idx]++
	}

	if counts[0] <= counts[15] {
		t.Fatalf("expected Zipf skew toward index 0: counts[0]=%d counts[15]=%d", counts[0], counts[15])
	}
}

func TestZipfTreatsNonPositiveSkewAsDefault(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	sel := workload.Zipf(rng, 4, 0)

	for i := 0; i < 1000; i++ {
		idx := sel(rng)
		if idx < 0 || idx >= 4 {
			t.Fatalf("Zipf selector returned %d, want [0, 4)", idx)
		}
	}
}
