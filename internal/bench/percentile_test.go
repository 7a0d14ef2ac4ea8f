package bench

import (
	"math"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestComputePercentilesMatchesNaiveSort(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))

	const numWorkers = 5

	const perWorker = 2000

	workers := make([][]time.Duration, numWorkers)

	var all []time.Duration

	for w := 0; w < numWorkers; w++ {
		s := make([]time.Duration, perWorker)

		for i := range s {
			s[i] = time.Duration(rng.Int63n(1_000_000))
		}

		sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })

		workers[w] = s
		all = append(all, s...)
	}

	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	got := computePercentiles(workers)

	naivePercentile := func(p float64) time.Duration {
		n := len(all)
		rank := int(math.Ceil(p * float64(n))) // 1-indexed ascending rank

		if rank < 1 {
			rank = 1
		}

		if rank > n {
			rank = n
		}

		return all[rank-1]
	}

	want := Percentiles{
		Min: all[0],
		P90: naivePercentile(0.90),
		P95: naivePercentile(0.95),
		P99: naivePercentile(0.99),
		Max: all[len(all)-1],
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("computePercentiles() mismatch (-want +got):\n%s", diff)
	}
}

func TestComputePercentilesEmptyWorkers(t *testing.T) {
	t.Parallel()

	got := computePercentiles([][]time.Duration{{}, {}})
	if got != (Percentiles{}) {
		t.Fatalf("got = %+v, want zero value", got)
	}
}

// TestComputePercentilesFirstWorkerEmpty guards against indexing
// workers[0][0] unconditionally: the first worker's slice being empty
// must not panic as long as some other worker contributed samples.
func TestComputePercentilesFirstWorkerEmpty(t *testing.T) {
	t.Parallel()

	got := computePercentiles([][]time.Duration{{}, {5, 10, 15}})

	want := Percentiles{Min: 5, P90: 15, P95: 15, P99: 15, Max: 15}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("computePercentiles() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeTopNDescending(t *testing.T) {
	t.Parallel()

	workers := [][]time.Duration{
		{1, 3, 5, 7},
		{2, 4, 6},
		{0},
	}

	top := mergeTopN(workers, 5)

	want := []time.Duration{7, 6, 5, 4, 3}

	if diff := cmp.Diff(want, top); diff != "" {
		t.Fatalf("mergeTopN() mismatch (-want +got):\n%s", diff)
	}
}
