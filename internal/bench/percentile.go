package bench

import (
	"container/heap"
	"math"
	"time"
)

// Percentiles holds the five statistics spec.md §4.7 requires of a
// latency run.
type Percentiles struct {
	Min time.Duration
	P90 time.Duration
	P95 time.Duration
	P99 time.Duration
	Max time.Duration
}

// heapItem is one candidate in the k-way merge: the current tail value
// of one worker's already-sorted latency slice.
type heapItem struct {
	value  time.Duration
	worker int
	idx    int
}

// maxHeap orders heapItems largest-value-first so the merge walks down
// from the top, matching spec.md §4.7's "walking from the largest
// value down" without sorting the combined set.
type maxHeap []heapItem

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].value > h[j].value }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }

func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]

	return item
}

// mergeTopN returns the n largest values across the per-worker sorted
// slices, in descending order, via a k-way heap merge. Each worker's
// slice must already be sorted ascending.
func mergeTopN(workers [][]time.Duration, n int) []time.Duration {
	h := &maxHeap{}

	for w, s := range workers {
		if len(s) == 0 {
			continue
		}

		*h = append(*h, heapItem{value: s[len(s)-1], worker: w, idx: len(s) - 1})
	}

	heap.Init(h)

	out := make([]time.Duration, 0, n)

	for len(out) < n && h.Len() > 0 {
		top := heap.Pop(h).(heapItem)
		out = append(out, top.value)

		if top.idx > 0 {
			heap.Push(h, heapItem{value: workers[top.worker][top.idx-1], worker: top.worker, idx: top.idx - 1})
		}
	}

	return out
}

// computePercentiles aggregates per-worker sorted latency slices into
// the five required statistics. Each element of workers must already
// be sorted ascending (the worker sorts its own slice once, outside
// the timed region).
func computePercentiles(workers [][]time.Duration) Percentiles {
	total := 0
	for _, w := range workers {
		total += len(w)
	}

	if total == 0 {
		return Percentiles{}
	}

	var min, max time.Duration

	seen := false

	for _, w := range workers {
		if len(w) == 0 {
			continue
		}

		if !seen || w[0] < min {
			min = w[0]
		}

		if !seen || w[len(w)-1] > max {
			max = w[len(w)-1]
		}

		seen = true
	}

	posFromTop := func(p float64) int {
		rankAsc := int(math.Ceil(p * float64(total)))
		if rankAsc < 1 {
			rankAsc = 1
		}

		if rankAsc > total {
			rankAsc = total
		}

		return total - rankAsc + 1
	}

	p90Pos := posFromTop(0.90)
	p95Pos := posFromTop(0.95)
	p99Pos := posFromTop(0.99)

	maxPos := p90Pos
	if p95Pos > maxPos {
		maxPos = p95Pos
	}

	if p99Pos > maxPos {
		maxPos = p99Pos
	}

	top := mergeTopN(workers, maxPos)

	return Percentiles{
		Min: min,
		P90: top[p90Pos-1],
		P95: top[p95Pos-1],
		P99: top[p99Pos-1],
		Max: max,
	}
}
