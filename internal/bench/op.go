// Package bench implements the benchmark driver of spec.md §4.7: spawn
// worker goroutines, rendezvous them through a two-gate barrier, run
// their pre-generated operation lists, and aggregate throughput or
// latency.
package bench

// Op is one pre-generated unit of work a worker replays during the
// timed region. Target holds num_target field indices (already
// sorted, since the MwCAS subject needs sorted addresses; the
// single-CAS subject increments each target with its own CAS, and the
// queue subjects use only Target[0]).
type Op struct {
	Target []int
}

// Subject is the thing being benchmarked: the MwCAS field array, the
// single-word-CAS field array, or one of the two queues. Each worker gets its own
// Subject instance (see Config.NewSubject) because a Subject typically
// wraps an [github.com/calvinalkan/mwcasbench/internal/ebr.Thread],
// which is not shared across goroutines.
type Subject interface {
	// Execute runs one operation and reports whether it committed.
	// Subjects that always commit (e.g. a retry-until-success update)
	// should always return true; false/panic both abort the run.
	Execute(op Op) bool
}
