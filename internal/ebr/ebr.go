// Package ebr implements epoch-based reclamation: a scheme that defers
// freeing memory a concurrent reader might still be dereferencing
// until every thread that could have observed it has moved on.
//
// A single long-lived [Domain] is constructed once per benchmark run
// and threaded through every worker and every queue, the way the
// teacher threads a *ticket.Config through its command handlers.
package ebr

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// gcInterval is how many retirements on one thread trigger an
// opportunistic epoch advance attempt. Matches spec.md §4.2's
// kGCInterval default of 1000.
const gcInterval = 1000

// Domain is the shared epoch state for a set of cooperating threads.
// The zero value is not usable; construct with [NewDomain].
type Domain struct {
	globalEpoch atomic.Uint64

	mu      sync.Mutex
	threads []*threadState

	// garbage[e] holds objects retired while globalEpoch == e, keyed
	// by the literal epoch value; reclaim drops buckets once they are
	// at least two epochs behind the current one.
	garbageMu sync.Mutex
	garbage   map[uint64][]retired
}

type retired struct {
	free func()
}

// threadState is one participant's local view of the epoch. active
// uses a counter rather than a bool so nested Enter/Leave (a guard
// acquired while already holding one) is idempotent, per spec.md §4.2.
type threadState struct {
	localEpoch atomic.Uint64
	active     atomic.Int32

	// _ keeps each threadState on its own cache line: every worker
	// writes its own localEpoch/active on the hot path, and threads
	// is scanned by Advance from any goroutine.
	_ cpu.CacheLinePad
}

// NewDomain creates an epoch domain with no registered threads.
func NewDomain() *Domain {
	d := &Domain{
		garbage: make(map[uint64][]retired),
	}
	d.globalEpoch.Store(1) // 0 is reserved to mean "thread never entered"

	return d
}

// Register allocates per-thread epoch state for one participant
// (typically one benchmark worker). The returned handle is reused
// across that thread's lifetime; it is not safe for concurrent use by
// more than one goroutine.
func (d *Domain) Register() *Thread {
	ts := &threadState{}

	d.mu.Lock()
	d.threads = append(d.threads, ts)
	d.mu.Unlock()

	return &Thread{domain: d, state: ts, retireCount: 0}
}

// Thread is one participant's handle into a [Domain].
type Thread struct {
	domain      *Domain
	state       *threadState
	retireCount int
}

// Guard marks a scoped critical section during which the owning
// thread may safely dereference pointers retired by others, provided
// those others have not yet observed a two-epoch advance past the
// retire point.
type Guard struct {
	thread *Thread
}

// Enter begins a guarded section. Nested Enter calls on the same
// Thread are idempotent: only the outermost Leave clears active.
func (t *Thread) Enter() *Guard {
	if t.state.active.Add(1) == 1 {
		t.state.localEpoch.Store(t.domain.globalEpoch.Load())
	}

	return &Guard{thread: t}
}

// Leave ends a guarded section. Calling Leave without a matching Enter
// is a caller bug; spec.md §4.2 places the burden of balanced
// Enter/Leave on callers, not on this package.
func (g *Guard) Leave() {
	if g.thread.state.active.Add(-1) < 0 {
		panic("ebr: Leave called without matching Enter")
	}
}

// Retire schedules free to run once no thread can still observe the
// object being retired. free must not itself call back into the
// domain.
func (t *Thread) Retire(free func()) {
	epoch := t.domain.globalEpoch.Load()

	t.domain.garbageMu.Lock()
	t.domain.garbage[epoch] = append(t.domain.garbage[epoch], retired{free: free})
	t.domain.garbageMu.Unlock()

	t.retireCount++
	if t.retireCount >= gcInterval {
		t.retireCount = 0
		t.domain.Advance()
	}
}

// Advance scans all registered threads and, if every active thread has
// observed an epoch at least as recent as the current one, bumps the
// global epoch and frees any garbage retired two or more epochs ago.
// The two-epoch gap guards against a thread that read globalEpoch an
// instant before this call observes the bump: it may still be
// dereferencing pointers retired at epoch-1.
func (d *Domain) Advance() {
	current := d.globalEpoch.Load()

	d.mu.Lock()
	threads := d.threads
	d.mu.Unlock()

	for _, ts := range threads {
		if ts.active.Load() > 0 && ts.localEpoch.Load() < current {
			return
		}
	}

	next := current + 1
	if !d.globalEpoch.CompareAndSwap(current, next) {
		return
	}

	d.reclaim(next)
}

// reclaim frees every bucket retired at or before epoch-2.
func (d *Domain) reclaim(epoch uint64) {
	if epoch < 2 {
		return
	}

	safe := epoch - 2

	d.garbageMu.Lock()
	defer d.garbageMu.Unlock()

	for e, items := range d.garbage {
		if e > safe {
			continue
		}

		for _, it := range items {
			it.free()
		}

		delete(d.garbage, e)
	}
}

// PendingCount returns the number of retired-but-not-yet-freed objects.
// Intended for tests and diagnostics, not the hot path.
func (d *Domain) PendingCount() int {
	d.garbageMu.Lock()
	defer d.garbageMu.Unlock()

	n := 0
	for _, items := range d.garbage {
		n += len(items)
	}

	return n
}

// CurrentEpoch returns the domain's current global epoch.
func (d *Domain) CurrentEpoch() uint64 {
	return d.globalEpoch.Load()
}
