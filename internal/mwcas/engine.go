package mwcas

import (
	"github.com/calvinalkan/mwcasbench/internal/ebr"
	"github.com/calvinalkan/mwcasbench/internal/word"
)

// Engine runs the mwcas protocol described in spec.md §4.3/§4.4: it
// ties a descriptor [Pool] to an [ebr.Domain] so descriptors are freed
// only once no thread can still be helping or reading them.
type Engine struct {
	pool   *Pool
	domain *ebr.Domain
}

// NewEngine constructs an Engine over the given pool and epoch domain.
func NewEngine(pool *Pool, domain *ebr.Domain) *Engine {
	return &Engine{pool: pool, domain: domain}
}

// Run attempts to atomically update every (Addr, Expected, Desired)
// triple in entries. entries must be sorted by Addr ascending with no
// duplicate addresses and len(entries) <= MaxEntries; violations panic
// per spec.md §7. Returns true if every address held Expected at the
// linearization point (the decide CAS in step 3) and now holds
// Desired; false if any address held a different value, in which case
// every address is left unchanged.
func (e *Engine) Run(th *ebr.Thread, entries []Entry) (bool, error) {
	validate(entries)

	g := th.Enter()
	defer g.Leave()

	idx, d, err := e.pool.alloc(entries)
	if err != nil {
		return false, err
	}

	result := e.drive(th, d)

	th.Retire(func() {
		e.pool.release(idx, d)
	})

	return result == statusSucceeded, nil
}

// drive runs the install and finalize phases on a descriptor,
// regardless of whether the caller owns it or is merely helping
// another thread's in-flight attempt. It is idempotent: calling it
// again on an already-decided descriptor just re-runs (harmless)
// finalize CASes and returns the existing decision.
func (e *Engine) drive(th *ebr.Thread, d *descriptor) status {
	if d.status() == statusUndecided {
		e.install(th, d)
	}

	e.finalize(d)

	return d.status()
}

// install implements spec.md §4.3 step 2: for each entry in address
// order, install this descriptor's tag, helping any other in-flight
// descriptor encountered along the way. It restarts from the first
// entry on every call, which is what makes repeated calls from
// multiple helpers converge rather than race each other's progress.
func (e *Engine) install(th *ebr.Thread, d *descriptor) {
	myEncoded := d.encodedRef()

	for i := 0; i < d.n; i++ {
		entry := &d.entries[i]

		for {
			if d.status() == statusFailed {
				return
			}

			v := entry.Addr.Load()

			if v == myEncoded {
				break // already installed by us or a helper
			}

			if word.IsDescriptor(v) {
				e.help(th, v)

				continue
			}

			if v != entry.Expected {
				d.decide(statusFailed)

				return
			}

			if entry.Addr.CompareAndSwap(v, myEncoded) {
				break
			}
			// Genuine change between Load and CompareAndSwap: retry
			// this entry from the top.
		}
	}

	d.decide(statusSucceeded)
}

// help drives another thread's in-flight descriptor to a decision so
// this thread's own install loop can make progress. Address-sorted
// installation (spec.md §4.3) guarantees helpers never cycle: a
// descriptor only ever waits on descriptors targeting strictly greater
// addresses than the one currently blocking it.
func (e *Engine) help(th *ebr.Thread, encoded uint64) {
	ref := word.DecodeDescriptor(encoded)

	d, ok := e.pool.resolve(ref)
	if !ok {
		return // stale reference; the blocking slot has already moved on
	}

	e.drive(th, d)
}

// finalize implements spec.md §4.3 step 4: publish the decided value
// (desired on success, expected on failure) to every entry this
// descriptor touched. Idempotent — a CAS that loses to another
// finalizer, or finds the slot already holding the target value, is
// simply ignored.
func (e *Engine) finalize(d *descriptor) {
	result := d.status()
	if result == statusUndecided {
		return
	}

	myEncoded := d.encodedRef()

	for i := 0; i < d.n; i++ {
		entry := &d.entries[i]

		target := entry.Expected
		if result == statusSucceeded {
			target = entry.Desired
		}

		entry.Addr.CompareAndSwap(myEncoded, target)
	}
}

// Read implements spec.md §4.4's protected read: follow an
// in-progress descriptor pointer to its logical value, helping if the
// descriptor is still undecided. Always runs inside an EBR guard so
// the descriptor cannot be freed out from under it.
func (e *Engine) Read(th *ebr.Thread, addr *word.Word) uint64 {
	g := th.Enter()
	defer g.Leave()

	for {
		v := addr.Load()

		if !word.IsDescriptor(v) {
			return v
		}

		ref := word.DecodeDescriptor(v)

		d, ok := e.pool.resolve(ref)
		if !ok {
			continue // stale reference; the slot has since moved on, re-read
		}

		switch d.status() {
		case statusSucceeded:
			return valueFor(d, addr, true)
		case statusFailed:
			return valueFor(d, addr, false)
		default:
			e.drive(th, d)
		}
	}
}

// valueFor scans a descriptor's entries for addr and returns its
// desired value (succeeded) or expected value (failed).
func valueFor(d *descriptor, addr *word.Word, succeeded bool) uint64 {
	for i := 0; i < d.n; i++ {
		entry := &d.entries[i]
		if entry.Addr == addr {
			if succeeded {
				return entry.Desired
			}

			return entry.Expected
		}
	}

	panic("mwcas: address not found in descriptor entries")
}
