// Package mwcas implements the multi-word compare-and-swap protocol:
// an atomic update of up to [MaxEntries] independent [word.Word] slots
// using only single-word hardware CAS, cooperative helping, and
// epoch-based reclamation for descriptor lifetime.
package mwcas

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/calvinalkan/mwcasbench/internal/word"
)

// MaxEntries is the build-time maximum arity K of a single mwcas call.
const MaxEntries = 8

// status is a descriptor's lifecycle state. Transitions are
// Undecided -> Succeeded or Undecided -> Failed, exactly once.
type status uint32

const (
	statusUndecided status = iota
	statusSucceeded
	statusFailed
)

// Entry is one (address, expected, desired) triple participating in an
// mwcas call. Expected and Desired are raw word bit patterns, not
// application values: the engine CASes them straight into Addr, so a
// caller whose application value might collide with the tag bit (see
// [word.IsDescriptor]) must run it through [word.EncodePlain] first,
// the same way [internal/queue] pre-shifts node pointers with its own
// encoding. [Engine.Read] returns the same kind of raw bit pattern and
// expects the symmetric [word.DecodePlain] on the way back out.
type Entry struct {
	Addr     *word.Word
	Expected uint64
	Desired  uint64
}

// descriptor holds one in-flight (or recently decided) mwcas attempt.
// Descriptors live in a [Pool] and are reused once retired through EBR;
// seq is bumped on every reuse so stale encoded references can be told
// apart from the descriptor currently occupying the slot.
type descriptor struct {
	st         atomic.Uint32
	seq        atomic.Uint32
	ownerIndex uint32
	n          int
	entries    [MaxEntries]Entry

	// _ pads descriptor to a cache line boundary so adjacent slots in
	// a [Pool]'s backing array, concurrently owned by different
	// threads, don't false-share.
	_ cpu.CacheLinePad
}

// encodedRef returns the tagged word this descriptor installs into
// every entry it touches.
func (d *descriptor) encodedRef() uint64 {
	return word.EncodeDescriptor(word.DescRef{Index: d.ownerIndex, Seq: d.seq.Load()})
}

func (d *descriptor) status() status {
	return status(d.st.Load())
}

// decide attempts to move the descriptor from Undecided to result.
// Exactly one caller wins; everyone else observes the winner's result.
func (d *descriptor) decide(result status) status {
	if d.st.CompareAndSwap(uint32(statusUndecided), uint32(result)) {
		return result
	}

	return status(d.st.Load())
}

// addrUintptr returns an ordering key for an entry's target address.
// Comparing *word.Word pointers via their address is how this module
// implements spec.md §3's "total order on addresses" requirement —
// Go gives no other portable ordering over pointers.
func addrUintptr(w *word.Word) uintptr {
	return uintptr(unsafe.Pointer(w))
}

// validate checks spec.md §4.3's entry invariants: arity within bounds,
// addresses pairwise distinct, and pre-sorted by address. Violations
// are programmer bugs (spec.md §7) and panic rather than return an
// error.
func validate(entries []Entry) {
	if len(entries) == 0 {
		panic("mwcas: entries must be non-empty")
	}

	if len(entries) > MaxEntries {
		panic("mwcas: arity exceeds MaxEntries")
	}

	for i := 1; i < len(entries); i++ {
		prev := addrUintptr(entries[i-1].Addr)
		cur := addrUintptr(entries[i].Addr)

		if cur == prev {
			panic("mwcas: duplicate address in entries")
		}

		if cur < prev {
			panic("mwcas: entries not sorted by address")
		}
	}
}
