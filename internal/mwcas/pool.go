package mwcas

import (
	"errors"
	"sync"

	"github.com/calvinalkan/mwcasbench/internal/word"
)

// ErrPoolExhausted is returned when no descriptor slot is available.
// Per spec.md §7 this is treated as a sizing mistake for the benchmark,
// not a condition to retry or block on.
var ErrPoolExhausted = errors.New("mwcas: descriptor pool exhausted")

// Pool is a fixed-size arena of descriptors shared by every mwcas
// caller in a run. It mirrors the teacher's fileRegistry pattern in
// lock.go: a bounded set of handles claimed and released under a
// single mutex protecting the free list only — the descriptors
// themselves are mutated exclusively through atomics once allocated.
type Pool struct {
	slots []descriptor

	mu   sync.Mutex
	free []uint32
}

// NewPool allocates a descriptor pool with the given number of slots.
func NewPool(size int) *Pool {
	if size <= 0 {
		panic("mwcas: pool size must be positive")
	}

	p := &Pool{
		slots: make([]descriptor, size),
		free:  make([]uint32, size),
	}

	for i := range p.free {
		p.free[i] = uint32(i)
	}

	return p
}

// alloc claims a free descriptor slot, initialized to Undecided with
// the given entries already copied in. Returns ErrPoolExhausted if no
// slot is free.
func (p *Pool) alloc(entries []Entry) (idx uint32, d *descriptor, err error) {
	p.mu.Lock()

	if len(p.free) == 0 {
		p.mu.Unlock()

		return 0, nil, ErrPoolExhausted
	}

	idx = p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]

	p.mu.Unlock()

	d = &p.slots[idx]
	d.ownerIndex = idx
	d.n = len(entries)
	copy(d.entries[:], entries)
	d.st.Store(uint32(statusUndecided))

	return idx, d, nil
}

// release returns a descriptor slot to the free list and bumps its
// sequence counter, so any encoded word.Word still referencing the old
// (index, seq) pair is recognized as stale rather than aliasing the
// slot's next occupant.
func (p *Pool) release(idx uint32, d *descriptor) {
	d.seq.Add(1)

	p.mu.Lock()
	p.free = append(p.free, idx)
	p.mu.Unlock()
}

// resolve looks up the descriptor named by ref, returning ok=false if
// the slot has since been recycled for a different descriptor (an ABA
// case: the word.Word the caller read is stale and should be re-read
// from its source address rather than acted on).
func (p *Pool) resolve(ref word.DescRef) (d *descriptor, ok bool) {
	if int(ref.Index) >= len(p.slots) {
		return nil, false
	}

	d = &p.slots[ref.Index]
	if d.seq.Load() != ref.Seq {
		return nil, false
	}

	return d, true
}

