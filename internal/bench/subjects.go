package bench

import (
	"github.com/calvinalkan/mwcasbench/internal/ebr"
	"github.com/calvinalkan/mwcasbench/internal/mwcas"
	"github.com/calvinalkan/mwcasbench/internal/word"
)

// FieldArray is the shared array of num_field Words every field-array
// benchmark op targets (spec.md §6 num_field/num_target). Backed by a
// slice of values, not pointers, so index order and address order
// coincide — Op.Target's ascending field indices are therefore already
// in the address-sorted order [mwcas.Entry] requires.
type FieldArray []word.Word

// NewFieldArray allocates a zero-initialized field array of size n.
func NewFieldArray(n int) FieldArray {
	return make(FieldArray, n)
}

// Addr returns the address of field i.
func (fa FieldArray) Addr(i int) *word.Word {
	return &fa[i]
}

// mwcasSubject is the "ours" comparison arm: every op's targets are
// incremented atomically in one mwcas call, per spec.md §8 scenario 1
// and scenario 6.
type mwcasSubject struct {
	fields FieldArray
	engine *mwcas.Engine
	thread *ebr.Thread
}

// NewMwCASSubject builds the per-worker MwCAS field-array subject.
// thread must be registered against the same domain engine was built
// with.
func NewMwCASSubject(fields FieldArray, engine *mwcas.Engine, thread *ebr.Thread) Subject {
	return &mwcasSubject{fields: fields, engine: engine, thread: thread}
}

func (s *mwcasSubject) Execute(op Op) bool {
	for {
		entries := make([]mwcas.Entry, len(op.Target))

		for i, idx := range op.Target {
			addr := s.fields.Addr(idx)
			cur := word.DecodePlain(s.engine.Read(s.thread, addr))
			entries[i] = mwcas.Entry{
				Addr:     addr,
				Expected: word.EncodePlain(cur),
				Desired:  word.EncodePlain(cur + 1),
			}
		}

		ok, err := s.engine.Run(s.thread, entries)
		if err != nil {
			panic(err)
		}

		if ok {
			return true
		}
	}
}

// singleCASSubject is the naive comparison arm: each of an op's
// targets is incremented with its own independent single-word CAS
// retry loop, with no cross-field atomicity. This is the baseline
// spec.md §9's closed sum type calls `SingleCAS` — it exists to show
// what MwCAS buys over per-field CAS when an op must touch several
// fields together.
type singleCASSubject struct {
	fields FieldArray
}

// NewSingleCASSubject builds the per-worker single-word-CAS field-array
// subject.
func NewSingleCASSubject(fields FieldArray) Subject {
	return &singleCASSubject{fields: fields}
}

func (s *singleCASSubject) Execute(op Op) bool {
	for _, idx := range op.Target {
		addr := s.fields.Addr(idx)

		for {
			cur := addr.Load()
			if addr.CompareAndSwap(cur, cur+1) {
				break
			}
		}
	}

	return true
}
