package queue

import (
	"unsafe"

	"github.com/calvinalkan/mwcasbench/internal/ebr"
	"github.com/calvinalkan/mwcasbench/internal/mwcas"
	"github.com/calvinalkan/mwcasbench/internal/word"
)

// MwCASQueue is the mwcas-backed FIFO of spec.md §4.6: push updates
// back and the old tail's next pointer in one mwcas call instead of
// the CAS variant's two-step install-then-advance.
type MwCASQueue[T any] struct {
	front word.Word
	back  word.Word

	engine *mwcas.Engine
}

// NewMwCASQueue creates an empty queue. engine must share the same EBR
// domain as every [ebr.Thread] passed to Push/Pop.
func NewMwCASQueue[T any](engine *mwcas.Engine) *MwCASQueue[T] {
	var zero T

	sentinel := newNode[T](zero)
	enc := ptrToWord(sentinel)

	q := &MwCASQueue[T]{engine: engine}
	q.front.Store(enc)
	q.back.Store(enc)

	return q
}

// Push appends x to the tail, implementing spec.md §4.6: protected-read
// back, then mwcas both back and the old tail's next pointer in one
// call. Retries until it wins.
func (q *MwCASQueue[T]) Push(th *ebr.Thread, x T) {
	n := newNode[T](x)
	nEnc := ptrToWord(n)

	for {
		t := wordToPtr[T](q.engine.Read(th, &q.back))

		if wordToPtr[T](t.next.Load()) != nil {
			// Another push already linked past this tail; help by
			// letting the next loop iteration observe the new back
			// once some thread's mwcas advances it, rather than
			// looping hot — a single protected re-read is enough
			// since reads always resolve to the live value.
			continue
		}

		entries := sortedEntries(
			mwcas.Entry{Addr: &q.back, Expected: ptrToWord(t), Desired: nEnc},
			mwcas.Entry{Addr: &t.next, Expected: 0, Desired: nEnc},
		)

		ok, err := q.engine.Run(th, entries)
		if err != nil {
			panic(err) // pool exhaustion is a sizing bug, per spec.md §7
		}

		if ok {
			return
		}
	}
}

// Pop removes and returns the front element, or ok=false if empty.
// Only front needs to move here, so a plain single-word CAS suffices
// on the pop side even in the mwcas variant (spec.md §4.6).
func (q *MwCASQueue[T]) Pop(th *ebr.Thread) (val T, ok bool) {
	g := th.Enter()
	defer g.Leave()

	for {
		f := wordToPtr[T](q.front.Load())

		newF := wordToPtr[T](q.engine.Read(th, &f.next))
		if newF == nil {
			var zero T

			return zero, false
		}

		elem := newF.elem

		if q.front.CompareAndSwap(ptrToWord(f), ptrToWord(newF)) {
			old := f
			th.Retire(func() {
				old.tombstoned.Store(true)
				old.pin.Unpin()
			})

			return elem, true
		}
	}
}

// Empty reports whether the queue currently has no elements.
func (q *MwCASQueue[T]) Empty(th *ebr.Thread) bool {
	f := wordToPtr[T](q.front.Load())

	return wordToPtr[T](q.engine.Read(th, &f.next)) == nil
}

// IsValid walks front to back and checks the quiescent post-condition
// of spec.md §8 item 6. Not safe to call concurrently with Push/Pop.
func (q *MwCASQueue[T]) IsValid() bool {
	f := wordToPtr[T](q.front.Load())
	back := wordToPtr[T](q.back.Load())

	seen := map[*node[T]]bool{}

	cur := f
	for cur != back {
		if seen[cur] {
			return false
		}

		seen[cur] = true

		next := wordToPtr[T](cur.next.Load())
		if next == nil {
			return false
		}

		cur = next
	}

	return wordToPtr[T](back.next.Load()) == nil
}

// sortedEntries orders two mwcas entries by target address, which
// spec.md §4.3 requires of every mwcas call to keep helpers from
// cycling.
func sortedEntries(a, b mwcas.Entry) []mwcas.Entry {
	if uintptrOf(a.Addr) <= uintptrOf(b.Addr) {
		return []mwcas.Entry{a, b}
	}

	return []mwcas.Entry{b, a}
}

func uintptrOf(w *word.Word) uintptr {
	return uintptr(unsafe.Pointer(w))
}
