package queue

import (
	"github.com/calvinalkan/mwcasbench/internal/ebr"
	"github.com/calvinalkan/mwcasbench/internal/word"
)

// CASQueue is the single-word-CAS Michael–Scott FIFO of spec.md §4.5.
// The zero value is not usable; construct with [NewCASQueue].
type CASQueue[T any] struct {
	front word.Word
	back  word.Word

	domain *ebr.Domain
}

// NewCASQueue creates an empty queue backed by domain for node
// reclamation. Every Push/Pop caller must have its own [ebr.Thread]
// registered against the same domain.
func NewCASQueue[T any](domain *ebr.Domain) *CASQueue[T] {
	var zero T

	sentinel := newNode[T](zero)
	enc := ptrToWord(sentinel)

	q := &CASQueue[T]{domain: domain}
	q.front.Store(enc)
	q.back.Store(enc)

	return q
}

// Push appends x to the tail of the queue. Implements spec.md §4.5's
// push: install the new node's link first, then best-effort advance
// back — a racing Push will help advance back if this thread's own
// advance is lost.
func (q *CASQueue[T]) Push(_ *ebr.Thread, x T) {
	n := newNode[T](x)
	nEnc := ptrToWord(n)

	var t *node[T]

	for {
		t = wordToPtr[T](q.back.Load())

		next := wordToPtr[T](t.next.Load())
		if next != nil {
			// back is lagging behind a push that already linked its
			// node; help advance it before retrying our own insert.
			q.back.CompareAndSwap(ptrToWord(t), ptrToWord(next))

			continue
		}

		if t.next.CompareAndSwap(0, nEnc) {
			break
		}
	}

	q.back.CompareAndSwap(ptrToWord(t), nEnc)
}

// Pop removes and returns the element at the front of the queue, or
// ok=false if the queue is empty. Must be called with a guard-owning
// [ebr.Thread]; Pop opens and closes its own guard.
func (q *CASQueue[T]) Pop(th *ebr.Thread) (val T, ok bool) {
	g := th.Enter()
	defer g.Leave()

	for {
		f := wordToPtr[T](q.front.Load())

		newF := wordToPtr[T](f.next.Load())
		if newF == nil {
			var zero T

			return zero, false
		}

		// Read elem before the CAS: once front advances, f may be
		// retired and its memory's logical ownership transferred to
		// EBR before this thread's guard closes.
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
func (q *CASQueue[T]) Empty(th *ebr.Thread) bool {
	g := th.Enter()
	defer g.Leave()

	f := wordToPtr[T](q.front.Load())

	return wordToPtr[T](f.next.Load()) == nil
}

// IsValid walks front to back and checks spec.md §8 item 6's
// quiescent post-condition. Not safe to call concurrently with Push or
// Pop; spec.md §9 notes the source's equivalent scan has the same
// restriction.
func (q *CASQueue[T]) IsValid() bool {
	f := wordToPtr[T](q.front.Load())
	back := wordToPtr[T](q.back.Load())

	seen := map[*node[T]]bool{}

	cur := f
	for cur != back {
		if seen[cur] {
			return false // cycle
		}

		seen[cur] = true

		next := wordToPtr[T](cur.next.Load())
		if next == nil {
			return false // ran off the end before reaching back
		}

		cur = next
	}

	return wordToPtr[T](back.next.Load()) == nil
}
