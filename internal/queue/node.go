// Package queue implements the two lock-free FIFO variants described
// in spec.md §4.5/§4.6: a classic Michael–Scott queue built on
// single-word CAS, and a variant whose push atomically updates both
// the tail pointer and the old tail's next pointer via one mwcas call.
//
// Both variants share the same node layout, sentinel, and EBR-backed
// retirement; they differ only in how a push publishes the new
// back/next pointers, which is exactly the cost spec.md §4.6 exists to
// measure. See DESIGN.md for why that stays two concrete types rather
// than one generic type over a CAS/mwcas strategy interface.
package queue

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/calvinalkan/mwcasbench/internal/word"
)

// node is one queue element. next holds either 0 (no successor yet) or
// the address of the following node, tag bit clear, per the shared
// encoding rule in [ptrToWord].
//
// Every node, once linked into a queue, is reachable only through
// word-encoded (plain uint64) pointers the garbage collector does not
// scan — front/back/next never hold a typed *node[T] the GC can trace.
// pin keeps the node alive regardless; newNode pins it at construction
// and the EBR retire callback unpins it once no thread can still be
// mid-dereference of it.
type node[T any] struct {
	elem T
	next word.Word

	pin runtime.Pinner

	// tombstoned is set by the EBR retire callback once this node is
	// no longer reachable from front and safe to reclaim. Nothing in
	// this module reads it; it only records that the callback has run.
	tombstoned atomic.Bool
}

// newNode allocates a node and pins it so the garbage collector leaves
// it alone while it is reachable only via word-encoded pointers. The
// pin is released by the EBR retire callback, see [CASQueue.Pop] and
// [MwCASQueue.Pop].
func newNode[T any](elem T) *node[T] {
	n := &node[T]{elem: elem}
	n.pin.Pin(n)

	return n
}

// ptrToWord packs a node pointer into the plain-value half of a Word:
// the tag bit (bit 0) is always left clear, so a pointer-carrying Word
// is never mistaken for a descriptor reference. Left-shifting by one
// costs nothing in practice since heap addresses fit comfortably
// inside 63 bits.
func ptrToWord[T any](n *node[T]) uint64 {
	return uint64(uintptr(unsafe.Pointer(n))) << 1
}

// wordToPtr is the inverse of ptrToWord.
func wordToPtr[T any](v uint64) *node[T] {
	return (*node[T])(unsafe.Pointer(uintptr(v >> 1))) //nolint:gosec // controlled internal encoding
}
