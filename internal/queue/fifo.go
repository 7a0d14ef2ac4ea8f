package queue

import "github.com/calvinalkan/mwcasbench/internal/ebr"

// FIFO is the method set [CASQueue] and [MwCASQueue] share, letting a
// caller (the benchmark driver's queue subjects) hold either behind one
// type without caring which push/pop algorithm backs it.
type FIFO[T any] interface {
	Push(th *ebr.Thread, x T)
	Pop(th *ebr.Thread) (T, bool)
	Empty(th *ebr.Thread) bool
	IsValid() bool
}

var (
	_ FIFO[int] = (*CASQueue[int])(nil)
	_ FIFO[int] = (*MwCASQueue[int])(nil)
)
