package bench

import (
	"github.com/calvinalkan/mwcasbench/internal/ebr"
	"github.com/calvinalkan/mwcasbench/internal/queue"
)

// queueCASSubject drives the single-word-CAS queue of spec.md §4.5:
// each op is a push immediately followed by a pop, the way spec.md §2's
// control flow describes a worker performing "either an MwCAS... or a
// queue op" against one shared subject.
type queueCASSubject struct {
	q      queue.FIFO[int]
	thread *ebr.Thread
}

// NewQueueCASSubject builds the per-worker CAS-queue subject. q is
// shared across all workers; thread must be registered against the
// same domain q was built with.
func NewQueueCASSubject(q *queue.CASQueue[int], thread *ebr.Thread) Subject {
	return &queueCASSubject{q: q, thread: thread}
}

func (s *queueCASSubject) Execute(op Op) bool {
	v := 0
	if len(op.Target) > 0 {
		v = op.Target[0]
	}

	s.q.Push(s.thread, v)

	// A concurrent popper on another worker may have already taken the
	// element this push just made visible; an empty-looking Pop here
	// does not mean the op failed, only that it raced another consumer.
	s.q.Pop(s.thread)

	return true
}

// queueMwCASSubject drives the mwcas-backed queue of spec.md §4.6, the
// queue-mode counterpart to mwcasSubject's raw field-array op.
type queueMwCASSubject struct {
	q      queue.FIFO[int]
	thread *ebr.Thread
}

// NewQueueMwCASSubject builds the per-worker mwcas-queue subject. q is
// shared across all workers; thread must be registered against the
// same domain q's engine was built with.
func NewQueueMwCASSubject(q *queue.MwCASQueue[int], thread *ebr.Thread) Subject {
	return &queueMwCASSubject{q: q, thread: thread}
}

func (s *queueMwCASSubject) Execute(op Op) bool {
	v := 0
	if len(op.Target) > 0 {
		v = op.Target[0]
	}

	s.q.Push(s.thread, v)
	s.q.Pop(s.thread)

	return true
}
