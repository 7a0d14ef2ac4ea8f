package bench

import "sync"

// barrier is the two-gate rendezvous of spec.md §4.7: gate A blocks
// every worker until all have finished constructing private state;
// gate B blocks every worker after measurement until aggregation is
// ready to proceed. Each gate is a one-shot countdown latch built from
// a WaitGroup, generalizing the teacher's ticket.go fan-out/fan-in
// idiom ("wait for N goroutines to reach a point") from firing once to
// rendezvousing twice in the same run.
type barrier struct {
	gateA sync.WaitGroup
	gateB sync.WaitGroup

	releaseA chan struct{}
	releaseB chan struct{}
}

func newBarrier(numWorkers int) *barrier {
	b := &barrier{
		releaseA: make(chan struct{}),
		releaseB: make(chan struct{}),
	}

	b.gateA.Add(numWorkers)
	b.gateB.Add(numWorkers)

	return b
}

// arriveAndWaitA is called by a worker once its private state (op
// list, rng, result slot) is built. It blocks until every worker has
// arrived and the main goroutine has released gate A.
func (b *barrier) arriveAndWaitA() {
	b.gateA.Done()
	<-b.releaseA
}

// signalB marks this worker as arrived at gate B. Split out from
// waitReleaseB so a caller can defer signalB immediately after gate A
// — guaranteeing it fires even if the worker panics during its timed
// region, which would otherwise leave the main goroutine blocked in
// waitAllArrivedB forever. Safe to call at most once per worker.
func (b *barrier) signalB() { b.gateB.Done() }

// waitReleaseB blocks until the main goroutine releases gate B. Only
// meaningful to call after signalB, and only on the normal (no panic)
// path — a panicking worker unwinds without ever reaching this call.
func (b *barrier) waitReleaseB() { <-b.releaseB }

// waitAllArrivedA blocks the main goroutine until every worker has
// called arriveAndWaitA.
func (b *barrier) waitAllArrivedA() { b.gateA.Wait() }

// releaseAllA lets every worker blocked in arriveAndWaitA proceed.
func (b *barrier) releaseAllA() { close(b.releaseA) }

// waitAllArrivedB blocks the main goroutine until every worker has
// called signalB.
func (b *barrier) waitAllArrivedB() { b.gateB.Wait() }

// releaseAllB lets every worker blocked in waitReleaseB proceed.
// Nothing currently waits past gate B's release (workers exit after),
// but closing it keeps the gate symmetric and safe to wait on twice.
func (b *barrier) releaseAllB() { close(b.releaseB) }
