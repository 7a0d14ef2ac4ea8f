package mwcas_test

import (
	"errors"
	"testing"

	"github.com/calvinalkan/mwcasbench/internal/ebr"
	"github.com/calvinalkan/mwcasbench/internal/mwcas"
	"github.com/calvinalkan/mwcasbench/internal/word"
)

func TestPoolExhaustionAborts(t *testing.T) {
	t.Parallel()

	// A retired descriptor's slot is only returned to the free list
	// once ebr.Domain.Advance reclaims it (spec.md §4.2's two-epoch
	// gap), not the instant Run returns. With a single-slot pool and
	// no manual Advance, a second attempt must observe
	// ErrPoolExhausted rather than block or corrupt state.
	domain := ebr.NewDomain()
	engine := mwcas.NewEngine(mwcas.NewPool(1), domain)

	th := domain.Register()

	a := word.New(word.EncodePlain(0))
	b := word.New(word.EncodePlain(0))

	ok, err := engine.Run(th, []mwcas.Entry{{Addr: a, Expected: word.EncodePlain(0), Desired: word.EncodePlain(1)}})
	if err != nil || !ok {
		t.Fatalf("first Run() = %v, %v, want true, nil", ok, err)
	}

	_, err = engine.Run(th, []mwcas.Entry{{Addr: b, Expected: word.EncodePlain(0), Desired: word.EncodePlain(1)}})
	if !errors.Is(err, mwcas.ErrPoolExhausted) {
		t.Fatalf("second Run() error = %v, want ErrPoolExhausted", err)
	}

	domain.Advance()
	domain.Advance()

	ok, err = engine.Run(th, []mwcas.Entry{{Addr: b, Expected: word.EncodePlain(0), Desired: word.EncodePlain(1)}})
	if err != nil || !ok {
		t.Fatalf("Run() after reclaim = %v, %v, want true, nil", ok, err)
	}
}

func TestHelpingObservesForeignDescriptor(t *testing.T) {
	t.Parallel()

	domain := ebr.NewDomain()
	engine := mwcas.NewEngine(mwcas.NewPool(8), domain)

	a := word.New(word.EncodePlain(1))
	b := word.New(word.EncodePlain(2))
	c := word.New(word.EncodePlain(3))
	d := word.New(word.EncodePlain(4))

	th1 := domain.Register()
	th2 := domain.Register()

	done := make(chan bool, 1)

	go func() {
		th := th1
		ok, err := engine.Run(th, []mwcas.Entry{
			{Addr: a, Expected: word.EncodePlain(1), Desired: word.EncodePlain(11)},
			{Addr: b, Expected: word.EncodePlain(2), Desired: word.EncodePlain(12)},
			{Addr: c, Expected: word.EncodePlain(3), Desired: word.EncodePlain(13)},
			{Addr: d, Expected: word.EncodePlain(4), Desired: word.EncodePlain(14)},
		})
		done <- ok && err == nil
	}()

	// A second, overlapping mwcas touching one of the same addresses
	// must complete correctly regardless of whether it races ahead of
	// or helps the first.
	ok2, err2 := engine.Run(th2, []mwcas.Entry{
		{Addr: c, Expected: word.EncodePlain(3), Desired: word.EncodePlain(23)},
	})

	ok1 := <-done

	if err2 != nil {
		t.Fatalf("second Run error = %v", err2)
	}

	// Exactly one of the two attempts on c can have won the race,
	// assuming the one that lost saw c != 3 in its own view. Both
	// attempts returning true would mean c applied twice, which is
	// only possible if the second ran strictly after the first
	// finalized to 13 and then expected 3 again, which it didn't.
	got := word.DecodePlain(engine.Read(th1, c))

	switch {
	case ok1 && ok2:
		t.Fatalf("both attempts on c succeeded (c = %d); exactly one can", got)
	case ok1 && got != 13:
		t.Fatalf("c = %d after the arity-4 attempt won, want 13", got)
	case ok2 && got != 23:
		t.Fatalf("c = %d after the arity-1 attempt won, want 23", got)
	}

	if !ok1 && !ok2 {
		t.Fatal("both attempts failed; expected at least one to succeed under no contention from elsewhere")
	}
}
