package main

import (
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/calvinalkan/mwcasbench/internal/bench"
	"github.com/calvinalkan/mwcasbench/internal/ebr"
	"github.com/calvinalkan/mwcasbench/internal/mwcas"
	"github.com/calvinalkan/mwcasbench/internal/queue"
	"github.com/calvinalkan/mwcasbench/internal/report"
	"github.com/calvinalkan/mwcasbench/internal/workload"
)

// descriptorPoolSize sizes the mwcas descriptor pool generously
// relative to num_thread: a retired descriptor's slot is only
// returned to the free list once EBR reclaims it (see internal/ebr's
// gcInterval), so the pool must outlive several threads' worth of
// in-flight retirements, not just one outstanding descriptor per
// thread.
func descriptorPoolSize(numThread int) int {
	const perThread = 8192

	return numThread * perThread
}

// Run is the CLI entry point, mirroring the teacher's
// internal/cli/run.go Run(stdin, stdout, stderr, args, env) int
// pattern so it stays unit-testable without touching os.Exit.
func Run(_ io.Reader, out io.Writer, errOut io.Writer, args []string, _ map[string]string) int {
	var parseErrOut strings.Builder

	cfg, err := parseFlags(args, &parseErrOut)
	if err != nil {
		if parseErrOut.Len() > 0 {
			fmt.Fprint(errOut, parseErrOut.String())
		}

		fmt.Fprintf(errOut, "error: %v\n", err)

		return 1
	}

	result, err := runBenchmark(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)

		return 1
	}

	format := report.Text
	if cfg.CSV {
		format = report.CSV
	}

	rendered := report.Render(result, cfg.Throughput, format)
	fmt.Fprint(out, rendered)

	if cfg.Out != "" {
		if err := report.WriteFile(cfg.Out, result, cfg.Throughput, format); err != nil {
			fmt.Fprintf(errOut, "error: writing report: %v\n", err)

			return 1
		}
	}

	return 0
}

// runBenchmark wires a runConfig into internal/bench.Config, selecting
// the mwcas, single-word-CAS, CAS-queue or mwcas-queue subject per
// cfg.Ours/cfg.Single/cfg.QueueCAS/cfg.QueueMwCAS.
func runBenchmark(cfg runConfig) (bench.Result, error) {
	fields := bench.NewFieldArray(cfg.NumField)

	// Each worker needs its own selector bound to its own rng:
	// workload.Zipf's generator closes over the *rand.Rand it is built
	// with and is not safe to share across goroutines.
	newSelector := func(rng *rand.Rand) workload.FieldSelector {
		if cfg.SkewParameter > 0 {
			return workload.Zipf(rng, cfg.NumField, cfg.SkewParameter)
		}

		return workload.Uniform(cfg.NumField)
	}

	var newSubject func(idx int) bench.Subject

	switch {
	case cfg.Ours:
		domain := ebr.NewDomain()
		engine := mwcas.NewEngine(mwcas.NewPool(descriptorPoolSize(cfg.NumThread)), domain)

		newSubject = func(int) bench.Subject {
			return bench.NewMwCASSubject(fields, engine, domain.Register())
		}
	case cfg.Single:
		newSubject = func(int) bench.Subject {
			return bench.NewSingleCASSubject(fields)
		}
	case cfg.QueueCAS:
		domain := ebr.NewDomain()
		q := queue.NewCASQueue[int](domain)

		newSubject = func(int) bench.Subject {
			return bench.NewQueueCASSubject(q, domain.Register())
		}
	case cfg.QueueMwCAS:
		domain := ebr.NewDomain()
		engine := mwcas.NewEngine(mwcas.NewPool(descriptorPoolSize(cfg.NumThread)), domain)
		q := queue.NewMwCASQueue[int](engine)

		newSubject = func(int) bench.Subject {
			return bench.NewQueueMwCASSubject(q, domain.Register())
		}
	default:
		// validateRunConfig already rejects pmwcas and the
		// none-selected case; this is unreachable from the CLI.
		return bench.Result{}, fmt.Errorf("internal error: no implementation selected")
	}

	return bench.Run(bench.Config{
		NumExec:     cfg.NumExec,
		NumThread:   cfg.NumThread,
		NumField:    cfg.NumField,
		NumTarget:   cfg.NumTarget,
		Seed:        cfg.Seed,
		Throughput:  cfg.Throughput,
		NewSelector: newSelector,
		NewSubject:  newSubject,
	})
}
