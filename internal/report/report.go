// Package report renders a [bench.Result] as text or CSV, per spec.md
// §6's output contract, and optionally writes it to disk atomically so
// a killed benchmark process never leaves a truncated report — the
// same concern the teacher's internal/fs.Real.WriteFileAtomic
// addresses for ticket files.
package report

import (
	"bytes"
	"fmt"
	"strings"

	natomic "github.com/natefinch/atomic"

	"github.com/calvinalkan/mwcasbench/internal/bench"
)

// Format selects text or CSV rendering.
type Format int

const (
	// Text renders one labeled line per statistic.
	Text Format = iota
	// CSV renders a header line followed by a single comma-separated
	// data row.
	CSV
)

// Render produces the output lines spec.md §6 specifies: either
// "Throughput [Ops/s]: <float>" or five labeled percentile lines in
// text mode, or a CSV header line plus a single data row in CSV mode.
func Render(result bench.Result, throughput bool, format Format) string {
	if format == CSV {
		return renderCSV(result, throughput)
	}

	return renderText(result, throughput)
}

func renderText(result bench.Result, throughput bool) string {
	if throughput {
		return fmt.Sprintf("Throughput [Ops/s]: %f\n", result.Throughput)
	}

	var b strings.Builder

	p := result.Latency
	fmt.Fprintf(&b, "Min [ns]: %d\n", p.Min.Nanoseconds())
	fmt.Fprintf(&b, "P90 [ns]: %d\n", p.P90.Nanoseconds())
	fmt.Fprintf(&b, "P95 [ns]: %d\n", p.P95.Nanoseconds())
	fmt.Fprintf(&b, "P99 [ns]: %d\n", p.P99.Nanoseconds())
	fmt.Fprintf(&b, "Max [ns]: %d\n", p.Max.Nanoseconds())

	return b.String()
}

func renderCSV(result bench.Result, throughput bool) string {
	if throughput {
		return fmt.Sprintf("throughput_ops_per_sec,total_ops\n%f,%d\n", result.Throughput, result.TotalOps)
	}

	p := result.Latency

	return fmt.Sprintf(
		"min_ns,p90_ns,p95_ns,p99_ns,max_ns,total_ops\n%d,%d,%d,%d,%d,%d\n",
		p.Min.Nanoseconds(), p.P90.Nanoseconds(), p.P95.Nanoseconds(), p.P99.Nanoseconds(), p.Max.Nanoseconds(),
		result.TotalOps,
	)
}

// WriteFile atomically writes the rendered report to path, so a
// process killed mid-write never leaves a truncated report file.
func WriteFile(path string, result bench.Result, throughput bool, format Format) error {
	rendered := Render(result, throughput, format)

	return natomic.WriteFile(path, bytes.NewReader([]byte(rendered)))
}
