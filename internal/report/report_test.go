package report_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/calvinalkan/mwcasbench/internal/bench"
	"github.com/calvinalkan/mwcasbench/internal/report"
)

func TestRenderThroughputText(t *testing.T) {
	t.Parallel()

	out := report.Render(bench.Result{Throughput: 12345.5}, true, report.Text)
	if !strings.HasPrefix(out, "Throughput [Ops/s]: 12345.5") {
		t.Fatalf("Render() = %q, want Throughput prefix", out)
	}
}

func TestRenderLatencyTextHasFiveLines(t *testing.T) {
	t.Parallel()

	result := bench.Result{Latency: bench.Percentiles{
		Min: time.Microsecond,
		P90: 2 * time.Microsecond,
		P95: 3 * time.Microsecond,
		P99: 4 * time.Microsecond,
		Max: 5 * time.Microsecond,
	}}

	out := report.Render(result, false, report.Text)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5: %q", len(lines), out)
	}
}

func TestRenderCSVSingleRow(t *testing.T) {
	t.Parallel()

	out := report.Render(bench.Result{Throughput: 1.0, TotalOps: 10}, true, report.CSV)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + one data row: %q", len(lines), out)
	}

	if !strings.Contains(lines[1], ",") {
		t.Fatalf("data row not comma-separated: %q", lines[1])
	}
}

func TestWriteFileRoundTrips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := dir + "/report.txt"

	result := bench.Result{Throughput: 42}

	if err := report.WriteFile(path, result, true, report.Text); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if want := report.Render(result, true, report.Text); string(data) != want {
		t.Fatalf("file contents = %q, want %q", data, want)
	}
}
