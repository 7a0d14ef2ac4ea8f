package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunThroughputSmoke(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	args := []string{
		"--num_exec", "2000",
		"--num_thread", "4",
		"--num_field", "100",
		"--num_target", "2",
		"--ours",
		"--throughput",
	}

	exitCode := Run(nil, &stdout, &stderr, args, nil)

	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0; stderr = %q", exitCode, stderr.String())
	}

	if stderr.String() != "" {
		t.Errorf("stderr = %q, want empty", stderr.String())
	}

	if !strings.HasPrefix(stdout.String(), "Throughput [Ops/s]:") {
		t.Errorf("stdout = %q, want Throughput line", stdout.String())
	}
}

func TestRunLatencySmoke(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	args := []string{
		"--num_exec", "2000",
		"--num_thread", "4",
		"--num_field", "100",
		"--num_target", "2",
		"--single",
		"--throughput=false",
	}

	exitCode := Run(nil, &stdout, &stderr, args, nil)

	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0; stderr = %q", exitCode, stderr.String())
	}

	for _, want := range []string{"Min [ns]:", "P90 [ns]:", "P95 [ns]:", "P99 [ns]:", "Max [ns]:"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("stdout missing %q; got %q", want, stdout.String())
		}
	}
}

func TestRunCSVOutput(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	args := []string{
		"--num_exec", "1000",
		"--num_thread", "2",
		"--num_field", "50",
		"--num_target", "1",
		"--ours",
		"--throughput",
		"--csv",
	}

	exitCode := Run(nil, &stdout, &stderr, args, nil)

	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0; stderr = %q", exitCode, stderr.String())
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv output = %q, want header + one row", stdout.String())
	}

	if lines[0] != "throughput_ops_per_sec,total_ops" {
		t.Errorf("csv header = %q", lines[0])
	}
}

func TestRunQueueCASSmoke(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	args := []string{
		"--num_exec", "2000",
		"--num_thread", "4",
		"--num_field", "100",
		"--num_target", "2",
		"--queue_cas",
		"--throughput",
	}

	exitCode := Run(nil, &stdout, &stderr, args, nil)

	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0; stderr = %q", exitCode, stderr.String())
	}

	if !strings.HasPrefix(stdout.String(), "Throughput [Ops/s]:") {
		t.Errorf("stdout = %q, want Throughput line", stdout.String())
	}
}

func TestRunQueueMwCASSmoke(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	args := []string{
		"--num_exec", "2000",
		"--num_thread", "4",
		"--num_field", "100",
		"--num_target", "2",
		"--queue_mwcas",
		"--throughput",
	}

	exitCode := Run(nil, &stdout, &stderr, args, nil)

	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0; stderr = %q", exitCode, stderr.String())
	}

	if !strings.HasPrefix(stdout.String(), "Throughput [Ops/s]:") {
		t.Errorf("stdout = %q, want Throughput line", stdout.String())
	}
}

func TestRunRejectsConflictingConfig(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	exitCode := Run(nil, &stdout, &stderr, []string{"--num_target", "20", "--num_field", "5", "--ours"}, nil)

	if exitCode == 0 {
		t.Fatalf("exit code = 0, want non-zero for num_target > num_field")
	}

	if stderr.String() == "" {
		t.Errorf("stderr should contain an error message")
	}
}

func TestRunLoadsSweepConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "sweep.jsonc")

	jsonc := `{
		// sweep file values should take effect without repeating them as flags
		"num_exec": 1500,
		"num_thread": 2,
		"num_field": 40,
		"num_target": 1,
		"ours": false,
		"single": true,
		"throughput": false,
		"csv": true,
	}`

	if err := os.WriteFile(path, []byte(jsonc), 0o600); err != nil {
		t.Fatalf("WriteFile() = %v", err)
	}

	var stdout, stderr bytes.Buffer

	exitCode := Run(nil, &stdout, &stderr, []string{"--config", path}, nil)

	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0; stderr = %q", exitCode, stderr.String())
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv output = %q, want header + one row (sweep file's csv=true should have taken effect)", stdout.String())
	}

	if lines[0] != "min_ns,p90_ns,p95_ns,p99_ns,max_ns,total_ops" {
		t.Errorf("csv header = %q, want latency columns (sweep file's single=true should have taken effect)", lines[0])
	}
}

func TestRunConfigFlagOverridesSweepFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "sweep.jsonc")

	jsonc := `{
		"num_exec": 1500,
		"num_thread": 2,
		"num_field": 40,
		"num_target": 1,
		"single": true,
	}`

	if err := os.WriteFile(path, []byte(jsonc), 0o600); err != nil {
		t.Fatalf("WriteFile() = %v", err)
	}

	var stdout, stderr bytes.Buffer

	// -ours on the command line must win over the sweep file's single=true,
	// per parseFlags' documented defaults -> file -> flags precedence.
	exitCode := Run(nil, &stdout, &stderr, []string{"--config", path, "--ours", "--throughput"}, nil)

	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0; stderr = %q", exitCode, stderr.String())
	}

	if !strings.HasPrefix(stdout.String(), "Throughput [Ops/s]:") {
		t.Errorf("stdout = %q, want Throughput line (explicit -ours/-throughput should override sweep file)", stdout.String())
	}
}

func TestRunRejectsPMwCAS(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	exitCode := Run(nil, &stdout, &stderr, []string{"--pmwcas"}, nil)

	if exitCode == 0 {
		t.Fatalf("exit code = 0, want non-zero for -pmwcas")
	}

	if !strings.Contains(stderr.String(), "not implemented") {
		t.Errorf("stderr = %q, want mention of not implemented", stderr.String())
	}
}
