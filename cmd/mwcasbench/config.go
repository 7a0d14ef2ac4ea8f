package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tailscale/hujson"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/mwcasbench/internal/mwcas"
)

// errConfigFileRead mirrors the teacher's config.go sentinel-error
// style: one sentinel per failure kind, wrapped with context at the
// call site.
var errConfigFileRead = errors.New("cannot read config file")

// errUnknownImplementation is returned when none, or more than one, of
// -ours/-pmwcas/-single/-queue_cas/-queue_mwcas is selected.
var errUnknownImplementation = errors.New("exactly one of -ours, -pmwcas, -single, -queue_cas, -queue_mwcas must be set")

// errPMwCASNotImplemented documents the supplemented-but-unimplemented
// flag: the flag exists so the CLI surface is contract-complete, but
// selecting it is a configuration error (SPEC_FULL.md §10).
var errPMwCASNotImplemented = errors.New("-pmwcas is not implemented: PMwCAS requires a persistent-memory backend outside this benchmark's scope")

// runConfig is assembled from defaults, then an optional JSONC sweep
// file, then CLI flags — highest precedence last, mirroring the
// teacher's config.go merge order (defaults -> files -> CLI overrides).
type runConfig struct {
	NumExec       int     `json:"num_exec"`
	NumThread     int     `json:"num_thread"`
	NumField      int     `json:"num_field"`
	NumTarget     int     `json:"num_target"`
	SkewParameter float64 `json:"skew_parameter"`
	Seed          int64   `json:"seed"`
	Ours          bool    `json:"ours"`
	PMwCAS        bool    `json:"pmwcas"`
	Single        bool    `json:"single"`
	QueueCAS      bool    `json:"queue_cas"`
	QueueMwCAS    bool    `json:"queue_mwcas"`
	CSV           bool    `json:"csv"`
	Throughput    bool    `json:"throughput"`
	Out           string  `json:"out"`
}

// defaultRunConfig returns the baseline configuration before any sweep
// file or CLI flag is applied.
func defaultRunConfig() runConfig {
	return runConfig{
		NumExec:       1_000_000,
		NumThread:     4,
		NumField:      1000,
		NumTarget:     2,
		SkewParameter: 0,
		Seed:          1,
		Ours:          true,
		Throughput:    true,
	}
}

// loadSweepConfig reads a JSONC (hujson) sweep-config file and decodes
// it onto a copy of base, the way the teacher's config.go tolerates
// comments/trailing commas in .tk.json via hujson.Standardize.
func loadSweepConfig(path string, base runConfig) (runConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return runConfig{}, fmt.Errorf("%w: %s: %v", errConfigFileRead, path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return runConfig{}, fmt.Errorf("%w: %s: %v", errConfigFileRead, path, err)
	}

	cfg := base
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return runConfig{}, fmt.Errorf("%w: %s: %v", errConfigFileRead, path, err)
	}

	return cfg, nil
}

// parseFlags parses args into a runConfig, applying defaults, then an
// optional -config sweep file, then explicit flags (in that
// precedence order). It never touches os.Args/os.Exit so it stays
// unit-testable, mirroring internal/cli/run.go's pattern.
func parseFlags(args []string, errOut *strings.Builder) (runConfig, error) {
	fs := flag.NewFlagSet("mwcasbench", flag.ContinueOnError)
	fs.SetOutput(errOut)

	def := defaultRunConfig()

	configPath := fs.String("config", "", "JSONC sweep-config file pre-populating flag defaults")
	numExec := fs.Int("num_exec", def.NumExec, "total operations per run")
	numThread := fs.Int("num_thread", def.NumThread, "worker count")
	numField := fs.Int("num_field", def.NumField, "size of shared field array")
	numTarget := fs.Int("num_target", def.NumTarget, "mwcas arity per op (1..MaxEntries)")
	skew := fs.Float64("skew_parameter", def.SkewParameter, "Zipf skew for target selection")
	seed := fs.Int64("seed", def.Seed, "rng seed")
	ours := fs.Bool("ours", def.Ours, "run the mwcas implementation")
	pmwcas := fs.Bool("pmwcas", def.PMwCAS, "run the PMwCAS implementation (not implemented)")
	single := fs.Bool("single", def.Single, "run the single-word-CAS implementation")
	queueCAS := fs.Bool("queue_cas", def.QueueCAS, "benchmark the single-word-CAS queue instead of raw field mwcas/single ops")
	queueMwCAS := fs.Bool("queue_mwcas", def.QueueMwCAS, "benchmark the mwcas-backed queue instead of raw field mwcas/single ops")
	csv := fs.Bool("csv", def.CSV, "emit CSV output instead of text")
	throughput := fs.Bool("throughput", def.Throughput, "measure throughput instead of latency")
	out := fs.String("out", def.Out, "write the report to this file atomically instead of only stdout")

	if err := fs.Parse(args); err != nil {
		return runConfig{}, err
	}

	cfg := def

	if *configPath != "" {
		sweep, err := loadSweepConfig(*configPath, cfg)
		if err != nil {
			return runConfig{}, err
		}

		cfg = sweep
	}

	if fs.Changed("num_exec") {
		cfg.NumExec = *numExec
	}

	if fs.Changed("num_thread") {
		cfg.NumThread = *numThread
	}

	if fs.Changed("num_field") {
		cfg.NumField = *numField
	}

	if fs.Changed("num_target") {
		cfg.NumTarget = *numTarget
	}

	if fs.Changed("skew_parameter") {
		cfg.SkewParameter = *skew
	}

	if fs.Changed("seed") {
		cfg.Seed = *seed
	}

	if fs.Changed("ours") {
		cfg.Ours = *ours
	}

	if fs.Changed("pmwcas") {
		cfg.PMwCAS = *pmwcas
	}

	if fs.Changed("single") {
		cfg.Single = *single
	}

	if fs.Changed("queue_cas") {
		cfg.QueueCAS = *queueCAS
	}

	if fs.Changed("queue_mwcas") {
		cfg.QueueMwCAS = *queueMwCAS
	}

	if fs.Changed("csv") {
		cfg.CSV = *csv
	}

	if fs.Changed("throughput") {
		cfg.Throughput = *throughput
	}

	if fs.Changed("out") {
		cfg.Out = *out
	}

	// ours/pmwcas/single/queue_cas/queue_mwcas are mutually exclusive
	// selectors; CLI flags above may have flipped more than one on, or
	// turned the default "ours" off without turning anything else on.
	if fs.Changed("ours") || fs.Changed("pmwcas") || fs.Changed("single") ||
		fs.Changed("queue_cas") || fs.Changed("queue_mwcas") {
		cfg.Ours, cfg.PMwCAS, cfg.Single, cfg.QueueCAS, cfg.QueueMwCAS = false, false, false, false, false

		if fs.Changed("ours") {
			cfg.Ours = *ours
		}

		if fs.Changed("pmwcas") {
			cfg.PMwCAS = *pmwcas
		}

		if fs.Changed("single") {
			cfg.Single = *single
		}

		if fs.Changed("queue_cas") {
			cfg.QueueCAS = *queueCAS
		}

		if fs.Changed("queue_mwcas") {
			cfg.QueueMwCAS = *queueMwCAS
		}
	}

	return cfg, validateRunConfig(cfg)
}

func validateRunConfig(cfg runConfig) error {
	if cfg.NumExec <= 0 {
		return fmt.Errorf("num_exec must be positive, got %d", cfg.NumExec)
	}

	if cfg.NumThread <= 0 {
		return fmt.Errorf("num_thread must be positive, got %d", cfg.NumThread)
	}

	if cfg.NumField <= 0 {
		return fmt.Errorf("num_field must be positive, got %d", cfg.NumField)
	}

	if cfg.NumTarget < 1 {
		return fmt.Errorf("num_target must be at least 1, got %d", cfg.NumTarget)
	}

	if cfg.NumTarget > cfg.NumField {
		return fmt.Errorf("num_target (%d) cannot exceed num_field (%d)", cfg.NumTarget, cfg.NumField)
	}

	if cfg.NumTarget > mwcas.MaxEntries {
		return fmt.Errorf("num_target (%d) exceeds max arity (%d)", cfg.NumTarget, mwcas.MaxEntries)
	}

	if cfg.SkewParameter < 0 {
		return fmt.Errorf("skew_parameter must be >= 0, got %f", cfg.SkewParameter)
	}

	if cfg.Seed < 0 {
		return fmt.Errorf("seed must be >= 0, got %d", cfg.Seed)
	}

	selected := 0
	for _, v := range []bool{cfg.Ours, cfg.PMwCAS, cfg.Single, cfg.QueueCAS, cfg.QueueMwCAS} {
		if v {
			selected++
		}
	}

	if selected != 1 {
		return errUnknownImplementation
	}

	if cfg.PMwCAS {
		return errPMwCASNotImplemented
	}

	return nil
}
