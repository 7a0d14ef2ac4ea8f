// Package main provides mwcasbench, a benchmark driver comparing a
// multi-word CAS primitive and its lock-free queues against
// single-word-CAS baselines.
package main

import (
	"os"
	"strings"
)

func main() {
	environ := os.Environ()
	env := make(map[string]string, len(environ))

	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	exitCode := Run(os.Stdin, os.Stdout, os.Stderr, os.Args[1:], env)

	os.Exit(exitCode)
}
