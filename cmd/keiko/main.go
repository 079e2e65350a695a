package main

import (
	"fmt"
	"os"
)

// Exit codes. Per-case trouble (agent failures, judge failures, low scores)
// is recorded in the results directory and never changes the exit code; only
// usage and setup problems exit non-zero.
const (
	ExitSuccess    = 0
	ExitUsageError = 1
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitUsageError)
	}
}
