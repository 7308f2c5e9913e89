// Command darkflight propagates a meteoroid event through dark flight to
// ground impact, or an ensemble of Monte-Carlo-jittered particles, and
// writes a tabular result per spec.md §6.
package main

import (
	"fmt"
	"os"

	"github.com/dfn-toolkit/darkflight/logx"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCoder is implemented by errKind-wrapped failures (see run.go); a
// plain error that doesn't implement it is treated as argument-invalid.
type exitCoder interface{ ExitCode() int }

// exitCodeFor maps a returned error to spec.md §7's process exit code:
// 0 on success, 1 on invalid argument or missing input file, 2 on
// malformed table columns.
func exitCodeFor(err error) int {
	if ec, ok := err.(exitCoder); ok {
		return ec.ExitCode()
	}
	logx.Logger.WithError(err).Error("unclassified failure")
	return 1
}
