// Command gapminder reshapes the wide Gapminder indicator tables into one
// canonical (year, country) table, exports it, and optionally serves it over
// HTTP.
package main

import (
	"fmt"
	"io"
	"os"
)

type exitCode int

const (
	exitCodeSuccess exitCode = 0
	exitCodeError   exitCode = 1
)

func main() {
	os.Exit(int(run(os.Args[1:], os.Stdout, os.Stderr)))
}

// run executes the CLI with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) exitCode {
	if args == nil {
		args = []string{}
	}
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitCodeError
	}
	return exitCodeSuccess
}
