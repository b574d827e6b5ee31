// Package main is the entry point for vdcexport. Without a subcommand it
// runs the interactive export TUI; "export" runs one export non-interactively.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
