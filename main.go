// Package main is the entry point for the scheduled task scheduler.
package main

import (
	"fmt"
	"os"

	"icc.tech/scheduled/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
