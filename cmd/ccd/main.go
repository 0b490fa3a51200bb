// Package main is the entry point of ccd, the cloud cost dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
