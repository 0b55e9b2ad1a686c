// Batchflow: decision-gated manufacturing workflow compiler.
//
// An MCP server that configures pharmaceutical manufacturing workflows:
// a fixed library of process steps is gated by client-specific decision
// answers, and the surviving steps compile into a connected workflow
// diagram.
//
// Usage:
//
//	batchflow serve                      # Start MCP server (stdio transport)
//	batchflow export --client acme       # Compile and print a client's diagram
package main

import (
	"fmt"
	"os"

	"github.com/gxpkit/batchflow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
