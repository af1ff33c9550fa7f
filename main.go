// =============================================================================
// Order Export Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Order Export Converter CLI. It
// initializes the Cobra CLI framework and delegates command execution to the
// cmd package.
//
// USAGE:
//   converter process       - Process all order exports in the input directory
//   converter version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core pipeline logic (not for external import)
//   - pkg/           : Shared utilities
//
// =============================================================================

package main

import (
	"github.com/orderforge/order-export-conversion/cmd"
)

func main() {
	cmd.Execute()
}
