// =============================================================================
// Excursion POS - Main Entry Point
// =============================================================================
//
// This is the main entry point of posctl, the point-of-sale tool of an
// excursion agency. It delegates command execution to the cmd package.
//
// USAGE:
//   posctl quote     - Record a quote and print its receipt
//   posctl invoice   - Issue the invoice of a recorded quote
//   posctl history   - Show the latest quotes
//   posctl version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Catalog, pricing, ledger, invoicing and receipts
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/laka-amlay/excursion-pos/cmd"
)

func main() {
	cmd.Execute()
}
