// =============================================================================
// Excursion POS - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (posctl)
//   ├── quoteCmd   (posctl quote)     record a quote and print its receipt
//   ├── priceCmd   (posctl price)     price a booking without recording it
//   ├── invoiceCmd (posctl invoice)   issue the invoice of a recorded quote
//   ├── historyCmd (posctl history)   show the latest ledger rows
//   ├── catalogCmd (posctl catalog)   list the choices offered by the catalog
//   ├── exportCmd  (posctl export)    export the ledger to Excel
//   ├── resetCmd   (posctl reset)     archive and discard the ledger
//   └── versionCmd (posctl version)
//
// CONFIGURATION:
//   The root command sets up the global flags (--config, --verbose). Each
//   command that needs the ledger or the catalog builds them through
//   loadApp (see app.go).
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "posctl",
	Short: "Excursion POS - quotes, invoices and receipts for a tour desk",
	Long: `posctl is the point-of-sale tool of an excursion agency. It prices
bookings from the agency's catalog, records every quote in a CSV ledger,
issues invoices from recorded quotes and prints thermal receipts.

Example Usage:
  posctl catalog                                  # List categories, tiers, transports
  posctl price --circuit Cascades --pax 3 --meal  # Price without recording
  posctl quote --client John --circuit Cascades --pax 3
  posctl invoice D000001-JOHN                     # Print the invoice of a quote
  posctl history -n 20                            # Show the last 20 quotes`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// --config flag: Allows the user to specify a custom configuration file.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	// --verbose flag: Enables debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
