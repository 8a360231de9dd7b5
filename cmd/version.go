// =============================================================================
// Excursion POS - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   posctl version           full build report
//   posctl version --short   version number only, for scripts
//
// OUTPUT:
//   posctl 1.0.0 (built 2024-05-02, go1.24.11)
//   Ledger columns: Date,Ref,Client,Contact,Circuit,Pax,Total,Formule,Options
//
// The ledger column list is printed so an operator can check that a history
// file written by another desk is in the layout this build reads and writes.
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/laka-amlay/excursion-pos/internal/ledger"
	"github.com/spf13/cobra"
)

// Version and BuildDate are set at build time:
//
//	go build -ldflags "-X 'github.com/laka-amlay/excursion-pos/cmd.Version=1.2.0' \
//	  -X 'github.com/laka-amlay/excursion-pos/cmd.BuildDate=2024-05-02'"
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the posctl version and the ledger layout it uses",
	Long: `Show the posctl version, its build date and Go runtime, and the column
layout of the quote ledger (historique_devis.csv) this build reads and writes.
Use --short to print only the version number.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if versionShort {
			fmt.Fprintln(out, Version)
			return
		}
		fmt.Fprintf(out, "posctl %s (built %s, %s)\n", Version, BuildDate, runtime.Version())
		fmt.Fprintf(out, "Ledger columns: %s\n", strings.Join(ledger.Header, ","))
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
	rootCmd.AddCommand(versionCmd)
}
