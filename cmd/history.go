package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/laka-amlay/excursion-pos/internal/reference"
	"github.com/laka-amlay/excursion-pos/internal/types"
	"github.com/spf13/cobra"
)

var historyLimit int

// historyCmd prints the most recent ledger rows, oldest first.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the latest quotes of the ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cfgFile, verbose, ledgerScope)
		if err != nil {
			return err
		}

		next := reference.Reference{Kind: types.Quote, Sequence: a.store.NextSequence()}

		records := a.store.Tail(historyLimit)
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "The ledger is empty.")
			fmt.Fprintf(cmd.OutOrStdout(), "Next quote: %s<CLIENT>\n", next)
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tREF\tCLIENT\tCIRCUIT\tPAX\tTOTAL\tFORMULE\tOPTIONS")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				r.Date.Format(types.DateLayout), r.Reference, r.ClientName, r.CircuitDescription,
				r.PartySize, r.TotalAmount.StringFixed(2), r.PackageLabel, r.OptionsSummary)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d row(s)\n", len(records), a.store.Count())
		fmt.Fprintf(cmd.OutOrStdout(), "Next quote: %s<CLIENT>\n", next)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of rows to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}
