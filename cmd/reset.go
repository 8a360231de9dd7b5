package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var resetConfirmed bool

// resetCmd discards the ledger. The next quote restarts at D000001.
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Archive and discard the ledger",
	Long: `Discard every recorded quote. Unless ledger.archive_on_reset is false, the
ledger is first copied to the archive directory. The next quote restarts the
numbering at D000001.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirmed {
			return errors.New("reset discards the whole ledger; run again with --yes to confirm")
		}

		a, err := loadApp(cfgFile, verbose, ledgerScope)
		if err != nil {
			return err
		}

		count := a.store.Count()
		archivedTo, err := a.store.Reset(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Ledger reset, %d row(s) discarded\n", count)
		if archivedTo != "" {
			fmt.Fprintf(out, "Archived to %s\n", archivedTo)
		}
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "Confirm the reset")
	rootCmd.AddCommand(resetCmd)
}
