package cmd

import (
	"fmt"

	"github.com/laka-amlay/excursion-pos/internal/ledger"
	"github.com/spf13/cobra"
)

var exportFile string

// exportCmd writes the whole ledger to an Excel workbook for the accountant.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ledger to an Excel workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cfgFile, verbose, ledgerScope)
		if err != nil {
			return err
		}

		path := exportFile
		if path == "" {
			path = a.files.OutputPath("historique_{timestamp}.xlsx", nil)
		}

		records := a.store.LoadAll()
		if err := ledger.ExportXLSX(records, path); err != nil {
			return err
		}
		a.log.Info().Str("path", path).Int("rows", len(records)).Msg("ledger exported")
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d row(s) to %s\n", len(records), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFile, "output", "o", "", "Workbook path (default: output directory)")
	rootCmd.AddCommand(exportCmd)
}
