package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// invoiceCmd prints the invoice of a recorded quote. Without argument it
// lists the quote references that can be invoiced.
var invoiceCmd = &cobra.Command{
	Use:   "invoice [QUOTE-REF]",
	Short: "Issue the invoice of a recorded quote",
	Long: `Issue the invoice of a recorded quote. The invoice reference is the quote
reference with its leading "D" replaced by "F". The ledger is not modified, so
the same invoice can be printed again at any time.

Without argument, list the quotes that can be invoiced.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cfgFile, verbose, invoiceScope)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			refs, err := a.service.Eligible()
			if err != nil {
				return err
			}
			if len(refs) == 0 {
				fmt.Fprintln(out, "No quote recorded yet.")
				return nil
			}
			for _, ref := range refs {
				fmt.Fprintln(out, ref)
			}
			return nil
		}

		result, err := a.service.CreateInvoice(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(result.Receipt) > 0 {
			out.Write(result.Receipt)
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "Invoice %s issued for quote %s\n", result.InvoiceReference, result.Record.Reference)
		if result.ReceiptPath != "" {
			fmt.Fprintf(out, "Receipt: %s\n", result.ReceiptPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(invoiceCmd)
}
