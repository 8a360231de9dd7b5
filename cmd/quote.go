// =============================================================================
// Excursion POS - Quote and Price Commands
// =============================================================================
//
// COMMAND USAGE:
//   posctl quote --client NAME --circuit NAME [selection flags]
//   posctl price --circuit NAME [selection flags]
//
// 'quote' records the booking in the ledger under the next "D" reference,
// then prints the receipt and the path it was written to. 'price' runs the
// same validation and pricing but records nothing.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"

	"github.com/laka-amlay/excursion-pos/internal/types"
	"github.com/laka-amlay/excursion-pos/internal/validation"
	"github.com/spf13/cobra"
)

var quoteFlags bookingFlags

var priceFlags bookingFlags

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Record a quote and print its receipt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := quoteFlags.request()
		if err != nil {
			return err
		}

		a, err := loadApp(cfgFile, verbose, quoteScope)
		if err != nil {
			return err
		}

		result, err := a.service.CreateQuote(cmd.Context(), req)
		if err != nil {
			return explain(err)
		}

		out := cmd.OutOrStdout()
		printWarnings(cmd.ErrOrStderr(), result.Warnings)
		if len(result.Receipt) > 0 {
			out.Write(result.Receipt)
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "Quote %s recorded (%s)\n", result.Record.Reference, result.Record.TotalAmount.StringFixed(2))
		if result.ReceiptPath != "" {
			fmt.Fprintf(out, "Receipt: %s\n", result.ReceiptPath)
		}
		if result.ReceiptErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: the quote is recorded but its receipt was not written: %v\n", result.ReceiptErr)
		}
		return nil
	},
}

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a booking without recording it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := priceFlags.request()
		if err != nil {
			return err
		}
		// The client is only needed once the quote is recorded.
		req.ClientName = "-"

		a, err := loadApp(cfgFile, verbose, quoteScope)
		if err != nil {
			return err
		}

		breakdown, warnings, err := a.service.Price(req)
		if err != nil {
			return explain(err)
		}
		printWarnings(cmd.ErrOrStderr(), warnings)
		printBreakdown(cmd.OutOrStdout(), breakdown)
		return nil
	},
}

// explain turns grouped validation errors into the numbered list the
// operator reads; other errors are returned as they are.
func explain(err error) error {
	var errs types.ValidationErrors
	if errors.As(err, &errs) {
		return errors.New(validation.FormatErrors(errs))
	}
	return err
}

func init() {
	quoteFlags.bind(quoteCmd, true)
	priceFlags.bind(priceCmd, false)

	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(priceCmd)
}
