package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/laka-amlay/excursion-pos/internal/catalog"
	"github.com/laka-amlay/excursion-pos/internal/types"
	"github.com/spf13/cobra"
)

var catalogFilter struct {
	category  string
	tier      string
	transport string
}

// catalogCmd lists the choices offered at each step of a booking. With a
// column name it prints that column's distinct values among the rows that
// match the filters; without one it prints the matching rows.
var catalogCmd = &cobra.Command{
	Use:   "catalog [Type|Formule|Transport|Circuit]",
	Short: "List the choices offered by the catalog",
	Example: `  posctl catalog Formule --type sea
  posctl catalog Circuit --type land --formule Standard --transport Minibus`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := catalogFilterFromFlags()
		if err != nil {
			return err
		}

		a, err := loadApp(cfgFile, verbose, quoteScope)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			values, err := a.catalog.DistinctValues(columnName(args[0]), filter)
			if err != nil {
				return err
			}
			for _, v := range values {
				fmt.Fprintln(out, v)
			}
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TYPE\tFORMULE\tTRANSPORT\tCIRCUIT\tPRIX")
		for _, e := range a.catalog.Entries() {
			if !filter.Match(e) {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				e.Category, e.PackageTier, e.TransportMode, e.CircuitDescription, e.BasePrice.StringFixed(2))
		}
		return tw.Flush()
	},
}

func catalogFilterFromFlags() (catalog.Filter, error) {
	filter := catalog.Filter{
		PackageTier:   catalogFilter.tier,
		TransportMode: catalogFilter.transport,
	}
	if catalogFilter.category != "" {
		category, err := types.ParseCategory(catalogFilter.category)
		if err != nil {
			return catalog.Filter{}, err
		}
		filter.Category = &category
	}
	return filter, nil
}

// columnName accepts a column name in any case.
func columnName(arg string) string {
	for _, c := range []string{catalog.ColumnType, catalog.ColumnFormule, catalog.ColumnTransport, catalog.ColumnCircuit} {
		if strings.EqualFold(arg, c) {
			return c
		}
	}
	return arg
}

func init() {
	catalogCmd.Flags().StringVar(&catalogFilter.category, "type", "", "Only rows of this category (land or sea)")
	catalogCmd.Flags().StringVar(&catalogFilter.tier, "formule", "", "Only rows of this package tier")
	catalogCmd.Flags().StringVar(&catalogFilter.transport, "transport", "", "Only rows of this transport mode")
	rootCmd.AddCommand(catalogCmd)
}
