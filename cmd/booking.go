package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/laka-amlay/excursion-pos/internal/pricing"
	"github.com/laka-amlay/excursion-pos/internal/types"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// bookingFlags are the selection flags shared by 'quote' and 'price'.
type bookingFlags struct {
	client    string
	contact   string
	category  string
	tier      string
	transport string
	circuit   string
	pax       int
	margin    string
	meal      bool
	guide     bool
	sites     int
	date      string
}

// bind registers the flags on a command.
func (f *bookingFlags) bind(cmd *cobra.Command, withClient bool) {
	flags := cmd.Flags()
	if withClient {
		flags.StringVar(&f.client, "client", "", "Client name (required)")
		flags.StringVar(&f.contact, "contact", "", "Client phone or e-mail")
		flags.StringVar(&f.date, "date", "", "Quote date as YYYY-MM-DD (default today)")
	}
	flags.StringVar(&f.category, "type", "land", "Excursion category: land or sea")
	flags.StringVar(&f.tier, "formule", "", "Package tier, e.g. Standard or Premium")
	flags.StringVar(&f.transport, "transport", "", "Transport mode")
	flags.StringVar(&f.circuit, "circuit", "", "Circuit name (required)")
	flags.IntVarP(&f.pax, "pax", "p", 1, "Party size")
	flags.StringVar(&f.margin, "margin", "", "Margin percentage (default from config)")
	flags.BoolVar(&f.meal, "meal", false, "Add the meal option (land only)")
	flags.BoolVar(&f.guide, "guide", false, "Add a guide (land only)")
	flags.IntVar(&f.sites, "sites", 0, "Number of site visits (land only)")
}

// request converts the flags into a quote request.
func (f *bookingFlags) request() (types.QuoteRequest, error) {
	category, err := types.ParseCategory(f.category)
	if err != nil {
		return types.QuoteRequest{}, err
	}

	req := types.QuoteRequest{
		ClientName:    f.client,
		Contact:       f.contact,
		Category:      category,
		PackageTier:   f.tier,
		TransportMode: f.transport,
		Circuit:       f.circuit,
		PartySize:     f.pax,
		Meal:          f.meal,
		Guide:         f.guide,
		SiteVisits:    f.sites,
	}

	if f.margin != "" {
		margin, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(f.margin), "%"))
		if err != nil {
			return types.QuoteRequest{}, fmt.Errorf("invalid --margin %q: %w", f.margin, err)
		}
		req.MarginPercent = &margin
	}

	if f.date != "" {
		date, err := time.ParseInLocation(types.DateLayout, f.date, time.Local)
		if err != nil {
			return types.QuoteRequest{}, fmt.Errorf("invalid --date %q: %w", f.date, err)
		}
		req.Date = date
	}

	return req, nil
}

// printBreakdown writes the computation of a total, one step per line.
func printBreakdown(w io.Writer, b pricing.Breakdown) {
	fmt.Fprintf(w, "Circuit:      %s\n", b.Entry.CircuitDescription)
	fmt.Fprintf(w, "Base price:   %s\n", b.BasePrice.StringFixed(2))
	if !b.Supplements.IsZero() {
		fmt.Fprintf(w, "Supplements:  %s (%s)\n", b.Supplements.StringFixed(2), b.Addons.Summary())
	}
	fmt.Fprintf(w, "Party size:   %d\n", b.PartySize)
	fmt.Fprintf(w, "Subtotal:     %s\n", b.Subtotal.StringFixed(2))
	fmt.Fprintf(w, "Margin:       %s%%\n", b.MarginPercent.String())
	fmt.Fprintf(w, "Total:        %s\n", pricing.RoundForLedger(b.Total).StringFixed(2))
}

// printWarnings writes non-blocking validation findings.
func printWarnings(w io.Writer, warnings []*types.ValidationError) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning.Message)
	}
}
