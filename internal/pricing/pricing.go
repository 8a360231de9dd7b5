// =============================================================================
// Excursion POS - Pricing Engine
// =============================================================================
//
// This module turns a catalog base price into the amount quoted to a client.
//
// FORMULA:
//   total = (basePrice + supplements) * partySize * (1 + marginPercent/100)
//
// SUPPLEMENTS:
//   Land excursions expose three add-ons:
//     - meal        : flat fee
//     - guide       : flat fee
//     - site visits : fee per site * number of sites
//   Sea excursions are sold all-inclusive: their supplements are always zero,
//   whatever add-ons the caller passes in.
//
// ROUNDING:
//   Totals are exact decimals. They are rounded to 2 places only when written
//   to the ledger (RoundForLedger), never during computation.
//
// =============================================================================

package pricing

import (
	"fmt"
	"strings"

	"github.com/laka-amlay/excursion-pos/internal/types"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// INPUT TYPES
// =============================================================================

// Fees are the add-on prices configured by the agency.
type Fees struct {
	Meal      decimal.Decimal
	Guide     decimal.Decimal
	SiteVisit decimal.Decimal
}

// Addons are the options selected by the operator for one booking.
type Addons struct {
	Meal       bool
	Guide      bool
	SiteVisits int
}

// Summary renders the selected add-ons as the free-text "Options" column.
func (a Addons) Summary() string {
	var parts []string
	if a.Meal {
		parts = append(parts, "Repas")
	}
	if a.Guide {
		parts = append(parts, "Guide")
	}
	if a.SiteVisits > 0 {
		parts = append(parts, fmt.Sprintf("Visites x%d", a.SiteVisits))
	}
	return strings.Join(parts, ", ")
}

// ForCategory drops the add-ons a category does not offer.
func (a Addons) ForCategory(category types.Category) Addons {
	if category == types.Sea {
		return Addons{}
	}
	return a
}

// =============================================================================
// COMPUTATION
// =============================================================================

// Supplements returns the per-person add-on amount for a booking.
// Sea excursions always yield zero.
func Supplements(category types.Category, addons Addons, fees Fees) (decimal.Decimal, error) {
	if category == types.Sea {
		return decimal.Zero, nil
	}
	if addons.SiteVisits < 0 {
		return decimal.Zero, &types.ValidationError{
			Field:   "site_visits",
			Value:   fmt.Sprint(addons.SiteVisits),
			Rule:    "min",
			Message: "number of sites cannot be negative",
		}
	}
	checks := []struct {
		field string
		fee   decimal.Decimal
	}{
		{"meal_fee", fees.Meal},
		{"guide_fee", fees.Guide},
		{"site_visit_fee", fees.SiteVisit},
	}
	for _, c := range checks {
		if c.fee.IsNegative() {
			return decimal.Zero, &types.ValidationError{Field: c.field, Value: c.fee.String(), Rule: "min", Message: "fee cannot be negative"}
		}
	}

	total := decimal.Zero
	if addons.Meal {
		total = total.Add(fees.Meal)
	}
	if addons.Guide {
		total = total.Add(fees.Guide)
	}
	if addons.SiteVisits > 0 {
		total = total.Add(fees.SiteVisit.Mul(decimal.NewFromInt(int64(addons.SiteVisits))))
	}
	return total, nil
}

// ComputeTotal applies party size and margin to the supplemented base price.
// The result is not rounded.
func ComputeTotal(basePrice, supplements decimal.Decimal, partySize int, marginPercent decimal.Decimal) (decimal.Decimal, error) {
	if basePrice.IsNegative() {
		return decimal.Zero, &types.ValidationError{Field: "base_price", Value: basePrice.String(), Rule: "min", Message: "price cannot be negative"}
	}
	if supplements.IsNegative() {
		return decimal.Zero, &types.ValidationError{Field: "supplements", Value: supplements.String(), Rule: "min", Message: "supplements cannot be negative"}
	}
	if partySize < 1 {
		return decimal.Zero, &types.ValidationError{Field: "party_size", Value: fmt.Sprint(partySize), Rule: "min", Message: "party size must be at least 1"}
	}
	if marginPercent.IsNegative() || marginPercent.GreaterThan(hundred) {
		return decimal.Zero, &types.ValidationError{Field: "margin", Value: marginPercent.String(), Rule: "range", Message: "margin must be within [0, 100]"}
	}

	factor := decimal.NewFromInt(1).Add(marginPercent.Div(hundred))
	return basePrice.Add(supplements).
		Mul(decimal.NewFromInt(int64(partySize))).
		Mul(factor), nil
}

// RoundForLedger rounds a total to the 2 decimal places stored in the ledger.
func RoundForLedger(total decimal.Decimal) decimal.Decimal {
	return total.Round(2)
}

// =============================================================================
// BREAKDOWN
// =============================================================================

// Breakdown details how a quote total was reached.
type Breakdown struct {
	Entry         types.CatalogEntry
	Addons        Addons
	BasePrice     decimal.Decimal
	Supplements   decimal.Decimal
	PartySize     int
	MarginPercent decimal.Decimal

	// Subtotal is (base + supplements) * party size, before margin.
	Subtotal decimal.Decimal

	// Total is the unrounded amount.
	Total decimal.Decimal
}

// Quote prices a catalog entry for a party. Add-ons the entry's category does
// not offer are discarded before pricing.
func Quote(entry types.CatalogEntry, addons Addons, fees Fees, partySize int, marginPercent decimal.Decimal) (Breakdown, error) {
	addons = addons.ForCategory(entry.Category)

	supplements, err := Supplements(entry.Category, addons, fees)
	if err != nil {
		return Breakdown{}, err
	}

	total, err := ComputeTotal(entry.BasePrice, supplements, partySize, marginPercent)
	if err != nil {
		return Breakdown{}, err
	}

	return Breakdown{
		Entry:         entry,
		Addons:        addons,
		BasePrice:     entry.BasePrice,
		Supplements:   supplements,
		PartySize:     partySize,
		MarginPercent: marginPercent,
		Subtotal:      entry.BasePrice.Add(supplements).Mul(decimal.NewFromInt(int64(partySize))),
		Total:         total,
	}, nil
}
