// =============================================================================
// Excursion POS - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - catalog
//   - pricing
//   - reference
//   - ledger
//   - invoicing
//   - receipt
//   - validation
//   - quoting
//
// =============================================================================

package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used in the ledger file.
const DateLayout = "2006-01-02"

// =============================================================================
// DOCUMENT KINDS
// =============================================================================

// DocumentKind distinguishes the quote and invoice reference namespaces.
type DocumentKind int

const (
	// Quote is a priced, numbered proposal ("Devis").
	Quote DocumentKind = iota

	// Invoice is the billing document derived from a quote ("Facture").
	Invoice
)

// Prefix returns the reference prefix character for the kind.
func (k DocumentKind) Prefix() string {
	if k == Invoice {
		return "F"
	}
	return "D"
}

// Title returns the heading printed on the receipt.
func (k DocumentKind) Title() string {
	if k == Invoice {
		return "Facture"
	}
	return "Devis"
}

func (k DocumentKind) String() string {
	if k == Invoice {
		return "invoice"
	}
	return "quote"
}

// =============================================================================
// CATALOG TYPES
// =============================================================================

// Category is the kind of excursion. It drives which add-ons are available.
type Category int

const (
	// Land excursions expose meal, guide and site-visit add-ons.
	Land Category = iota

	// Sea excursions are sold as all-inclusive packages.
	Sea
)

func (c Category) String() string {
	if c == Sea {
		return "sea"
	}
	return "land"
}

// ParseCategory maps the free-text "Type" column of the catalog to a Category.
// Both the English and the French spellings used by the agency are accepted.
func ParseCategory(value string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "land", "terre", "terrestre", "circuit terrestre":
		return Land, nil
	case "sea", "mer", "maritime", "nautique", "excursion maritime":
		return Sea, nil
	default:
		return Land, fmt.Errorf("unknown excursion category %q", value)
	}
}

// CatalogEntry is one priceable offering of the catalog.
type CatalogEntry struct {
	// Category is the excursion kind (land or sea).
	Category Category

	// PackageTier is the "Formule" column.
	PackageTier string

	// TransportMode is the "Transport" column.
	TransportMode string

	// CircuitDescription is the "Circuit" column.
	CircuitDescription string

	// BasePrice is the per-person price before supplements and margin.
	BasePrice decimal.Decimal

	// SourceRow is the 1-indexed row of the entry in the catalog file.
	SourceRow int
}

// =============================================================================
// LEDGER TYPES
// =============================================================================

// LedgerRecord is one row of the historical ledger.
//
// Contact, PackageLabel and OptionsSummary are optional columns; when a ledger
// file lacks them they are read back as the empty string.
type LedgerRecord struct {
	Date               time.Time
	Reference          string
	ClientName         string
	Contact            string
	CircuitDescription string
	PartySize          int
	TotalAmount        decimal.Decimal
	PackageLabel       string
	OptionsSummary     string
}

// Equal reports whether two records carry the same data. Dates compare by
// calendar day and amounts by value.
func (r LedgerRecord) Equal(o LedgerRecord) bool {
	return r.Date.Format(DateLayout) == o.Date.Format(DateLayout) &&
		r.Reference == o.Reference &&
		r.ClientName == o.ClientName &&
		r.Contact == o.Contact &&
		r.CircuitDescription == o.CircuitDescription &&
		r.PartySize == o.PartySize &&
		r.TotalAmount.Equal(o.TotalAmount) &&
		r.PackageLabel == o.PackageLabel &&
		r.OptionsSummary == o.OptionsSummary
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// QuoteRequest is what the operator enters to price and record a booking.
type QuoteRequest struct {
	ClientName string
	Contact    string

	// Catalog key.
	Category      Category
	PackageTier   string
	TransportMode string
	Circuit       string

	PartySize int

	// MarginPercent is within [0, 100]. Nil means the configured default.
	MarginPercent *decimal.Decimal

	// Add-ons. Ignored for sea excursions.
	Meal       bool
	Guide      bool
	SiteVisits int

	// Date of the quote. Zero means today.
	Date time.Time
}
