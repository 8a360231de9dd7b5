// =============================================================================
// Excursion POS - Quoting Service
// =============================================================================
//
// This module orchestrates a booking from the operator's input to the printed
// receipt.
//
// QUOTE PIPELINE:
//   1. Validate the request
//   2. Look the combination up in the catalog
//   3. Price it (supplements, party size, margin)
//   4. Allocate the next reference and append the record to the ledger
//   5. Render the receipt
//   6. Write the receipt to the output directory
//
//   Steps 1 to 3 fail without touching the ledger. Once step 4 succeeds the
//   quote exists: a rendering or writing failure is reported on the result
//   but does not undo it.
//
// INVOICE PIPELINE:
//   1. Reload the ledger (another session may have added quotes)
//   2. Promote the quote reference to its invoice reference
//   3. Render and write the invoice receipt
//
//   Invoices are never written to the ledger.
//
// =============================================================================

package quoting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/laka-amlay/excursion-pos/internal/invoicing"
	"github.com/laka-amlay/excursion-pos/internal/ledger"
	"github.com/laka-amlay/excursion-pos/internal/pricing"
	"github.com/laka-amlay/excursion-pos/internal/receipt"
	"github.com/laka-amlay/excursion-pos/internal/types"
	"github.com/laka-amlay/excursion-pos/internal/validation"
	"github.com/laka-amlay/excursion-pos/pkg/utils"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrNoCatalog is returned when pricing is asked of a service built without
// a catalog.
var ErrNoCatalog = errors.New("no catalog loaded")

// DefaultPackageLabel is recorded when the catalog row has no package tier.
const DefaultPackageLabel = "Standard"

// CatalogLookup finds the priced catalog row for a booking.
type CatalogLookup interface {
	FindEntry(category types.Category, packageTier, transportMode, circuit string) (types.CatalogEntry, error)
}

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// QuoteResult is the outcome of a recorded quote.
type QuoteResult struct {
	// Record is the ledger row as persisted.
	Record types.LedgerRecord

	// Breakdown details the computation of the total.
	Breakdown pricing.Breakdown

	// Warnings lists non-blocking validation findings.
	Warnings []*types.ValidationError

	// Receipt is the rendered receipt, nil without a renderer.
	Receipt []byte

	// ReceiptPath is where the receipt was written, "" if it was not.
	ReceiptPath string

	// ReceiptErr is set when the quote was recorded but its receipt could
	// not be rendered or written.
	ReceiptErr error
}

// InvoiceResult is the outcome of an invoice request.
type InvoiceResult struct {
	// InvoiceReference is the "F" reference of the invoice.
	InvoiceReference string

	// Record is the source quote's ledger row, unchanged.
	Record types.LedgerRecord

	Receipt     []byte
	ReceiptPath string
}

// =============================================================================
// SERVICE STRUCTURE
// =============================================================================

// Options configures a Service.
type Options struct {
	// Catalog prices quotes. Optional: without it the service only issues
	// invoices of recorded quotes.
	Catalog CatalogLookup

	Store *ledger.Store

	// Renderer produces receipts. Optional.
	Renderer receipt.Renderer

	// Files writes receipts to the output directory. Optional.
	Files *utils.FileManager

	// FileNameFormat names receipt files. Default: "{kind}_{ref}_{timestamp}.txt"
	FileNameFormat string

	// Fees and DefaultMargin feed the pricing engine.
	Fees          pricing.Fees
	DefaultMargin decimal.Decimal

	// Validator checks requests. Default: validation.NewValidator().
	Validator *validation.Validator

	Logger zerolog.Logger

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// Service records quotes and issues invoices.
type Service struct {
	catalog   CatalogLookup
	store     *ledger.Store
	promoter  *invoicing.Promoter
	renderer  receipt.Renderer
	files     *utils.FileManager
	nameFmt   string
	fees      pricing.Fees
	margin    decimal.Decimal
	validator *validation.Validator
	log       zerolog.Logger
	now       func() time.Time
}

// New creates a Service.
//
// PARAMETERS:
//   - opts: Store is required; everything else has a default or is optional.
//
// RETURNS:
//   - A new Service.
//   - An error if a required dependency is missing.
func New(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("quoting service needs a ledger store")
	}
	if opts.FileNameFormat == "" {
		opts.FileNameFormat = "{kind}_{ref}_{timestamp}.txt"
	}
	if opts.Validator == nil {
		opts.Validator = validation.NewValidator()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		catalog:   opts.Catalog,
		store:     opts.Store,
		promoter:  invoicing.NewPromoter(opts.Store),
		renderer:  opts.Renderer,
		files:     opts.Files,
		nameFmt:   opts.FileNameFormat,
		fees:      opts.Fees,
		margin:    opts.DefaultMargin,
		validator: opts.Validator,
		log:       opts.Logger.With().Str("component", "quoting").Logger(),
		now:       opts.Now,
	}, nil
}

// =============================================================================
// QUOTES
// =============================================================================

// Price validates and prices a request without recording anything.
func (s *Service) Price(req types.QuoteRequest) (pricing.Breakdown, []*types.ValidationError, error) {
	if s.catalog == nil {
		return pricing.Breakdown{}, nil, ErrNoCatalog
	}

	result := s.validator.ValidateQuote(req)
	if err := result.Err(); err != nil {
		return pricing.Breakdown{}, nil, err
	}

	entry, err := s.catalog.FindEntry(req.Category, req.PackageTier, req.TransportMode, req.Circuit)
	if err != nil {
		return pricing.Breakdown{}, nil, err
	}

	margin := s.margin
	if req.MarginPercent != nil {
		margin = *req.MarginPercent
	}

	addons := pricing.Addons{Meal: req.Meal, Guide: req.Guide, SiteVisits: req.SiteVisits}
	breakdown, err := pricing.Quote(entry, addons, s.fees, req.PartySize, margin)
	if err != nil {
		return pricing.Breakdown{}, nil, err
	}
	return breakdown, result.Warnings, nil
}

// CreateQuote runs the quote pipeline.
//
// PARAMETERS:
//   - ctx: Bounds the wait for the ledger lock.
//   - req: The operator's request.
//
// RETURNS:
//   - The recorded quote. ReceiptErr reports a receipt failure after the
//     quote was recorded.
//   - An error if the quote was not recorded. Validation, catalog and
//     pricing errors leave the ledger unchanged.
func (s *Service) CreateQuote(ctx context.Context, req types.QuoteRequest) (QuoteResult, error) {
	var result QuoteResult

	// =========================================================================
	// STEPS 1-3: VALIDATE, LOOK UP, PRICE
	// =========================================================================

	breakdown, warnings, err := s.Price(req)
	if err != nil {
		s.log.Debug().Err(err).Str("client", req.ClientName).Msg("quote rejected")
		return result, err
	}
	for _, w := range warnings {
		s.log.Warn().Str("field", w.Field).Str("value", w.Value).Msg(w.Message)
	}
	result.Breakdown = breakdown
	result.Warnings = warnings

	// =========================================================================
	// STEP 4: ALLOCATE AND RECORD
	// =========================================================================

	date := req.Date
	if date.IsZero() {
		date = s.now()
	}
	packageLabel := breakdown.Entry.PackageTier
	if packageLabel == "" {
		packageLabel = DefaultPackageLabel
	}

	rec, err := s.store.AllocateQuote(ctx, types.LedgerRecord{
		Date:               date,
		ClientName:         req.ClientName,
		Contact:            req.Contact,
		CircuitDescription: breakdown.Entry.CircuitDescription,
		PartySize:          req.PartySize,
		TotalAmount:        pricing.RoundForLedger(breakdown.Total),
		PackageLabel:       packageLabel,
		OptionsSummary:     breakdown.Addons.Summary(),
	})
	if err != nil {
		return result, fmt.Errorf("failed to record quote: %w", err)
	}
	result.Record = rec

	s.log.Info().
		Str("ref", rec.Reference).
		Str("circuit", rec.CircuitDescription).
		Int("pax", rec.PartySize).
		Str("total", rec.TotalAmount.StringFixed(2)).
		Msg("quote recorded")

	// =========================================================================
	// STEPS 5-6: RENDER AND WRITE
	// =========================================================================

	result.Receipt, result.ReceiptPath, result.ReceiptErr = s.emit(types.Quote, rec, rec.Reference)
	return result, nil
}

// =============================================================================
// INVOICES
// =============================================================================

// CreateInvoice issues the invoice of a recorded quote. The ledger is not
// modified; issuing the same invoice twice produces the same reference.
func (s *Service) CreateInvoice(ctx context.Context, quoteRef string) (InvoiceResult, error) {
	if err := ctx.Err(); err != nil {
		return InvoiceResult{}, err
	}
	if err := s.store.Reload(); err != nil {
		return InvoiceResult{}, err
	}

	invoiceRef, rec, err := s.promoter.Promote(quoteRef)
	if err != nil {
		return InvoiceResult{}, err
	}

	data, path, err := s.emit(types.Invoice, rec, invoiceRef)
	if err != nil {
		return InvoiceResult{}, err
	}

	s.log.Info().Str("quote", rec.Reference).Str("invoice", invoiceRef).Msg("invoice issued")
	return InvoiceResult{InvoiceReference: invoiceRef, Record: rec, Receipt: data, ReceiptPath: path}, nil
}

// Eligible lists the quote references that can be invoiced.
func (s *Service) Eligible() ([]string, error) {
	if err := s.store.Reload(); err != nil {
		return nil, err
	}
	return s.promoter.Eligible(), nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// emit renders a document and writes it to the output directory when the
// service has a renderer and a file manager.
func (s *Service) emit(kind types.DocumentKind, rec types.LedgerRecord, ref string) ([]byte, string, error) {
	if s.renderer == nil {
		return nil, "", nil
	}

	data, err := s.renderer.Render(kind, rec, rec.ClientName, ref, rec.Contact, rec.OptionsSummary)
	if err != nil {
		s.log.Error().Err(err).Str("ref", ref).Msg("failed to render receipt")
		return nil, "", fmt.Errorf("failed to render %s: %w", kind, err)
	}
	if s.files == nil {
		return data, "", nil
	}

	path := s.files.OutputPath(s.nameFmt, map[string]string{
		"kind": strings.ToLower(kind.Title()),
		"ref":  ref,
	})
	if err := utils.WriteFileAtomic(path, data, 0644); err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("failed to write receipt")
		return data, "", fmt.Errorf("failed to write %s receipt: %w", kind, err)
	}

	s.log.Debug().Str("path", path).Msg("receipt written")
	return data, path, nil
}
