// Package invoicing derives invoices from recorded quotes.
//
// An invoice is not stored: it is the quote's ledger record presented under
// the invoice reference, obtained by swapping the leading "D" for "F".
// Promoting the same quote twice yields the same invoice.
package invoicing

import (
	"strings"

	"github.com/laka-amlay/excursion-pos/internal/reference"
	"github.com/laka-amlay/excursion-pos/internal/types"
)

// QuoteSource is the read side of the ledger needed to promote a quote.
type QuoteSource interface {
	Find(ref string) (types.LedgerRecord, error)
	Quotes() []types.LedgerRecord
}

// Promoter turns quote references into invoice references.
type Promoter struct {
	source QuoteSource
}

// NewPromoter returns a Promoter reading quotes from source.
func NewPromoter(source QuoteSource) *Promoter {
	return &Promoter{source: source}
}

// Promote returns the invoice reference of a recorded quote together with
// the quote's record, unchanged. Nothing is written.
//
// Errors: *types.InvalidReferenceError if ref is not a quote reference,
// *types.NotFoundError if no such quote is in the ledger.
func (p *Promoter) Promote(ref string) (string, types.LedgerRecord, error) {
	ref = strings.TrimSpace(ref)

	invoiceRef, err := reference.ToInvoice(ref)
	if err != nil {
		return "", types.LedgerRecord{}, err
	}

	rec, err := p.source.Find(ref)
	if err != nil {
		return "", types.LedgerRecord{}, &types.NotFoundError{What: "quote", Key: ref}
	}
	return invoiceRef, rec, nil
}

// Eligible lists the quote references that can be promoted, in ledger order.
func (p *Promoter) Eligible() []string {
	quotes := p.source.Quotes()
	refs := make([]string, len(quotes))
	for i, q := range quotes {
		refs[i] = q.Reference
	}
	return refs
}
