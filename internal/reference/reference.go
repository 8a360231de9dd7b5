// Package reference mints and parses document references.
//
// A reference reads <prefix><sequence>-<NAME>, for example D000007-JEANPAUL:
// prefix "D" for quotes or "F" for invoices, a zero-padded 6-digit sequence,
// and the client name stripped to letters and digits, upper-cased.
package reference

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/laka-amlay/excursion-pos/internal/types"
)

// SequenceWidth is the zero-padded width of the numeric part.
const SequenceWidth = 6

// Reference is a parsed document reference.
type Reference struct {
	Kind     types.DocumentKind
	Sequence int
	Suffix   string
}

// String formats the reference. Sequences wider than SequenceWidth are kept
// whole rather than truncated.
func (r Reference) String() string {
	return fmt.Sprintf("%s%0*d-%s", r.Kind.Prefix(), SequenceWidth, r.Sequence, r.Suffix)
}

// Sanitize keeps only the letters and digits of a client name, upper-cased.
func Sanitize(clientName string) string {
	var b strings.Builder
	for _, r := range clientName {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteString(strings.ToUpper(string(r)))
		}
	}
	return b.String()
}

// Allocate mints the reference following a ledger of ledgerSize records.
// An empty sanitized name is allowed and yields a bare "D000007-".
func Allocate(clientName string, kind types.DocumentKind, ledgerSize int) (Reference, error) {
	if ledgerSize < 0 {
		return Reference{}, &types.ValidationError{
			Field:   "ledger_size",
			Value:   strconv.Itoa(ledgerSize),
			Rule:    "min",
			Message: "ledger size cannot be negative",
		}
	}
	return Reference{
		Kind:     kind,
		Sequence: ledgerSize + 1,
		Suffix:   Sanitize(clientName),
	}, nil
}

// Parse decomposes a reference string.
func Parse(s string) (Reference, error) {
	if s == "" {
		return Reference{}, &types.InvalidReferenceError{Reference: s, Reason: "empty reference"}
	}

	var kind types.DocumentKind
	switch s[0] {
	case 'D':
		kind = types.Quote
	case 'F':
		kind = types.Invoice
	default:
		return Reference{}, &types.InvalidReferenceError{Reference: s, Reason: "unknown prefix"}
	}

	digits, suffix, ok := strings.Cut(s[1:], "-")
	if !ok {
		return Reference{}, &types.InvalidReferenceError{Reference: s, Reason: "missing '-' separator"}
	}
	if len(digits) < SequenceWidth {
		return Reference{}, &types.InvalidReferenceError{Reference: s, Reason: "sequence too short"}
	}
	seq, err := strconv.Atoi(digits)
	if err != nil || seq < 1 || strings.ContainsAny(digits, "+-") {
		return Reference{}, &types.InvalidReferenceError{Reference: s, Reason: "sequence is not a positive number"}
	}

	return Reference{Kind: kind, Sequence: seq, Suffix: suffix}, nil
}

// ToInvoice derives the invoice reference of a quote reference by replacing
// the first quote prefix character only.
func ToInvoice(quoteRef string) (string, error) {
	if !strings.HasPrefix(quoteRef, types.Quote.Prefix()) {
		return "", &types.InvalidReferenceError{Reference: quoteRef, Reason: "not a quote reference"}
	}
	return strings.Replace(quoteRef, types.Quote.Prefix(), types.Invoice.Prefix(), 1), nil
}
