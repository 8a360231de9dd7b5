package ledger

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/laka-amlay/excursion-pos/internal/reference"
	"github.com/laka-amlay/excursion-pos/internal/types"
	"github.com/shopspring/decimal"
)

// =============================================================================
// FILE FORMAT
// =============================================================================
//
//   Date,Ref,Client,Contact,Circuit,Pax,Total,Formule,Options
//   2024-05-02,D000001-JOHN,John,0612,Lagon Bleu,3,198.00,Standard,"Repas, Guide"
//
// UTF-8, written with a leading BOM so spreadsheet tools open it correctly.
// One record per physical line: line breaks inside values are written as
// spaces, so a damaged line never bleeds into its neighbours. Other text,
// surrounding spaces included, is stored as given.

// Column names, in file order.
const (
	colDate    = "Date"
	colRef     = "Ref"
	colClient  = "Client"
	colContact = "Contact"
	colCircuit = "Circuit"
	colPax     = "Pax"
	colTotal   = "Total"
	colFormule = "Formule"
	colOptions = "Options"
)

// Header is the column order of the ledger file.
var Header = []string{colDate, colRef, colClient, colContact, colCircuit, colPax, colTotal, colFormule, colOptions}

// requiredColumns must be present in the header for rows to be readable.
// Contact, Formule and Options are optional and default to "".
var requiredColumns = []string{colDate, colRef, colClient, colCircuit, colPax, colTotal}

const bom = "\uFEFF"

// dateLayouts are accepted when reading. Writing always uses types.DateLayout.
var dateLayouts = []string{types.DateLayout, "2006-01-02 15:04:05", "02/01/2006"}

// =============================================================================
// ENCODING
// =============================================================================

func encodeRecord(r types.LedgerRecord) []string {
	return []string{
		r.Date.Format(types.DateLayout),
		flatten(r.Reference),
		flatten(r.ClientName),
		flatten(r.Contact),
		flatten(r.CircuitDescription),
		strconv.Itoa(r.PartySize),
		r.TotalAmount.StringFixed(2),
		flatten(r.PackageLabel),
		flatten(r.OptionsSummary),
	}
}

func flatten(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

// encodeLines renders rows as CSV text, one line per row.
func encodeLines(rows ...[]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to encode ledger row: %w", err)
	}
	return buf.Bytes(), nil
}

// =============================================================================
// DECODING
// =============================================================================

// header maps column names to field positions.
type header map[string]int

// knownColumns is the set of names a header line may carry.
var knownColumns = func() map[string]bool {
	m := make(map[string]bool, len(Header))
	for _, c := range Header {
		m[c] = true
	}
	return m
}()

// parseHeader returns the column mapping of a header line, or ok=false if the
// line is not a ledger header. Every non-empty field must be a ledger column
// name and Ref and Date must both be present: free-text values such as a
// client called "Ref" never turn a data row into a header.
func parseHeader(fields []string) (h header, ok bool) {
	h = make(header, len(fields))
	for i, f := range fields {
		name := strings.TrimSpace(strings.TrimPrefix(f, bom))
		if name == "" {
			continue
		}
		if !knownColumns[name] {
			return nil, false
		}
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	_, hasRef := h[colRef]
	_, hasDate := h[colDate]
	return h, hasRef && hasDate
}

// canonicalHeader maps Header to its own positions. It reads rows that come
// before any header line.
func canonicalHeader() header {
	h := make(header, len(Header))
	for i, c := range Header {
		h[c] = i
	}
	return h
}

// canonical reports whether the header is exactly Header, in order.
func (h header) canonical() bool {
	if len(h) != len(Header) {
		return false
	}
	for i, c := range Header {
		if h[c] != i {
			return false
		}
	}
	return true
}

// missing lists the required columns absent from the header.
func (h header) missing() []string {
	var out []string
	for _, c := range requiredColumns {
		if _, ok := h[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// get returns a field as written. Free-text columns keep their spaces.
func (h header) get(fields []string, column string) string {
	i, ok := h[column]
	if !ok || i >= len(fields) {
		return ""
	}
	return fields[i]
}

// value returns a trimmed field, for the columns parsed into dates, numbers
// and references.
func (h header) value(fields []string, column string) string {
	return strings.TrimSpace(h.get(fields, column))
}

// decodeRecord converts one ledger line into a record. The returned string
// explains why the row is unreadable.
func decodeRecord(h header, fields []string) (types.LedgerRecord, string) {
	var rec types.LedgerRecord

	date, err := parseDate(h.value(fields, colDate))
	if err != nil {
		return rec, err.Error()
	}
	rec.Date = date

	rec.Reference = h.value(fields, colRef)
	if _, err := reference.Parse(rec.Reference); err != nil {
		return rec, err.Error()
	}

	rec.ClientName = h.get(fields, colClient)
	if strings.TrimSpace(rec.ClientName) == "" {
		return rec, "empty client"
	}

	rec.CircuitDescription = h.get(fields, colCircuit)
	if strings.TrimSpace(rec.CircuitDescription) == "" {
		return rec, "empty circuit"
	}

	pax, err := parsePartySize(h.value(fields, colPax))
	if err != nil {
		return rec, err.Error()
	}
	rec.PartySize = pax

	total, err := parseAmount(h.value(fields, colTotal))
	if err != nil {
		return rec, err.Error()
	}
	rec.TotalAmount = total

	rec.Contact = h.get(fields, colContact)
	rec.PackageLabel = h.get(fields, colFormule)
	rec.OptionsSummary = h.get(fields, colOptions)

	return rec, ""
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unreadable date %q", s)
}

// parsePartySize accepts "3" and the "3.0" spreadsheet tools sometimes write.
func parsePartySize(s string) (int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() || d.LessThan(decimal.NewFromInt(1)) {
		return 0, fmt.Errorf("unreadable party size %q", s)
	}
	return int(d.IntPart()), nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("unreadable total %q", s)
	}
	return d.Round(2), nil
}

// =============================================================================
// RECORD VALIDATION
// =============================================================================

// validateRecord checks a record about to be written.
func validateRecord(r types.LedgerRecord) error {
	var errs types.ValidationErrors
	if r.Date.IsZero() {
		errs = append(errs, &types.ValidationError{Field: "date", Rule: "required", Message: "date is required"})
	}
	if _, err := reference.Parse(r.Reference); err != nil {
		errs = append(errs, &types.ValidationError{Field: "reference", Value: r.Reference, Rule: "format", Message: err.Error()})
	}
	if strings.TrimSpace(r.ClientName) == "" {
		errs = append(errs, &types.ValidationError{Field: "client", Rule: "required", Message: "client name is required"})
	}
	if strings.TrimSpace(r.CircuitDescription) == "" {
		errs = append(errs, &types.ValidationError{Field: "circuit", Rule: "required", Message: "circuit is required"})
	}
	if r.PartySize < 1 {
		errs = append(errs, &types.ValidationError{Field: "party_size", Value: strconv.Itoa(r.PartySize), Rule: "min", Message: "party size must be at least 1"})
	}
	if r.TotalAmount.IsNegative() {
		errs = append(errs, &types.ValidationError{Field: "total", Value: r.TotalAmount.String(), Rule: "min", Message: "total cannot be negative"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
