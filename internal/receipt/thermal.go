// =============================================================================
// Excursion POS - Receipt Renderer
// =============================================================================
//
// This module renders quotes and invoices as plain-text tickets for an 80mm
// thermal printer.
//
// LAYOUT (42 columns):
//
//                 LAKA AM'LAY
//            Excursions & circuits
//   ------------------------------------------
//   DEVIS : D000001-JOHN
//   Date: 2024-05-02
//   Client: John
//   Contact: 0612345678
//   ------------------------------------------
//   Circuit: Cascades
//   Pax: 3 | Standard
//   Options: Repas, Guide
//   ------------------------------------------
//                           TOTAL: €198.00
//   ------------------------------------------
//   (invoices only: bank details block)
//            Merci de votre confiance
//
// Long values wrap on word boundaries. Amounts are formatted by go-money in
// the configured currency.
//
// =============================================================================

package receipt

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Rhymond/go-money"
	"github.com/laka-amlay/excursion-pos/internal/types"
	"github.com/shopspring/decimal"
)

// Renderer turns a ledger record into a printable document.
type Renderer interface {
	Render(kind types.DocumentKind, rec types.LedgerRecord, clientName, reference, contact, optionsText string) ([]byte, error)
}

// =============================================================================
// RENDER OPTIONS
// =============================================================================

// Thermal renders fixed-width text receipts.
type Thermal struct {
	// Profile is the agency header and footer.
	Profile Profile

	// Bank is printed on invoices only.
	Bank []BankLine

	// Width is the number of characters per line.
	// Default: 42
	Width int

	// Currency is the ISO code used for amounts. The profile currency wins
	// when set.
	// Default: "EUR"
	Currency string
}

// NewThermal creates a renderer with the default width and currency.
func NewThermal(profile Profile, bank []BankLine) *Thermal {
	return &Thermal{Profile: profile, Bank: bank, Width: 42, Currency: "EUR"}
}

func (t *Thermal) width() int {
	if t.Width <= 0 {
		return 42
	}
	return t.Width
}

func (t *Thermal) currency() string {
	if t.Profile.Currency != "" {
		return t.Profile.Currency
	}
	if t.Currency != "" {
		return t.Currency
	}
	return "EUR"
}

// =============================================================================
// RENDERING
// =============================================================================

// Render produces the receipt text for a quote or an invoice.
//
// PARAMETERS:
//   - kind: Quote or Invoice. Selects the title and the bank block.
//   - rec: The ledger record. Its date, circuit, party size, package and
//     total are printed.
//   - clientName, reference, contact, optionsText: Printed as given.
//
// RETURNS:
//   - The receipt as UTF-8 text, newline terminated.
func (t *Thermal) Render(kind types.DocumentKind, rec types.LedgerRecord, clientName, reference, contact, optionsText string) ([]byte, error) {
	if reference == "" {
		return nil, fmt.Errorf("cannot render a %s without reference", kind)
	}

	w := t.width()
	var buf bytes.Buffer
	rule := strings.Repeat("-", w)

	// Header
	t.centered(&buf, strings.ToUpper(t.Profile.Name))
	t.centered(&buf, t.Profile.Tagline)
	for _, line := range t.Profile.Address {
		t.centered(&buf, line)
	}
	if t.Profile.Phone != "" {
		t.centered(&buf, "Tel: "+t.Profile.Phone)
	}
	t.centered(&buf, t.Profile.Email)
	t.centered(&buf, t.Profile.TaxID)
	buf.WriteString(rule + "\n")

	// Document
	t.field(&buf, strings.ToUpper(kind.Title())+" :", reference)
	if !rec.Date.IsZero() {
		t.field(&buf, "Date:", rec.Date.Format(types.DateLayout))
	}
	t.field(&buf, "Client:", clientName)
	t.field(&buf, "Contact:", contact)
	buf.WriteString(rule + "\n")

	// Booking
	t.field(&buf, "Circuit:", rec.CircuitDescription)
	pax := fmt.Sprintf("%d", rec.PartySize)
	if rec.PackageLabel != "" {
		pax += " | " + rec.PackageLabel
	}
	t.field(&buf, "Pax:", pax)
	if optionsText != "" {
		t.field(&buf, "Options:", optionsText)
	}
	buf.WriteString(rule + "\n")

	// Total
	total := "TOTAL: " + FormatAmount(rec.TotalAmount, t.currency())
	buf.WriteString(padLeft(total, w) + "\n")
	buf.WriteString(rule + "\n")

	if kind == types.Invoice && len(t.Bank) > 0 {
		t.centered(&buf, "COORDONNEES BANCAIRES")
		for _, line := range t.Bank {
			t.field(&buf, line.Label+":", line.Value)
		}
		buf.WriteString(rule + "\n")
	}

	t.centered(&buf, t.Profile.Footer)
	return buf.Bytes(), nil
}

// FormatAmount formats an amount with the currency's own decimals, separators
// and symbol, for example "€198.00" for EUR.
func FormatAmount(amount decimal.Decimal, code string) string {
	cur := money.New(0, code).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// centered writes text centered on its own lines. Empty text writes nothing.
func (t *Thermal) centered(buf *bytes.Buffer, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	w := t.width()
	for _, line := range wrap(text, w) {
		pad := (w - utf8.RuneCountInString(line)) / 2
		buf.WriteString(strings.Repeat(" ", pad) + line + "\n")
	}
}

// field writes "Label value", wrapping the value under itself.
func (t *Thermal) field(buf *bytes.Buffer, label, value string) {
	w := t.width()
	prefix := label + " "
	indent := utf8.RuneCountInString(prefix)
	if indent > w/2 {
		// Labels longer than half the line put the value on the next lines.
		buf.WriteString(label + "\n")
		prefix, indent = "", 0
	}
	lines := wrap(value, w-indent)
	if len(lines) == 0 {
		lines = []string{""}
	}
	for i, line := range lines {
		if i == 0 {
			buf.WriteString(strings.TrimRight(prefix+line, " ") + "\n")
			continue
		}
		buf.WriteString(strings.Repeat(" ", indent) + line + "\n")
	}
}

// wrap splits text into lines of at most width characters, breaking on
// spaces. Words longer than width are cut.
func wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	var current []rune
	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		for len(runes) > width {
			if len(current) > 0 {
				lines = append(lines, string(current))
				current = nil
			}
			lines = append(lines, string(runes[:width]))
			runes = runes[width:]
		}
		switch {
		case len(current) == 0:
			current = runes
		case len(current)+1+len(runes) <= width:
			current = append(append(current, ' '), runes...)
		default:
			lines = append(lines, string(current))
			current = runes
		}
	}
	if len(current) > 0 {
		lines = append(lines, string(current))
	}
	return lines
}

func padLeft(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}
