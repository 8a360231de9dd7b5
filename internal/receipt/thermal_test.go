package receipt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/laka-amlay/excursion-pos/internal/types"
	"github.com/shopspring/decimal"
)

func sampleRecord() types.LedgerRecord {
	return types.LedgerRecord{
		Date:               time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Reference:          "D000001-JOHN",
		ClientName:         "John",
		Contact:            "0612345678",
		CircuitDescription: "Grand tour des cascades et des villages de l'intérieur de l'île",
		PartySize:          3,
		TotalAmount:        decimal.RequireFromString("198"),
		PackageLabel:       "Standard",
		OptionsSummary:     "Repas, Guide",
	}
}

func renderer() *Thermal {
	profile := DefaultProfile()
	profile.Tagline = "Excursions & circuits"
	return NewThermal(profile, []BankLine{
		{Label: "Banque", Value: "Banque de la Réunion"},
		{Label: "IBAN", Value: "FR76 0000 0000 0000 0000 0000 000"},
	})
}

func TestRenderQuote(t *testing.T) {
	rec := sampleRecord()
	out, err := renderer().Render(types.Quote, rec, rec.ClientName, rec.Reference, rec.Contact, rec.OptionsSummary)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	text := string(out)

	for _, want := range []string{
		"LAKA AM'LAY",
		"DEVIS : D000001-JOHN",
		"Date: 2024-05-02",
		"Client: John",
		"Contact: 0612345678",
		"Pax: 3 | Standard",
		"Options: Repas, Guide",
		"TOTAL: ",
		"198",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("receipt missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "IBAN") {
		t.Error("bank details printed on a quote")
	}
}

func TestRenderInvoice(t *testing.T) {
	rec := sampleRecord()
	out, err := renderer().Render(types.Invoice, rec, rec.ClientName, "F000001-JOHN", rec.Contact, "")
	if err != nil {
		t.Fatal(err)
	}
	text := string(out)
	if !strings.Contains(text, "FACTURE : F000001-JOHN") {
		t.Errorf("invoice title missing:\n%s", text)
	}
	if !strings.Contains(text, "IBAN: FR76") {
		t.Errorf("bank details missing:\n%s", text)
	}
	if strings.Contains(text, "Options:") {
		t.Error("empty options printed")
	}
}

func TestRenderFitsWidth(t *testing.T) {
	for _, width := range []int{24, 32, 42} {
		r := renderer()
		r.Width = width
		rec := sampleRecord()
		out, err := r.Render(types.Invoice, rec, "Jean-Paul Alexandre de la Fontaine-Beaumarchais", "F000001-JEANPAUL", "", rec.OptionsSummary)
		if err != nil {
			t.Fatal(err)
		}
		for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
			if n := utf8.RuneCountInString(line); n > width {
				t.Errorf("width %d: line %q has %d characters", width, line, n)
			}
		}
	}
}

func TestRenderRequiresReference(t *testing.T) {
	if _, err := renderer().Render(types.Quote, sampleRecord(), "John", "", "", ""); err == nil {
		t.Error("Render() accepted an empty reference")
	}
}

func TestFormatAmount(t *testing.T) {
	got := FormatAmount(decimal.RequireFromString("1234.5"), "EUR")
	if !strings.Contains(got, "234") || !strings.Contains(got, "50") {
		t.Errorf("FormatAmount() = %q", got)
	}
	if FormatAmount(decimal.RequireFromString("10.004"), "EUR") != FormatAmount(decimal.NewFromInt(10), "EUR") {
		t.Error("FormatAmount() did not round to cents")
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, nil},
		{"short", 10, []string{"short"}},
		{"one two three", 7, []string{"one two", "three"}},
		{"abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"a  b", 10, []string{"a b"}},
	}
	for _, tt := range tests {
		got := wrap(tt.text, tt.width)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("wrap(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()

	p, err := LoadProfile(filepath.Join(dir, "missing.toml"))
	if err != nil || p.Name != "LAKA AM'LAY" {
		t.Fatalf("LoadProfile(missing) = %+v, %v", p, err)
	}

	path := filepath.Join(dir, "agency.toml")
	content := "name = \"Océan Tours\"\naddress = [\"1 quai\", \"97400\"]\ncurrency = \"USD\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	p, err = LoadProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Océan Tours" || len(p.Address) != 2 || p.Currency != "USD" {
		t.Errorf("LoadProfile() = %+v", p)
	}
	if p.Footer == "" {
		t.Error("default footer lost when the file leaves it unset")
	}

	if err := os.WriteFile(path, []byte("name = \n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProfile(path); err == nil {
		t.Error("LoadProfile() accepted invalid TOML")
	}
}

func TestLoadBankDetails(t *testing.T) {
	dir := t.TempDir()

	lines, err := LoadBankDetails(filepath.Join(dir, "missing.csv"))
	if err != nil || lines != nil {
		t.Fatalf("LoadBankDetails(missing) = %v, %v", lines, err)
	}

	path := filepath.Join(dir, "bank_details.csv")
	content := "\uFEFFLabel,Value\nBanque,BRED\n,\nIBAN,\"FR76 1234\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	lines, err = LoadBankDetails(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || lines[0].Label != "Banque" || lines[1].Value != "FR76 1234" {
		t.Errorf("LoadBankDetails() = %+v", lines)
	}
}
