package receipt

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// AGENCY PROFILE
// =============================================================================
//
// The agency profile is a small TOML file printed at the top and bottom of
// every receipt:
//
//   name     = "LAKA AM'LAY"
//   tagline  = "Excursions & circuits"
//   address  = ["12 rue du Port", "97400 Saint-Denis"]
//   phone    = "+262 262 00 00 00"
//   email    = "contact@laka-amlay.re"
//   tax_id   = "SIRET 000 000 000 00000"
//   currency = "EUR"
//   footer   = "Merci de votre visite !"

// Profile is the agency identity printed on receipts.
type Profile struct {
	Name     string   `toml:"name"`
	Tagline  string   `toml:"tagline"`
	Address  []string `toml:"address"`
	Phone    string   `toml:"phone"`
	Email    string   `toml:"email"`
	TaxID    string   `toml:"tax_id"`
	Currency string   `toml:"currency"`
	Footer   string   `toml:"footer"`
}

// DefaultProfile is used when no profile file exists.
func DefaultProfile() Profile {
	return Profile{
		Name:   "LAKA AM'LAY",
		Footer: "Merci de votre confiance",
	}
}

// LoadProfile reads an agency profile. A missing file yields DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	profile := DefaultProfile()
	if path == "" {
		return profile, nil
	}
	if _, err := toml.DecodeFile(path, &profile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultProfile(), nil
		}
		return Profile{}, fmt.Errorf("failed to parse agency profile: %w", err)
	}
	return profile, nil
}

// =============================================================================
// BANK DETAILS
// =============================================================================

// BankLine is one labelled line of the bank details block on invoices.
type BankLine struct {
	Label string
	Value string
}

// LoadBankDetails reads a two-column CSV (Label, Value) of bank details, in
// print order. A missing file yields no lines.
func LoadBankDetails(path string) ([]BankLine, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read bank details: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\uFEFF"))))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse bank details: %w", err)
	}

	var lines []BankLine
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		label, value := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		if i == 0 && strings.EqualFold(label, "label") {
			continue
		}
		if label == "" && value == "" {
			continue
		}
		lines = append(lines, BankLine{Label: label, Value: value})
	}
	return lines, nil
}
