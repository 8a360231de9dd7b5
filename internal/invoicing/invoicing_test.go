package invoicing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/laka-amlay/excursion-pos/internal/ledger"
	"github.com/laka-amlay/excursion-pos/internal/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func seededStore(t *testing.T, clients ...string) (*ledger.Store, []types.LedgerRecord) {
	t.Helper()
	store, err := ledger.Open(ledger.Options{
		Path:   filepath.Join(t.TempDir(), "historique_devis.csv"),
		Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatal(err)
	}

	var recs []types.LedgerRecord
	for _, c := range clients {
		rec, err := store.AllocateQuote(context.Background(), types.LedgerRecord{
			Date:               time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
			ClientName:         c,
			CircuitDescription: "Cascades",
			PartySize:          2,
			TotalAmount:        decimal.NewFromInt(120),
			PackageLabel:       "Standard",
		})
		if err != nil {
			t.Fatal(err)
		}
		recs = append(recs, rec)
	}
	return store, recs
}

func TestPromote(t *testing.T) {
	store, recs := seededStore(t, "Ana", "David", "Eve")
	p := NewPromoter(store)

	invoiceRef, rec, err := p.Promote("D000002-DAVID")
	if err != nil {
		t.Fatalf("Promote() error = %v", err)
	}
	if invoiceRef != "F000002-DAVID" {
		t.Errorf("invoice ref = %q, want F000002-DAVID", invoiceRef)
	}
	if !rec.Equal(recs[1]) {
		t.Errorf("record = %+v, want %+v", rec, recs[1])
	}
}

func TestPromoteIsIdempotentAndReadOnly(t *testing.T) {
	store, _ := seededStore(t, "Ana")
	before, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}

	p := NewPromoter(store)
	first, rec1, err := p.Promote("D000001-ANA")
	if err != nil {
		t.Fatal(err)
	}
	second, rec2, err := p.Promote("D000001-ANA")
	if err != nil {
		t.Fatal(err)
	}
	if first != second || !rec1.Equal(rec2) {
		t.Errorf("second promotion differs: %q vs %q", first, second)
	}

	after, _ := os.ReadFile(store.Path())
	if string(before) != string(after) {
		t.Error("Promote() modified the ledger")
	}
	if store.Count() != 1 {
		t.Errorf("Count() = %d, want 1", store.Count())
	}
}

func TestPromoteErrors(t *testing.T) {
	store, _ := seededStore(t, "Ana")
	p := NewPromoter(store)

	tests := []struct {
		name        string
		ref         string
		wantInvalid bool
	}{
		{"invoice reference", "F000001-ANA", true},
		{"empty", "", true},
		{"lowercase prefix", "d000001-ANA", true},
		{"unknown quote", "D000099-NOBODY", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := p.Promote(tt.ref)
			var inv *types.InvalidReferenceError
			var nf *types.NotFoundError
			if tt.wantInvalid && !errors.As(err, &inv) {
				t.Errorf("Promote(%q) error = %v, want InvalidReferenceError", tt.ref, err)
			}
			if !tt.wantInvalid && !errors.As(err, &nf) {
				t.Errorf("Promote(%q) error = %v, want NotFoundError", tt.ref, err)
			}
		})
	}
}

func TestEligible(t *testing.T) {
	store, _ := seededStore(t, "Ana", "Bob")
	got := NewPromoter(store).Eligible()
	if len(got) != 2 || got[0] != "D000001-ANA" || got[1] != "D000002-BOB" {
		t.Errorf("Eligible() = %v", got)
	}
}
