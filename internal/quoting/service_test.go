package quoting

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/laka-amlay/excursion-pos/internal/catalog"
	"github.com/laka-amlay/excursion-pos/internal/ledger"
	"github.com/laka-amlay/excursion-pos/internal/pricing"
	"github.com/laka-amlay/excursion-pos/internal/receipt"
	"github.com/laka-amlay/excursion-pos/internal/types"
	"github.com/laka-amlay/excursion-pos/pkg/utils"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, 5, 2, 14, 30, 0, 0, time.UTC)

type fixture struct {
	svc       *Service
	store     *ledger.Store
	outputDir string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()

	store, err := ledger.Open(ledger.Options{
		Path:   filepath.Join(dir, "historique_devis.csv"),
		Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatal(err)
	}

	cat := catalog.New([]types.CatalogEntry{
		{Category: types.Land, PackageTier: "Standard", TransportMode: "Minibus", CircuitDescription: "Cascades", BasePrice: decimal.NewFromInt(40), SourceRow: 2},
		{Category: types.Land, PackageTier: "", TransportMode: "", CircuitDescription: "Village", BasePrice: decimal.NewFromInt(10), SourceRow: 3},
		{Category: types.Sea, PackageTier: "Premium", TransportMode: "Bateau", CircuitDescription: "Lagon Bleu", BasePrice: decimal.NewFromInt(80), SourceRow: 4},
	})

	outputDir := filepath.Join(dir, "receipts")
	files := utils.NewFileManager(outputDir, filepath.Join(dir, "archive"))
	files.Now = func() time.Time { return testNow }
	if err := files.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	svc, err := New(Options{
		Catalog:  cat,
		Store:    store,
		Renderer: receipt.NewThermal(receipt.DefaultProfile(), []receipt.BankLine{{Label: "IBAN", Value: "FR76 0000"}}),
		Files:    files,
		Fees: pricing.Fees{
			Meal:      decimal.NewFromInt(15),
			Guide:     decimal.NewFromInt(25),
			SiteVisit: decimal.NewFromInt(5),
		},
		DefaultMargin: decimal.NewFromInt(20),
		Logger:        zerolog.Nop(),
		Now:           func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatal(err)
	}
	return fixture{svc: svc, store: store, outputDir: outputDir}
}

func landRequest() types.QuoteRequest {
	return types.QuoteRequest{
		ClientName:    "John",
		Contact:       "0612345678",
		Category:      types.Land,
		PackageTier:   "Standard",
		TransportMode: "Minibus",
		Circuit:       "Cascades",
		PartySize:     3,
		Meal:          true,
	}
}

func TestCreateQuote(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.CreateQuote(context.Background(), landRequest())
	if err != nil {
		t.Fatalf("CreateQuote() error = %v", err)
	}
	if res.ReceiptErr != nil {
		t.Fatalf("ReceiptErr = %v", res.ReceiptErr)
	}

	rec := res.Record
	if rec.Reference != "D000001-JOHN" {
		t.Errorf("Reference = %q, want D000001-JOHN", rec.Reference)
	}
	if rec.TotalAmount.StringFixed(2) != "198.00" {
		t.Errorf("Total = %s, want 198.00", rec.TotalAmount.StringFixed(2))
	}
	if rec.OptionsSummary != "Repas" || rec.PackageLabel != "Standard" {
		t.Errorf("options/package = %q/%q", rec.OptionsSummary, rec.PackageLabel)
	}
	if rec.Date.Format(types.DateLayout) != "2024-05-02" {
		t.Errorf("Date = %s", rec.Date)
	}

	want := filepath.Join(f.outputDir, "devis_D000001-JOHN_20240502_143000.txt")
	if res.ReceiptPath != want {
		t.Errorf("ReceiptPath = %q, want %q", res.ReceiptPath, want)
	}
	data, err := os.ReadFile(res.ReceiptPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "D000001-JOHN") || !strings.Contains(string(data), "TOTAL") {
		t.Errorf("receipt content:\n%s", data)
	}

	if f.store.Count() != 1 {
		t.Errorf("Count() = %d, want 1", f.store.Count())
	}
}

func TestCreateQuoteSequence(t *testing.T) {
	f := newFixture(t)
	for i, name := range []string{"Ana", "Bob", "Cy"} {
		req := landRequest()
		req.ClientName = name
		res, err := f.svc.CreateQuote(context.Background(), req)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"D000001-ANA", "D000002-BOB", "D000003-CY"}[i]
		if res.Record.Reference != want {
			t.Errorf("quote %d = %q, want %q", i+1, res.Record.Reference, want)
		}
	}
}

func isValidation(err error) bool {
	var ve *types.ValidationError
	return errors.As(err, &ve)
}

func isNotFound(err error) bool {
	var nf *types.NotFoundError
	return errors.As(err, &nf)
}

func TestCreateQuoteRejectsWithoutWriting(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.QuoteRequest)
		check  func(error) bool
	}{
		{
			"no client",
			func(r *types.QuoteRequest) { r.ClientName = "" },
			isValidation,
		},
		{
			"zero party",
			func(r *types.QuoteRequest) { r.PartySize = 0 },
			isValidation,
		},
		{
			"unknown circuit",
			func(r *types.QuoteRequest) { r.Circuit = "Volcan" },
			isNotFound,
		},
		{
			"wrong category",
			func(r *types.QuoteRequest) { r.Category = types.Sea },
			isNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := landRequest()
			tt.mutate(&req)

			_, err := f.svc.CreateQuote(context.Background(), req)
			if !tt.check(err) {
				t.Fatalf("CreateQuote() error = %v", err)
			}
			if f.store.Count() != 0 {
				t.Errorf("Count() = %d after rejected quote", f.store.Count())
			}
			if _, statErr := os.Stat(f.store.Path()); !errors.Is(statErr, os.ErrNotExist) {
				t.Errorf("ledger file created by a rejected quote")
			}
		})
	}
}

func TestSeaQuoteIgnoresAddons(t *testing.T) {
	f := newFixture(t)
	zero := decimal.Zero

	res, err := f.svc.CreateQuote(context.Background(), types.QuoteRequest{
		ClientName:    "Marin",
		Category:      types.Sea,
		PackageTier:   "Premium",
		TransportMode: "Bateau",
		Circuit:       "Lagon Bleu",
		PartySize:     2,
		MarginPercent: &zero,
		Meal:          true,
		Guide:         true,
		SiteVisits:    3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Record.TotalAmount.StringFixed(2) != "160.00" {
		t.Errorf("Total = %s, want 160.00", res.Record.TotalAmount.StringFixed(2))
	}
	if res.Record.OptionsSummary != "" {
		t.Errorf("Options = %q, want empty", res.Record.OptionsSummary)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one", res.Warnings)
	}
}

func TestMissingPackageTierDefaults(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.CreateQuote(context.Background(), types.QuoteRequest{
		ClientName: "Ana",
		Category:   types.Land,
		Circuit:    "Village",
		PartySize:  1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Record.PackageLabel != DefaultPackageLabel {
		t.Errorf("PackageLabel = %q, want %q", res.Record.PackageLabel, DefaultPackageLabel)
	}
	// 10 * 1 * 1.20
	if res.Record.TotalAmount.StringFixed(2) != "12.00" {
		t.Errorf("Total = %s, want 12.00", res.Record.TotalAmount.StringFixed(2))
	}
}

func TestPriceDoesNotRecord(t *testing.T) {
	f := newFixture(t)
	b, _, err := f.svc.Price(landRequest())
	if err != nil {
		t.Fatal(err)
	}
	if !b.Total.Equal(decimal.NewFromInt(198)) {
		t.Errorf("Price() total = %s, want 198", b.Total)
	}
	if f.store.Count() != 0 {
		t.Error("Price() recorded a quote")
	}
}

func TestCreateInvoice(t *testing.T) {
	f := newFixture(t)
	req := landRequest()
	req.ClientName = "David"
	quote, err := f.svc.CreateQuote(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(f.store.Path())

	inv, err := f.svc.CreateInvoice(context.Background(), quote.Record.Reference)
	if err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}
	if inv.InvoiceReference != "F000001-DAVID" {
		t.Errorf("InvoiceReference = %q", inv.InvoiceReference)
	}
	if !inv.Record.Equal(quote.Record) {
		t.Errorf("Record = %+v, want %+v", inv.Record, quote.Record)
	}
	if !strings.Contains(string(inv.Receipt), "FACTURE : F000001-DAVID") || !strings.Contains(string(inv.Receipt), "IBAN") {
		t.Errorf("invoice receipt:\n%s", inv.Receipt)
	}
	if filepath.Base(inv.ReceiptPath) != "facture_F000001-DAVID_20240502_143000.txt" {
		t.Errorf("ReceiptPath = %q", inv.ReceiptPath)
	}

	after, _ := os.ReadFile(f.store.Path())
	if string(before) != string(after) || f.store.Count() != 1 {
		t.Error("CreateInvoice() modified the ledger")
	}

	again, err := f.svc.CreateInvoice(context.Background(), quote.Record.Reference)
	if err != nil || again.InvoiceReference != inv.InvoiceReference {
		t.Errorf("second CreateInvoice() = %q, %v", again.InvoiceReference, err)
	}
}

func TestCreateInvoiceErrors(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.CreateQuote(context.Background(), landRequest()); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.CreateInvoice(context.Background(), "F000001-JOHN")
	var inv *types.InvalidReferenceError
	if !errors.As(err, &inv) {
		t.Errorf("CreateInvoice(F...) error = %v, want InvalidReferenceError", err)
	}

	_, err = f.svc.CreateInvoice(context.Background(), "D000042-JOHN")
	var nf *types.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("CreateInvoice(unknown) error = %v, want NotFoundError", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.svc.CreateInvoice(ctx, "D000001-JOHN"); !errors.Is(err, context.Canceled) {
		t.Errorf("CreateInvoice(cancelled) error = %v", err)
	}
}

func TestEligible(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"Ana", "Bob"} {
		req := landRequest()
		req.ClientName = name
		if _, err := f.svc.CreateQuote(context.Background(), req); err != nil {
			t.Fatal(err)
		}
	}
	refs, err := f.svc.Eligible()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(refs, ",") != "D000001-ANA,D000002-BOB" {
		t.Errorf("Eligible() = %v", refs)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New() accepted a missing store")
	}
}

func TestInvoiceWithoutCatalog(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.CreateQuote(context.Background(), landRequest())
	if err != nil {
		t.Fatal(err)
	}

	invoices, err := New(Options{Store: f.store, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	result, err := invoices.CreateInvoice(context.Background(), rec.Record.Reference)
	if err != nil {
		t.Fatalf("CreateInvoice() without catalog error = %v", err)
	}
	if result.InvoiceReference != "F000001-JOHN" {
		t.Errorf("invoice reference = %q", result.InvoiceReference)
	}

	if _, _, err := invoices.Price(landRequest()); !errors.Is(err, ErrNoCatalog) {
		t.Errorf("Price() without catalog error = %v, want ErrNoCatalog", err)
	}
}
