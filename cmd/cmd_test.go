package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/xuri/excelize/v2"
)

const testCatalog = "Type,Formule,Transport,Circuit,Prix\n" +
	"Terre,Standard,Minibus,Cascades,40\n" +
	"Terre,,,Village,10\n" +
	"Mer,Premium,Bateau,Lagon Bleu,80\n"

// setup writes a configuration whose files all live in a temporary
// directory and returns its path.
func setup(t *testing.T) (configPath, dir string) {
	t.Helper()
	dir = t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "data.csv"), []byte(testCatalog), 0644); err != nil {
		t.Fatal(err)
	}

	config := fmt.Sprintf(`catalog_file: %q
ledger_file: %q
output_dir: %q
archive_dir: %q
profile_file: %q
bank_details_file: %q
log_level: error
pricing:
  meal_fee: 15
  guide_fee: 25
  site_visit_fee: 5
  default_margin: 20
`,
		filepath.Join(dir, "data.csv"),
		filepath.Join(dir, "historique_devis.csv"),
		filepath.Join(dir, "receipts"),
		filepath.Join(dir, "archive"),
		filepath.Join(dir, "agency.toml"),
		filepath.Join(dir, "bank_details.csv"),
	)
	configPath = filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}
	return configPath, dir
}

// resetFlags puts every flag back to its default so runs do not leak into
// each other through the package-level flag variables.
func resetFlags() {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
}

// run executes posctl with args and returns its standard output.
func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", configPath}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, configPath string, args ...string) string {
	t.Helper()
	out, err := run(t, configPath, args...)
	if err != nil {
		t.Fatalf("posctl %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestQuoteAndInvoice(t *testing.T) {
	configPath, dir := setup(t)

	out := mustRun(t, configPath, "quote",
		"--client", "John", "--contact", "0612345678",
		"--formule", "Standard", "--transport", "Minibus", "--circuit", "Cascades",
		"--pax", "3", "--meal")
	for _, want := range []string{"DEVIS : D000001-JOHN", "Quote D000001-JOHN recorded (198.00)", "Receipt: "} {
		if !strings.Contains(out, want) {
			t.Errorf("quote output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, configPath, "invoice")
	if strings.TrimSpace(out) != "D000001-JOHN" {
		t.Errorf("invoice listing = %q", out)
	}

	out = mustRun(t, configPath, "invoice", "D000001-JOHN")
	if !strings.Contains(out, "Invoice F000001-JOHN issued for quote D000001-JOHN") {
		t.Errorf("invoice output:\n%s", out)
	}

	receipts, err := os.ReadDir(filepath.Join(dir, "receipts"))
	if err != nil {
		t.Fatal(err)
	}
	if len(receipts) != 2 {
		t.Errorf("receipts directory holds %d file(s), want 2", len(receipts))
	}

	out = mustRun(t, configPath, "history")
	if !strings.Contains(out, "D000001-JOHN") || !strings.Contains(out, "1 of 1 row(s)") {
		t.Errorf("history output:\n%s", out)
	}
}

func TestQuoteRejectsInvalidRequest(t *testing.T) {
	configPath, dir := setup(t)

	_, err := run(t, configPath, "quote", "--circuit", "Cascades", "--pax", "0")
	if err == nil || !strings.Contains(err.Error(), "Validation failed") {
		t.Fatalf("quote error = %v, want a validation failure", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "historique_devis.csv")); !os.IsNotExist(err) {
		t.Error("a rejected quote created the ledger")
	}

	if _, err := run(t, configPath, "quote", "--client", "John", "--circuit", "Nowhere"); err == nil {
		t.Error("quote accepted a circuit absent from the catalog")
	}
	if _, err := run(t, configPath, "quote", "--client", "John", "--circuit", "Cascades", "--type", "air"); err == nil {
		t.Error("quote accepted an unknown category")
	}
}

func TestPrice(t *testing.T) {
	configPath, dir := setup(t)

	out := mustRun(t, configPath, "price", "--formule", "Standard", "--transport", "Minibus", "--circuit", "Cascades", "--pax", "3", "--meal")
	if !strings.Contains(out, "198.00") {
		t.Errorf("price output:\n%s", out)
	}
	out = mustRun(t, configPath, "price", "--formule", "Standard", "--transport", "Minibus", "--circuit", "Cascades", "--pax", "3", "--meal", "--margin", "0")
	if !strings.Contains(out, "165.00") {
		t.Errorf("price with --margin 0:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "historique_devis.csv")); !os.IsNotExist(err) {
		t.Error("price recorded a quote")
	}
}

func TestCatalogCommand(t *testing.T) {
	configPath, _ := setup(t)

	out := mustRun(t, configPath, "catalog", "circuit", "--type", "land")
	if strings.TrimSpace(out) != "Cascades\nVillage" {
		t.Errorf("catalog circuit = %q", out)
	}

	out = mustRun(t, configPath, "catalog", "--type", "sea")
	if !strings.Contains(out, "Lagon Bleu") || strings.Contains(out, "Cascades") {
		t.Errorf("catalog listing:\n%s", out)
	}

	if _, err := run(t, configPath, "catalog", "Prix"); err == nil {
		t.Error("catalog accepted a column without choices")
	}
}

func TestExportAndReset(t *testing.T) {
	configPath, dir := setup(t)
	mustRun(t, configPath, "quote", "--client", "Ana", "--circuit", "Village")

	path := filepath.Join(dir, "export.xlsx")
	out := mustRun(t, configPath, "export", "-o", path)
	if !strings.Contains(out, "Exported 1 row(s)") {
		t.Errorf("export output: %q", out)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := run(t, configPath, "reset"); err == nil {
		t.Fatal("reset ran without --yes")
	}

	out = mustRun(t, configPath, "reset", "--yes")
	if !strings.Contains(out, "1 row(s) discarded") || !strings.Contains(out, "Archived to") {
		t.Errorf("reset output:\n%s", out)
	}

	out = mustRun(t, configPath, "quote", "--client", "Bob", "--circuit", "Village")
	if !strings.Contains(out, "D000001-BOB") {
		t.Errorf("numbering did not restart after reset:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	configPath, _ := setup(t)

	out := mustRun(t, configPath, "version")
	if !strings.Contains(out, "posctl "+Version) || !strings.Contains(out, "Ledger columns: Date,Ref,Client") {
		t.Errorf("version output:\n%s", out)
	}

	out = mustRun(t, configPath, "version", "--short")
	if strings.TrimSpace(out) != Version {
		t.Errorf("version --short = %q, want %q", out, Version)
	}
}

func TestInvoiceWithBrokenCatalog(t *testing.T) {
	configPath, dir := setup(t)
	mustRun(t, configPath, "quote", "--client", "Ana", "--circuit", "Village")

	// A price list without Circuit and Prix columns cannot be loaded.
	if err := os.WriteFile(filepath.Join(dir, "data.csv"), []byte("Type,Formule\nTerre,Standard\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, configPath, "quote", "--client", "Bob", "--circuit", "Village"); err == nil {
		t.Fatal("quote ran with a broken catalog")
	}

	out := mustRun(t, configPath, "invoice", "D000001-ANA")
	if !strings.Contains(out, "Invoice F000001-ANA issued") {
		t.Errorf("invoice output:\n%s", out)
	}
	out = mustRun(t, configPath, "history")
	if !strings.Contains(out, "Next quote: D000002-<CLIENT>") {
		t.Errorf("history output:\n%s", out)
	}
}
