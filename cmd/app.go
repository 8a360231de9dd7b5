package cmd

import (
	"fmt"

	"github.com/laka-amlay/excursion-pos/internal/catalog"
	"github.com/laka-amlay/excursion-pos/internal/config"
	"github.com/laka-amlay/excursion-pos/internal/ledger"
	"github.com/laka-amlay/excursion-pos/internal/logging"
	"github.com/laka-amlay/excursion-pos/internal/quoting"
	"github.com/laka-amlay/excursion-pos/internal/receipt"
	"github.com/laka-amlay/excursion-pos/pkg/utils"
	"github.com/rs/zerolog"
)

// app holds the components a command works with, built from the main
// configuration.
type app struct {
	config  *config.MainConfig
	log     zerolog.Logger
	files   *utils.FileManager
	store   *ledger.Store
	catalog *catalog.Catalog
	service *quoting.Service
}

// scope selects how much of the application a command needs, so that a
// broken file only blocks the commands that read it.
type scope int

const (
	// ledgerScope opens the ledger only (history, export, reset).
	ledgerScope scope = iota

	// invoiceScope adds receipts and the service, without the catalog.
	invoiceScope

	// quoteScope adds the catalog (quote, price, catalog).
	quoteScope
)

// loadApp builds the application from a configuration file.
//
// PARAMETERS:
//   - configPath: The main configuration file. A missing file runs on defaults.
//   - debug: Forces debug logging regardless of the configured level.
//   - need: The components to build. Invoicing only reads the ledger, so a
//     broken price list does not lock the operator out of invoices or the
//     history.
//
// RETURNS:
//   - The wired application.
//   - An error if the configuration, the ledger or the catalog cannot be loaded.
func loadApp(configPath string, debug bool, need scope) (*app, error) {
	// =========================================================================
	// STEP 1: CONFIGURATION AND LOGGING
	// =========================================================================

	cfg, err := config.LoadMainConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	log := logging.New(level)

	files := utils.NewFileManager(cfg.OutputDir, cfg.ArchiveDir)
	files.UseTimestampSubdirs = cfg.Ledger.UseTimestampSubdirs
	if err := files.EnsureDirectories(); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 2: LEDGER
	// =========================================================================

	opts := ledger.Options{
		Path:        cfg.LedgerFile,
		LockTimeout: cfg.LockTimeoutDuration(),
		Logger:      log,
	}
	if cfg.ArchiveOnReset() {
		opts.Archiver = files
	}
	store, err := ledger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	a := &app{config: cfg, log: log, files: files, store: store}
	if need == ledgerScope {
		return a, nil
	}

	// =========================================================================
	// STEP 3: CATALOG
	// =========================================================================

	var lookup quoting.CatalogLookup
	if need == quoteScope {
		a.catalog, err = catalog.Load(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("file", a.catalog.SourceFile).Int("entries", a.catalog.Len()).Msg("catalog loaded")
		lookup = a.catalog
	}

	// =========================================================================
	// STEP 4: RECEIPTS AND SERVICE
	// =========================================================================

	profile, err := receipt.LoadProfile(cfg.ProfileFile)
	if err != nil {
		return nil, err
	}
	bank, err := receipt.LoadBankDetails(cfg.BankDetailsFile)
	if err != nil {
		return nil, err
	}
	renderer := receipt.NewThermal(profile, bank)
	renderer.Width = cfg.Receipt.Width
	renderer.Currency = cfg.Receipt.Currency

	a.service, err = quoting.New(quoting.Options{
		Catalog:        lookup,
		Store:          store,
		Renderer:       renderer,
		Files:          files,
		FileNameFormat: cfg.Receipt.FileNameFormat,
		Fees:           cfg.Pricing.Fees(),
		DefaultMargin:  cfg.Pricing.Margin(),
		Logger:         log,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
