// =============================================================================
// Excursion POS - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
//
// CONFIGURATION SOURCES (later sources win):
//   1. Built-in defaults
//   2. Main config file (config.yaml)
//   3. A .env file in the working directory, if present
//   4. POS_* environment variables
//
// The configuration only carries paths and operator-tunable numbers. The
// catalog, the ledger, the agency profile and the bank details are data
// files owned by their own packages.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/laka-amlay/excursion-pos/internal/pricing"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// FILE SETTINGS
	// =========================================================================

	// CatalogFile is the price list (.csv or .xlsx).
	// Default: "data.csv"
	CatalogFile string `yaml:"catalog_file"`

	// LedgerFile is the append-only history of every quote.
	// Default: "historique_devis.csv"
	LedgerFile string `yaml:"ledger_file"`

	// OutputDir is where rendered receipts and exports are written.
	// Default: "./receipts"
	OutputDir string `yaml:"output_dir"`

	// ArchiveDir receives a copy of the ledger before a reset.
	// Default: "./archive"
	ArchiveDir string `yaml:"archive_dir"`

	// ProfileFile is the agency profile (TOML) printed on receipts.
	// Default: "agency.toml"
	ProfileFile string `yaml:"profile_file"`

	// BankDetailsFile is the bank details table (CSV) printed on invoices.
	// Default: "bank_details.csv"
	BankDetailsFile string `yaml:"bank_details_file"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// SECTIONS
	// =========================================================================

	Pricing PricingSettings `yaml:"pricing"`
	Ledger  LedgerSettings  `yaml:"ledger"`
	Receipt ReceiptSettings `yaml:"receipt"`
}

// PricingSettings holds the add-on fees applied to land excursions.
type PricingSettings struct {
	// MealFee is the flat fee added when the meal option is selected.
	MealFee float64 `yaml:"meal_fee"`

	// GuideFee is the flat fee added when a guide is requested.
	GuideFee float64 `yaml:"guide_fee"`

	// SiteVisitFee is charged once per visited site.
	SiteVisitFee float64 `yaml:"site_visit_fee"`

	// DefaultMargin is the margin percentage used when the operator gives none.
	// Must be within [0, 100].
	DefaultMargin float64 `yaml:"default_margin"`
}

// LedgerSettings holds the ledger store options.
type LedgerSettings struct {
	// LockTimeout bounds the wait for the ledger lock, as a Go duration.
	// Default: "5s"
	LockTimeout string `yaml:"lock_timeout"`

	// ArchiveOnReset copies the ledger to ArchiveDir before discarding it.
	// Default: true
	ArchiveOnReset *bool `yaml:"archive_on_reset"`

	// UseTimestampSubdirs files archives under YYYY/MM/DD.
	UseTimestampSubdirs bool `yaml:"use_timestamp_subdirs"`
}

// ReceiptSettings holds the thermal receipt layout options.
type ReceiptSettings struct {
	// Width is the number of characters per printed line.
	// Default: 42 (80mm paper)
	Width int `yaml:"width"`

	// Currency is the ISO code used to format amounts.
	// Default: "EUR"
	Currency string `yaml:"currency"`

	// FileNameFormat names the receipt files.
	// Placeholders: {kind}, {ref}, {timestamp}, {date}, {uuid}
	// Default: "{kind}_{ref}_{timestamp}.txt"
	FileNameFormat string `yaml:"file_name_format"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultPricing holds the fees used when the config file sets none.
var DefaultPricing = PricingSettings{
	MealFee:      15,
	GuideFee:     25,
	SiteVisitFee: 5,
}

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file. A missing file is
//     not an error; the defaults are used instead.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be parsed or the result is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	// Read the configuration file.
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Run on defaults.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// A .env in the working directory is optional, but a broken one is an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := applyEnvOverrides(&config); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	// Apply default values.
	applyMainConfigDefaults(&config)

	// Validate the configuration.
	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyEnvOverrides copies POS_* environment variables over file values.
func applyEnvOverrides(config *MainConfig) error {
	strVars := map[string]*string{
		"POS_CATALOG_FILE": &config.CatalogFile,
		"POS_LEDGER_FILE":  &config.LedgerFile,
		"POS_OUTPUT_DIR":   &config.OutputDir,
		"POS_ARCHIVE_DIR":  &config.ArchiveDir,
		"POS_PROFILE_FILE": &config.ProfileFile,
		"POS_LOG_LEVEL":    &config.LogLevel,
		"POS_CURRENCY":     &config.Receipt.Currency,
	}
	for name, target := range strVars {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*target = v
		}
	}

	if v, ok := os.LookupEnv("POS_DEFAULT_MARGIN"); ok && v != "" {
		margin, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("POS_DEFAULT_MARGIN: %w", err)
		}
		config.Pricing.DefaultMargin = margin
	}

	return nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.CatalogFile == "" {
		config.CatalogFile = "data.csv"
	}
	if config.LedgerFile == "" {
		config.LedgerFile = "historique_devis.csv"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./receipts"
	}
	if config.ArchiveDir == "" {
		config.ArchiveDir = "./archive"
	}
	if config.ProfileFile == "" {
		config.ProfileFile = "agency.toml"
	}
	if config.BankDetailsFile == "" {
		config.BankDetailsFile = "bank_details.csv"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	// All-zero fees mean the pricing section was left out.
	if config.Pricing.MealFee == 0 && config.Pricing.GuideFee == 0 && config.Pricing.SiteVisitFee == 0 {
		margin := config.Pricing.DefaultMargin
		config.Pricing = DefaultPricing
		config.Pricing.DefaultMargin = margin
	}
	if config.Ledger.LockTimeout == "" {
		config.Ledger.LockTimeout = "5s"
	}
	if config.Ledger.ArchiveOnReset == nil {
		archive := true
		config.Ledger.ArchiveOnReset = &archive
	}
	if config.Receipt.Width == 0 {
		config.Receipt.Width = 42
	}
	if config.Receipt.Currency == "" {
		config.Receipt.Currency = "EUR"
	}
	if config.Receipt.FileNameFormat == "" {
		config.Receipt.FileNameFormat = "{kind}_{ref}_{timestamp}.txt"
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	p := config.Pricing
	if p.MealFee < 0 || p.GuideFee < 0 || p.SiteVisitFee < 0 {
		return fmt.Errorf("pricing fees must not be negative")
	}
	if p.DefaultMargin < 0 || p.DefaultMargin > 100 {
		return fmt.Errorf("default_margin %.2f outside [0, 100]", p.DefaultMargin)
	}

	if _, err := time.ParseDuration(config.Ledger.LockTimeout); err != nil {
		return fmt.Errorf("ledger.lock_timeout: %w", err)
	}

	if config.Receipt.Width < 24 {
		return fmt.Errorf("receipt.width must be at least 24, got %d", config.Receipt.Width)
	}

	// Create the output and ledger directories if they don't exist.
	dirs := []string{
		config.OutputDir,
		filepath.Dir(config.LedgerFile),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// LockTimeoutDuration returns the parsed ledger lock timeout.
func (c *MainConfig) LockTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Ledger.LockTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// ArchiveOnReset reports whether reset keeps an archived copy of the ledger.
func (c *MainConfig) ArchiveOnReset() bool {
	return c.Ledger.ArchiveOnReset == nil || *c.Ledger.ArchiveOnReset
}

// Fees converts the pricing section to exact decimals.
func (p PricingSettings) Fees() pricing.Fees {
	return pricing.Fees{
		Meal:      decimal.NewFromFloat(p.MealFee),
		Guide:     decimal.NewFromFloat(p.GuideFee),
		SiteVisit: decimal.NewFromFloat(p.SiteVisitFee),
	}
}

// Margin returns the default margin as a decimal percentage.
func (p PricingSettings) Margin() decimal.Decimal {
	return decimal.NewFromFloat(p.DefaultMargin)
}
