package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/laka-amlay/excursion-pos/internal/types"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const bom = "\uFEFF"

// RowError reports a catalog row that could not be loaded.
type RowError struct {
	File   string
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s row %d, column %s: %v", e.File, e.Row, e.Column, e.Err)
	}
	return fmt.Sprintf("%s row %d: %v", e.File, e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads a catalog from a .csv or .xlsx file.
//
// PARAMETERS:
//   - path: The catalog file. The extension selects the format.
//
// RETURNS:
//   - The loaded catalog.
//   - An error if the file cannot be read, a required column is missing,
//     or a row carries an unreadable category or price (*RowError).
func Load(path string) (*Catalog, error) {
	var (
		rows [][]string
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	case ".csv", ".txt", "":
		rows, err = readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	entries, err := parseRows(path, rows)
	if err != nil {
		return nil, err
	}

	return &Catalog{SourceFile: path, entries: entries}, nil
}

// readCSV returns every record of a UTF-8 CSV file, BOM stripped.
func readCSV(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte(bom))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog CSV: %w", err)
	}
	return rows, nil
}

// readXLSX returns the rows of the first worksheet.
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("catalog workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	return rows, nil
}

// =============================================================================
// ROW CONVERSION
// =============================================================================

// parseRows maps the header row and converts every non-empty data row.
// Row numbers in errors are 1-indexed file rows, the header being row 1.
func parseRows(file string, rows [][]string) ([]types.CatalogEntry, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("catalog %s is empty", file)
	}

	columns := make(map[string]int)
	for i, h := range rows[0] {
		name := strings.TrimSpace(strings.TrimPrefix(h, bom))
		if _, dup := columns[name]; !dup && name != "" {
			columns[name] = i
		}
	}
	for _, required := range []string{ColumnCircuit, ColumnPrix} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("catalog %s has no %q column", file, required)
		}
	}

	get := func(row []string, column string) string {
		i, ok := columns[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var entries []types.CatalogEntry
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isRowEmpty(row) {
			continue
		}

		entry := types.CatalogEntry{
			PackageTier:        get(row, ColumnFormule),
			TransportMode:      get(row, ColumnTransport),
			CircuitDescription: get(row, ColumnCircuit),
			SourceRow:          rowNum,
		}

		if _, ok := columns[ColumnType]; ok {
			category, err := types.ParseCategory(get(row, ColumnType))
			if err != nil {
				return nil, &RowError{File: file, Row: rowNum, Column: ColumnType, Err: err}
			}
			entry.Category = category
		}

		if entry.CircuitDescription == "" {
			return nil, &RowError{File: file, Row: rowNum, Column: ColumnCircuit, Err: fmt.Errorf("circuit is empty")}
		}

		price, err := parsePrice(get(row, ColumnPrix))
		if err != nil {
			return nil, &RowError{File: file, Row: rowNum, Column: ColumnPrix, Err: err}
		}
		entry.BasePrice = price

		entries = append(entries, entry)
	}

	return entries, nil
}

// parsePrice accepts "40", "40.5" and the French "40,50". Spaces used as
// thousands separators are dropped.
func parsePrice(value string) (decimal.Decimal, error) {
	value = strings.NewReplacer(" ", "", "\u00a0", "", "\u20ac", "").Replace(value)
	if strings.Contains(value, ",") && !strings.Contains(value, ".") {
		value = strings.Replace(value, ",", ".", 1)
	}
	price, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unreadable price %q", value)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %s", price)
	}
	return price, nil
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
