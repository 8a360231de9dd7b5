package ledger

import (
	"fmt"

	"github.com/laka-amlay/excursion-pos/internal/types"
	"github.com/xuri/excelize/v2"
)

// ExportSheet is the worksheet name used by ExportXLSX.
const ExportSheet = "Historique"

// ExportXLSX writes records to an Excel workbook with the ledger header on
// the first row. Totals are written as numbers so the sheet can sum them.
func ExportXLSX(records []types.LedgerRecord, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		total, _ := r.TotalAmount.Round(2).Float64()
		row := []interface{}{
			r.Date.Format(types.DateLayout),
			r.Reference,
			r.ClientName,
			r.Contact,
			r.CircuitDescription,
			r.PartySize,
			total,
			r.PackageLabel,
			r.OptionsSummary,
		}
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
