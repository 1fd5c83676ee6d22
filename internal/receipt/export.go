package receipt

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	itemsSheet   = "Items"
	summarySheet = "Summary"
)

// WriteXLSX writes an Items sheet (one row per parsed item) and a Summary
// sheet (one row per receipt) to w
func WriteXLSX(w io.Writer, receipts []*Receipt) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"; rename it rather than leave an empty sheet behind
	if err := f.SetSheetName("Sheet1", itemsSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	itemHeaders := []any{"Date", "Receipt ID", "Category", "Item", "Price", "Image URL"}
	if err := f.SetSheetRow(itemsSheet, "A1", &itemHeaders); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}
	summaryHeaders := []any{"Date", "Receipt ID", "Username", "Items", "Total", "Top Category", "Savings Tip"}
	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeaders); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}

	itemRow, summaryRow := 2, 2
	for _, r := range receipts {
		date := r.Timestamp.Format(time.DateTime)
		category := string(r.DominantCategory())

		for _, item := range r.Items {
			cell, _ := excelize.CoordinatesToCellName(1, itemRow)
			values := []any{date, r.ID, category, item.Name, item.Price.InexactFloat64(), r.ImageURL}
			if err := f.SetSheetRow(itemsSheet, cell, &values); err != nil {
				return fmt.Errorf("xlsx row: %w", err)
			}
			itemRow++
		}

		cell, _ := excelize.CoordinatesToCellName(1, summaryRow)
		values := []any{date, r.ID, r.Username, len(r.Items), r.Total.InexactFloat64(), category, r.SavingsTip}
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return fmt.Errorf("xlsx row: %w", err)
		}
		summaryRow++
	}

	_ = f.SetColWidth(itemsSheet, "A", "A", 20)
	_ = f.SetColWidth(itemsSheet, "B", "B", 38)
	_ = f.SetColWidth(itemsSheet, "C", "C", 14)
	_ = f.SetColWidth(itemsSheet, "D", "D", 32)
	_ = f.SetColWidth(itemsSheet, "F", "F", 60)
	_ = f.SetColWidth(summarySheet, "A", "A", 20)
	_ = f.SetColWidth(summarySheet, "B", "B", 38)
	_ = f.SetColWidth(summarySheet, "G", "G", 70)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
