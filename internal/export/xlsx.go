// Package export writes converted transactions to spreadsheet files.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/statement2sheet/s2s/internal/model"
)

var columnHeaders = []string{
	"Date", "Description", "Reference", "Amount", "Balance", "Currency", "Type",
}

// WriteXLSX writes transactions to an Excel workbook at path. The sheet is
// named after the bank when known.
func WriteXLSX(path string, doc *model.Document, transactions []model.Transaction) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheetName := "Transactions"
	if doc != nil && doc.BankName != "" {
		sheetName = sanitizeSheetName(doc.BankName)
	}
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1E6B52"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{
		NumFmt: 4, // #,##0.00
	})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	for i, header := range columnHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx := range transactions {
		t := &transactions[rowIdx]
		row := rowIdx + 2
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), t.Date.Format("2006-01-02"))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), t.Description)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), t.Reference)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), t.Amount.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), t.Balance.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), t.Currency)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), t.Type)
		_ = f.SetCellStyle(sheetName, fmt.Sprintf("D%d", row), fmt.Sprintf("E%d", row), amountStyle)
	}

	widths := []float64{12, 42, 14, 12, 12, 9, 9}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheetName, col, col, width)
	}

	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// sanitizeSheetName strips characters Excel forbids in sheet names and
// enforces the 31 character limit.
func sanitizeSheetName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		out = append(out, r)
		if len(out) == 31 {
			break
		}
	}
	if len(out) == 0 {
		return "Transactions"
	}
	return string(out)
}
