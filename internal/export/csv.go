package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/statement2sheet/s2s/internal/model"
)

// WriteCSV writes transactions to a CSV file at path, one row per
// transaction with a header row.
func WriteCSV(path string, transactions []model.Transaction) error {
	f, err := os.Create(path) // #nosec G304 -- user-supplied output path
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(columnHeaders); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for i := range transactions {
		t := &transactions[i]
		record := []string{
			t.Date.Format("2006-01-02"),
			t.Description,
			t.Reference,
			t.Amount.String(),
			t.Balance.String(),
			t.Currency,
			t.Type,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return f.Close()
}
