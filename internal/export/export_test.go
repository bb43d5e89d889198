package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/statement2sheet/s2s/internal/model"
)

func sampleTransactions() []model.Transaction {
	return []model.Transaction{
		{
			ID:          "t1",
			DocumentID:  "doc-1",
			Date:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			Description: "COMPRA TARJETA SUPERMERCADO",
			Amount:      decimal.RequireFromString("-25.40"),
			Balance:     decimal.RequireFromString("974.60"),
			Currency:    "EUR",
			Type:        "DEBIT",
		},
		{
			ID:          "t2",
			DocumentID:  "doc-1",
			Date:        time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
			Description: "NOMINA ENERO",
			Reference:   "REF-889",
			Amount:      decimal.RequireFromString("1800.00"),
			Balance:     decimal.RequireFromString("2774.60"),
			Currency:    "EUR",
			Type:        "CREDIT",
		},
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	doc := &model.Document{ID: "doc-1", FileName: "statement.pdf", BankName: "BBVA"}

	require.NoError(t, WriteXLSX(path, doc, sampleTransactions()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"BBVA"}, f.GetSheetList())

	header, err := f.GetCellValue("BBVA", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Date", header)

	date, err := f.GetCellValue("BBVA", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", date)

	desc, err := f.GetCellValue("BBVA", "B3")
	require.NoError(t, err)
	assert.Equal(t, "NOMINA ENERO", desc)
}

func TestWriteXLSXDefaultSheetName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")

	require.NoError(t, WriteXLSX(path, nil, sampleTransactions()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{"Transactions"}, f.GetSheetList())
}

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "BBVA", want: "BBVA"},
		{name: "forbidden characters", in: "Bank: of [Spain]/Madrid", want: "Bank of SpainMadrid"},
		{name: "too long", in: "A Very Long Institution Name That Overflows", want: "A Very Long Institution Name Th"},
		{name: "only forbidden", in: "[]/:?*", want: "Transactions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeSheetName(tt.in))
		})
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, WriteCSV(path, sampleTransactions()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, columnHeaders, records[0])
	assert.Equal(t, "-25.40", records[1][3])
	assert.Equal(t, "REF-889", records[2][2])
}

func TestWriteCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, WriteCSV(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Date,Description,Reference,Amount,Balance,Currency,Type\n", string(data))
}
