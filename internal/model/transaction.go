package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single row extracted from a converted statement.
type Transaction struct {
	Date        time.Time
	ID          string
	DocumentID  string
	Description string
	Reference   string // check number, transfer reference, etc.
	Amount      decimal.Decimal
	Balance     decimal.Decimal // running balance after this transaction, if reported
	Currency    string
	Type        string // DEBIT, CREDIT, FEE, ...
}

// GenerateHash creates a stable hash for duplicate detection across
// re-uploads of the same statement.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount.String(),
		t.Description,
		t.DocumentID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
