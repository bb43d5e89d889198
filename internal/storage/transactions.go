package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/statement2sheet/s2s/internal/model"
)

const transactionColumns = `id, document_id, date, description, reference,
	amount, balance, currency, type`

// SaveTransactions stores extracted transactions. Rows whose content hash
// already exists are skipped, so re-importing a statement is safe.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}
	if len(transactions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, document_id, hash, date, description, reference,
			amount, balance, currency, type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range transactions {
		t := &transactions[i]
		_, err = stmt.ExecContext(ctx,
			t.ID, t.DocumentID, t.GenerateHash(), t.Date, t.Description,
			t.Reference, t.Amount.String(), t.Balance.String(), t.Currency, t.Type)
		if err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// GetTransactionsByDocument retrieves all transactions for a document in
// statement order.
func (s *SQLiteStorage) GetTransactionsByDocument(ctx context.Context, documentID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(documentID, "documentID"); err != nil {
		return nil, err
	}

	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE document_id = ? ORDER BY date, id`, documentID)
}

// GetTransactionsByPeriod retrieves transactions across all documents within
// the inclusive date range.
func (s *SQLiteStorage) GetTransactionsByPeriod(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("invalid date range: end %s before start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE date >= ? AND date <= ? ORDER BY date, id`, start, end)
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var amount, balance string
		err := rows.Scan(&t.ID, &t.DocumentID, &t.Date, &t.Description,
			&t.Reference, &amount, &balance, &t.Currency, &t.Type)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount for transaction %s: %w", t.ID, err)
		}
		if balance != "" {
			t.Balance, err = decimal.NewFromString(balance)
			if err != nil {
				return nil, fmt.Errorf("corrupt balance for transaction %s: %w", t.ID, err)
			}
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
