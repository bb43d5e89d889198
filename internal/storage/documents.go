package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/statement2sheet/s2s/internal/common"
	"github.com/statement2sheet/s2s/internal/model"
	"github.com/statement2sheet/s2s/internal/service"
)

const documentColumns = `id, file_name, job_id, status, bank_name, country, currency,
	account_number, statement_period, document_type, confidence, page_count,
	uploaded_at, converted_at`

// SaveDocument inserts or replaces a tracked document.
func (s *SQLiteStorage) SaveDocument(ctx context.Context, doc *model.Document) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDocument(doc); err != nil {
		return err
	}

	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.FileName, doc.JobID, string(doc.Status), doc.BankName,
		doc.Country, doc.Currency, doc.AccountNumber, doc.StatementPeriod,
		string(doc.DocumentType), doc.Confidence, doc.PageCount,
		doc.UploadedAt, doc.ConvertedAt)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by its ID.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// GetDocumentByJobID retrieves the document tracking a conversion job. The
// realtime client uses this to attach job events back to local state.
func (s *SQLiteStorage) GetDocumentByJobID(ctx context.Context, jobID string) (*model.Document, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(jobID, "jobID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE job_id = ?`, jobID)
	return scanDocument(row)
}

// GetDocuments retrieves documents matching the filter, most recent first.
func (s *SQLiteStorage) GetDocuments(ctx context.Context, filter service.DocumentFilter) ([]model.Document, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + documentColumns + ` FROM documents`
	var conditions []string
	var args []any

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Bank != "" {
		conditions = append(conditions, "bank_name = ? COLLATE NOCASE")
		args = append(args, filter.Bank)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY uploaded_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []model.Document
	for rows.Next() {
		doc, scanErr := scanDocumentRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// UpdateDocumentStatus transitions a document to a new status. Reaching the
// converted state stamps the conversion time.
func (s *SQLiteStorage) UpdateDocumentStatus(ctx context.Context, id string, status model.DocumentStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	var result sql.Result
	var err error
	if status == model.DocumentConverted {
		result, err = s.db.ExecContext(ctx,
			`UPDATE documents SET status = ?, converted_at = ? WHERE id = ?`,
			string(status), time.Now(), id)
	} else {
		result, err = s.db.ExecContext(ctx,
			`UPDATE documents SET status = ? WHERE id = ?`, string(status), id)
	}
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// DeleteDocument removes a document and its transactions.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete document transactions: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row *sql.Row) (*model.Document, error) {
	doc, err := scanDocumentRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return doc, err
}

func scanDocumentRow(row rowScanner) (*model.Document, error) {
	var doc model.Document
	var status, docType string
	var jobID, bankName, country, currency, accountNumber, period sql.NullString
	var convertedAt sql.NullTime

	err := row.Scan(&doc.ID, &doc.FileName, &jobID, &status, &bankName,
		&country, &currency, &accountNumber, &period, &docType,
		&doc.Confidence, &doc.PageCount, &doc.UploadedAt, &convertedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	doc.Status = model.DocumentStatus(status)
	doc.DocumentType = model.DocumentType(docType)
	doc.JobID = jobID.String
	doc.BankName = bankName.String
	doc.Country = country.String
	doc.Currency = currency.String
	doc.AccountNumber = accountNumber.String
	doc.StatementPeriod = period.String
	if convertedAt.Valid {
		t := convertedAt.Time
		doc.ConvertedAt = &t
	}
	return &doc, nil
}
