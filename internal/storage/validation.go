// Package storage provides the local persistence layer for the s2s client.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/statement2sheet/s2s/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidDocument = errors.New("invalid document")
	ErrInvalidTxn      = errors.New("invalid transaction")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateDocument(doc *model.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document", ErrNilParameter)
	}
	if strings.TrimSpace(doc.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidDocument)
	}
	if strings.TrimSpace(doc.FileName) == "" {
		return fmt.Errorf("%w: missing file name", ErrInvalidDocument)
	}
	return nil
}

func validateTransactions(transactions []model.Transaction) error {
	for i := range transactions {
		t := &transactions[i]
		if strings.TrimSpace(t.ID) == "" {
			return fmt.Errorf("%w: transaction %d missing ID", ErrInvalidTxn, i)
		}
		if strings.TrimSpace(t.DocumentID) == "" {
			return fmt.Errorf("%w: transaction %d missing document ID", ErrInvalidTxn, i)
		}
		if t.Date.IsZero() {
			return fmt.Errorf("%w: transaction %d missing date", ErrInvalidTxn, i)
		}
	}
	return nil
}
