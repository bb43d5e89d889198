package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statement2sheet/s2s/internal/common"
	"github.com/statement2sheet/s2s/internal/model"
	"github.com/statement2sheet/s2s/internal/service"
)

func setupTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testDocument(id string) *model.Document {
	return &model.Document{
		ID:              id,
		FileName:        id + ".pdf",
		JobID:           "job-" + id,
		Status:          model.DocumentUploaded,
		BankName:        "BBVA",
		Country:         "ES",
		Currency:        "EUR",
		AccountNumber:   "ES91 2100 0418 4502 0005 1332",
		StatementPeriod: "01/01/2024 - 31/01/2024",
		DocumentType:    model.DocumentTypeChecking,
		Confidence:      0.82,
		PageCount:       4,
		UploadedAt:      time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := setupTestStorage(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestSaveAndGetDocument(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	doc := testDocument("doc-1")
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.FileName, got.FileName)
	assert.Equal(t, doc.BankName, got.BankName)
	assert.Equal(t, doc.DocumentType, got.DocumentType)
	assert.InDelta(t, doc.Confidence, got.Confidence, 0.0001)
	assert.Nil(t, got.ConvertedAt)
}

func TestGetDocumentNotFound(t *testing.T) {
	store := setupTestStorage(t)

	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetDocumentByJobID(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1")))
	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-2")))

	got, err := store.GetDocumentByJobID(ctx, "job-doc-2")
	require.NoError(t, err)
	assert.Equal(t, "doc-2", got.ID)
}

func TestSaveDocumentValidation(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		doc  *model.Document
		name string
	}{
		{name: "nil document", doc: nil},
		{name: "missing id", doc: &model.Document{FileName: "a.pdf"}},
		{name: "missing file name", doc: &model.Document{ID: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, store.SaveDocument(ctx, tt.doc))
		})
	}
}

func TestGetDocumentsFilter(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	for i, bank := range []string{"BBVA", "Chase", "BBVA"} {
		doc := testDocument(string(rune('a' + i)))
		doc.BankName = bank
		doc.UploadedAt = time.Date(2024, 2, 1+i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, store.SaveDocument(ctx, doc))
	}
	require.NoError(t, store.UpdateDocumentStatus(ctx, "a", model.DocumentConverted))

	t.Run("by bank", func(t *testing.T) {
		docs, err := store.GetDocuments(ctx, service.DocumentFilter{Bank: "bbva"})
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("by status", func(t *testing.T) {
		status := model.DocumentConverted
		docs, err := store.GetDocuments(ctx, service.DocumentFilter{Status: &status})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "a", docs[0].ID)
	})

	t.Run("most recent first with limit", func(t *testing.T) {
		docs, err := store.GetDocuments(ctx, service.DocumentFilter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "c", docs[0].ID)
		assert.Equal(t, "b", docs[1].ID)
	})
}

func TestUpdateDocumentStatus(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1")))
	require.NoError(t, store.UpdateDocumentStatus(ctx, "doc-1", model.DocumentConverted))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.DocumentConverted, got.Status)
	require.NotNil(t, got.ConvertedAt)
	assert.WithinDuration(t, time.Now(), *got.ConvertedAt, time.Minute)

	err = store.UpdateDocumentStatus(ctx, "missing", model.DocumentFailed)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteDocumentCascades(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1")))
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		testTransaction("t1", "doc-1", "2024-01-05", "10.50"),
	}))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	txns, err := store.GetTransactionsByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func testTransaction(id, docID, date, amount string) model.Transaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return model.Transaction{
		ID:          id,
		DocumentID:  docID,
		Date:        d,
		Description: "COMPRA TARJETA " + id,
		Amount:      decimal.RequireFromString(amount),
		Balance:     decimal.RequireFromString("1000.00"),
		Currency:    "EUR",
		Type:        "DEBIT",
	}
}

func TestSaveAndGetTransactions(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1")))
	txns := []model.Transaction{
		testTransaction("t2", "doc-1", "2024-01-10", "-25.00"),
		testTransaction("t1", "doc-1", "2024-01-05", "10.50"),
	}
	require.NoError(t, store.SaveTransactions(ctx, txns))

	got, err := store.GetTransactionsByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].ID, "transactions should come back in date order")
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("10.50")))
	assert.True(t, got[1].Amount.Equal(decimal.RequireFromString("-25.00")))
}

func TestSaveTransactionsSkipsDuplicateHashes(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1")))
	first := testTransaction("t1", "doc-1", "2024-01-05", "10.50")
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{first}))

	// Same content under a different ID hashes identically.
	dup := first
	dup.ID = "t1-reimport"
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{dup}))

	got, err := store.GetTransactionsByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestGetTransactionsByPeriod(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1")))
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		testTransaction("t1", "doc-1", "2024-01-05", "10.00"),
		testTransaction("t2", "doc-1", "2024-01-20", "20.00"),
		testTransaction("t3", "doc-1", "2024-02-02", "30.00"),
	}))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	got, err := store.GetTransactionsByPeriod(ctx, start, end)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = store.GetTransactionsByPeriod(ctx, end, start)
	assert.Error(t, err)
}

func TestSaveTransactionsValidation(t *testing.T) {
	store := setupTestStorage(t)

	bad := testTransaction("t1", "doc-1", "2024-01-05", "10.00")
	bad.DocumentID = ""
	err := store.SaveTransactions(context.Background(), []model.Transaction{bad})
	assert.True(t, errors.Is(err, ErrInvalidTxn))
}

func TestTokenStore(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token, "fresh database has no token")

	require.NoError(t, store.SetToken(ctx, "tok-1"))
	require.NoError(t, store.SetToken(ctx, "tok-2"))

	token, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)

	require.NoError(t, store.ClearToken(ctx))
	require.NoError(t, store.ClearToken(ctx), "clearing twice is fine")

	token, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}
