package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statement2sheet/s2s/internal/detect"
	"github.com/statement2sheet/s2s/internal/model"
	"github.com/statement2sheet/s2s/internal/service"
	"github.com/statement2sheet/s2s/internal/storage"
)

type fakeUploader struct {
	jobID string
	err   error
	calls int
}

func (f *fakeUploader) Upload(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.jobID, f.err
}

func setupCmdStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUploadOneRecordsDetectedMetadata(t *testing.T) {
	store := setupCmdStorage(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "wells_fargo_statement.txt")
	statement := `Wells Fargo Bank
Account Statement
Statement Period: 01/01/2024 - 01/31/2024
Account Number: 1234567890
Date        Description           Amount    Balance
01/05/2024  CARD PURCHASE         -25.40    $974.60
`
	require.NoError(t, os.WriteFile(path, []byte(statement), 0600))

	up := &fakeUploader{jobID: "job-1"}
	require.NoError(t, uploadOne(ctx, store, up, detect.New(), path))
	assert.Equal(t, 1, up.calls)

	docs, err := store.GetDocuments(ctx, service.DocumentFilter{})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "job-1", doc.JobID)
	assert.Equal(t, model.DocumentProcessing, doc.Status)
	assert.Equal(t, "Wells Fargo", doc.BankName)
	assert.Greater(t, doc.Confidence, 0.0)
}

func TestUploadOneFailureLeavesNoRecord(t *testing.T) {
	store := setupCmdStorage(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "statement.txt")
	require.NoError(t, os.WriteFile(path, []byte("some text"), 0600))

	up := &fakeUploader{err: errors.New("backend down")}
	require.Error(t, uploadOne(ctx, store, up, detect.New(), path))

	docs, err := store.GetDocuments(ctx, service.DocumentFilter{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDefaultOutPath(t *testing.T) {
	assert.Equal(t, "statement.xlsx", defaultOutPath("statement.pdf", "xlsx"))
	assert.Equal(t, "statement.csv", defaultOutPath("statement", "csv"))
	assert.Equal(t, ".hidden.xlsx", defaultOutPath(".hidden", "xlsx"))
}
