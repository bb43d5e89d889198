package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statement2sheet/s2s/internal/common"
	"github.com/statement2sheet/s2s/internal/service"
)

func writeTempStatement(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statement.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0600))
	return path
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)

		var req loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user@example.com", req.Email)

		_ = json.NewEncoder(w).Encode(loginResponse{Token: "tok-123"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	token, err := client.Login(context.Background(), "user@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestLoginRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "bad credentials"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.Login(context.Background(), "user@example.com", "wrong")
	assert.ErrorIs(t, err, common.ErrAuthRejected)
}

func TestUpload(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		gotKey = r.Header.Get("Idempotency-Key")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		assert.Equal(t, "statement.pdf", header.Filename)

		_ = json.NewEncoder(w).Encode(uploadResponse{JobID: "job-1"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-123")
	jobID, err := client.Upload(context.Background(), writeTempStatement(t))
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.NotEmpty(t, gotKey)
}

func TestUploadRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	keys := make(map[string]bool)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys[r.Header.Get("Idempotency-Key")] = true
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(uploadResponse{JobID: "job-1"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-123",
		WithRetryOptions(service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond}))
	jobID, err := client.Upload(context.Background(), writeTempStatement(t))
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, keys, 1, "retries should reuse the idempotency key")
}

func TestUploadPageLimitNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "page limit exceeded"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-123")
	_, err := client.Upload(context.Background(), writeTempStatement(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUploadRejected)
	assert.Equal(t, int32(1), calls.Load())

	var userErr *common.UserError
	assert.True(t, errors.As(err, &userErr), "page limit should surface a user-facing message")
}

func TestUploadMissingFile(t *testing.T) {
	client := NewClient("http://localhost:1", "tok-123")
	_, err := client.Upload(context.Background(), "/nonexistent/statement.pdf")
	require.Error(t, err)

	var userErr *common.UserError
	assert.True(t, errors.As(err, &userErr))
}

func TestGetTransactions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/doc-1/transactions", r.URL.Path)
		_ = json.NewEncoder(w).Encode(transactionsResponse{Transactions: []transactionRow{
			{ID: "t1", Date: "2024-01-05", Description: "COMPRA TARJETA", Amount: "-25.40", Balance: "974.60", Currency: "EUR", Type: "DEBIT"},
			{ID: "t2", Date: "2024-01-07", Description: "NOMINA", Amount: "1800.00", Currency: "EUR", Type: "CREDIT"},
		}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-123")
	transactions, err := client.GetTransactions(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	assert.Equal(t, "doc-1", transactions[0].DocumentID)
	assert.True(t, transactions[0].Amount.Equal(decimal.RequireFromString("-25.40")))
	assert.True(t, transactions[1].Balance.IsZero(), "missing balance defaults to zero")
}

func TestGetTransactionsBadAmount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(transactionsResponse{Transactions: []transactionRow{
			{ID: "t1", Date: "2024-01-05", Amount: "not-a-number"},
		}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-123")
	_, err := client.GetTransactions(context.Background(), "doc-1")
	assert.Error(t, err)
}

func TestGetUsage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/usage", r.URL.Path)
		_ = json.NewEncoder(w).Encode(PageUsage{PagesUsed: 42, PagesLimit: 50})
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-123")
	usage, err := client.GetUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, usage.Remaining())

	over := PageUsage{PagesUsed: 60, PagesLimit: 50}
	assert.Equal(t, 0, over.Remaining())
}
