// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/statement2sheet/s2s/internal/model"
)

// DocumentFilter defines filtering options for document queries.
type DocumentFilter struct {
	Status *model.DocumentStatus
	Bank   string
	Limit  int
	Offset int
}

// Storage defines the contract for the local persistence layer.
type Storage interface {
	// Document operations
	SaveDocument(ctx context.Context, doc *model.Document) error
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	GetDocumentByJobID(ctx context.Context, jobID string) (*model.Document, error)
	GetDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error)
	UpdateDocumentStatus(ctx context.Context, id string, status model.DocumentStatus) error
	DeleteDocument(ctx context.Context, id string) error

	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactionsByDocument(ctx context.Context, documentID string) ([]model.Transaction, error)
	GetTransactionsByPeriod(ctx context.Context, start, end time.Time) ([]model.Transaction, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// TokenStore persists the backend auth token between sessions. The realtime
// client falls back to the stored token when Connect is called without one.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// AuthStatus reports the locally known authentication state. The realtime
// client consults it when the server sends a mid-session auth error, to
// distinguish a genuinely expired session from a stale server-side race.
type AuthStatus interface {
	IsAuthenticated() bool
	HandleAuthExpired()
}

// AlertSink receives fire-and-forget user-facing alerts (toasts). Calls must
// never block the caller.
type AlertSink interface {
	Error(title, message string)
}

// Uploader submits statement files to the backend for conversion.
type Uploader interface {
	Upload(ctx context.Context, path string) (jobID string, err error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
