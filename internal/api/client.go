// Package api implements the HTTP client for the conversion backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/statement2sheet/s2s/internal/common"
	"github.com/statement2sheet/s2s/internal/model"
	"github.com/statement2sheet/s2s/internal/service"
)

// Client talks to the conversion backend's REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	retry      service.RetryOptions
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryOptions overrides the upload retry policy.
func WithRetryOptions(opts service.RetryOptions) Option {
	return func(c *Client) { c.retry = opts }
}

// NewClient creates a backend API client. The token may be empty for
// unauthenticated calls such as Login.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		retry: service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the auth token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for an auth token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out loginResponse
	if err := c.doJSON(req, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("login response missing token: %w", common.ErrAuthRejected)
	}
	return out.Token, nil
}

type uploadResponse struct {
	JobID      string `json:"jobId"`
	DocumentID string `json:"documentId"`
}

// Upload submits a statement file for conversion and returns the job ID
// assigned by the backend. Implements service.Uploader.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", common.NewUserError("Could not open the statement file", err)
	}
	defer func() { _ = file.Close() }()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read statement file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload body: %w", err)
	}

	// The same key on every retry lets the backend dedupe a re-sent upload.
	idempotencyKey := uuid.NewString()

	var out uploadResponse
	err = common.WithRetry(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/api/documents", bytes.NewReader(buf.Bytes()))
		if reqErr != nil {
			return fmt.Errorf("failed to create upload request: %w", reqErr)
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Idempotency-Key", idempotencyKey)
		return c.doJSON(req, &out)
	}, c.retry)
	if err != nil {
		return "", err
	}

	if out.JobID == "" {
		return "", fmt.Errorf("%w: backend returned no job ID", common.ErrUploadRejected)
	}
	slog.Info("Statement uploaded", "file", filepath.Base(path), "job_id", out.JobID)
	return out.JobID, nil
}

type transactionRow struct {
	Date        string `json:"date"`
	ID          string `json:"id"`
	Description string `json:"description"`
	Reference   string `json:"reference"`
	Amount      string `json:"amount"`
	Balance     string `json:"balance"`
	Currency    string `json:"currency"`
	Type        string `json:"type"`
}

type transactionsResponse struct {
	Transactions []transactionRow `json:"transactions"`
}

// GetTransactions fetches the converted rows for a document.
func (c *Client) GetTransactions(ctx context.Context, documentID string) ([]model.Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/documents/"+documentID+"/transactions", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactions request: %w", err)
	}

	var out transactionsResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}

	transactions := make([]model.Transaction, 0, len(out.Transactions))
	for _, row := range out.Transactions {
		txn, convErr := row.toModel(documentID)
		if convErr != nil {
			return nil, convErr
		}
		transactions = append(transactions, txn)
	}
	return transactions, nil
}

func (r transactionRow) toModel(documentID string) (model.Transaction, error) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid transaction date %q: %w", r.Date, err)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid transaction amount %q: %w", r.Amount, err)
	}
	balance := decimal.Zero
	if r.Balance != "" {
		balance, err = decimal.NewFromString(r.Balance)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("invalid transaction balance %q: %w", r.Balance, err)
		}
	}
	return model.Transaction{
		ID:          r.ID,
		DocumentID:  documentID,
		Date:        date,
		Description: r.Description,
		Reference:   r.Reference,
		Amount:      amount,
		Balance:     balance,
		Currency:    r.Currency,
		Type:        r.Type,
	}, nil
}

// PageUsage reports the account's page quota.
type PageUsage struct {
	PagesUsed  int `json:"pagesUsed"`
	PagesLimit int `json:"pagesLimit"`
}

// Remaining returns how many pages the account can still convert.
func (u PageUsage) Remaining() int {
	remaining := u.PagesLimit - u.PagesUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// GetUsage fetches the current page quota for the authenticated account.
func (c *Client) GetUsage(ctx context.Context) (PageUsage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/usage", nil)
	if err != nil {
		return PageUsage{}, fmt.Errorf("failed to create usage request: %w", err)
	}

	var out PageUsage
	if err := c.doJSON(req, &out); err != nil {
		return PageUsage{}, err
	}
	return out, nil
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doJSON executes the request with auth headers and decodes a JSON response
// into out. Non-2xx statuses are mapped onto the package error sentinels.
func (c *Client) doJSON(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("request failed: %w", err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	var detail apiError
	_ = json.NewDecoder(resp.Body).Decode(&detail)
	message := detail.Message
	if message == "" {
		message = detail.Error
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %s", common.ErrAuthRejected, message),
			Retryable: false,
		}
	case resp.StatusCode == http.StatusPaymentRequired:
		return &common.RetryableError{
			Err:       common.NewUserError("Page limit reached. Upgrade your plan to convert more pages.", fmt.Errorf("%w: %s", common.ErrUploadRejected, message)),
			Retryable: false,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return common.ErrRateLimit
	case resp.StatusCode >= 500:
		return &common.RetryableError{
			Err:       fmt.Errorf("server error %d: %s", resp.StatusCode, message),
			Retryable: true,
		}
	default:
		return &common.RetryableError{
			Err:       fmt.Errorf("request rejected with status %d: %s", resp.StatusCode, message),
			Retryable: false,
		}
	}
}
