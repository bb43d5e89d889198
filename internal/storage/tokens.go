package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const authTokenKey = "auth_token"

// Token returns the persisted auth token, or an empty string when no token
// has been stored.
func (s *SQLiteStorage) Token(ctx context.Context) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, authTokenKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read auth token: %w", err)
	}
	return value, nil
}

// SetToken persists the auth token, replacing any previous one.
func (s *SQLiteStorage) SetToken(ctx context.Context, token string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(token, "token"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		authTokenKey, token)
	if err != nil {
		return fmt.Errorf("failed to store auth token: %w", err)
	}
	return nil
}

// ClearToken removes the persisted auth token. Clearing an absent token is
// not an error.
func (s *SQLiteStorage) ClearToken(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, authTokenKey)
	if err != nil {
		return fmt.Errorf("failed to clear auth token: %w", err)
	}
	return nil
}
