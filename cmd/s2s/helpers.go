package main

import (
	"context"
	"fmt"
	"os"

	"github.com/statement2sheet/s2s/internal/api"
	"github.com/statement2sheet/s2s/internal/cli"
	"github.com/statement2sheet/s2s/internal/config"
	"github.com/statement2sheet/s2s/internal/storage"
)

// initStorage opens the local database and runs any pending migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newAPIClient builds a backend client with the persisted auth token, if any.
func newAPIClient(ctx context.Context, store *storage.SQLiteStorage) (*api.Client, error) {
	token, err := store.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load auth token: %w", err)
	}
	return api.NewClient(config.APIBaseURL(), token), nil
}

// requireToken loads the persisted token, failing with a login hint when the
// user has never authenticated.
func requireToken(ctx context.Context, store *storage.SQLiteStorage) (string, error) {
	token, err := store.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load auth token: %w", err)
	}
	if token == "" {
		fmt.Fprintln(os.Stderr, cli.FormatError("Not logged in. Run: s2s auth login"))
		return "", fmt.Errorf("no auth token")
	}
	return token, nil
}
