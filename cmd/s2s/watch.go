package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/statement2sheet/s2s/internal/cli"
	"github.com/statement2sheet/s2s/internal/config"
	"github.com/statement2sheet/s2s/internal/realtime"
	"github.com/statement2sheet/s2s/internal/storage"
	"github.com/statement2sheet/s2s/internal/tui"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow conversion jobs live",
		Long: `Watch opens a realtime connection to the conversion service and shows
job progress, completions, and failures as they happen. With --admin the
dashboard also shows queue depth and system metrics.`,
		RunE: runWatch,
	}

	cmd.Flags().Bool("admin", false, "subscribe to queue and system metrics")

	return cmd
}

// storeAuthStatus adapts the local token store to the realtime client's view
// of authentication state.
type storeAuthStatus struct {
	store *storage.SQLiteStorage
}

func (a *storeAuthStatus) IsAuthenticated() bool {
	token, err := a.store.Token(context.Background())
	return err == nil && token != ""
}

func (a *storeAuthStatus) HandleAuthExpired() {
	_ = a.store.ClearToken(context.Background())
	fmt.Fprintln(os.Stderr, cli.FormatError("Session expired. Run: s2s auth login"))
}

// stderrAlertSink prints realtime alerts outside the dashboard.
type stderrAlertSink struct{}

func (stderrAlertSink) Error(title, message string) {
	fmt.Fprintln(os.Stderr, cli.FormatError(title+": "+message))
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	admin, _ := cmd.Flags().GetBool("admin")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	token, err := requireToken(ctx, store)
	if err != nil {
		return err
	}

	transport := realtime.NewWebSocketTransport(config.RealtimeURL())
	client := realtime.New(transport, store, &storeAuthStatus{store: store}, stderrAlertSink{})
	defer client.Disconnect()

	if err := client.Connect(ctx, token); err != nil {
		return fmt.Errorf("could not connect: %w", err)
	}

	return tui.Run(ctx, client, admin)
}
