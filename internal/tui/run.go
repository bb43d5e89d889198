package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/statement2sheet/s2s/internal/model"
	"github.com/statement2sheet/s2s/internal/realtime"
)

// Run starts the watch dashboard and blocks until the user quits or the
// context is canceled. Realtime observers are attached for the lifetime of
// the program and detached on exit.
func Run(ctx context.Context, client *realtime.Client, admin bool) error {
	p := tea.NewProgram(NewModel(client, admin), tea.WithAltScreen(), tea.WithContext(ctx))

	detachJob := client.OnJobProgress(func(job model.JobProgress) {
		p.Send(jobMsg(job))
	})
	detachQueue := client.OnQueueStatus(func(qs model.QueueStatus) {
		p.Send(queueMsg(qs))
	})
	detachMetrics := client.OnSystemMetrics(func(sm model.SystemMetrics) {
		p.Send(metricsMsg(sm))
	})
	detachConn := client.OnConnectionStatus(func(connected bool) {
		p.Send(connectionMsg(connected))
	})
	defer func() {
		detachJob()
		detachQueue()
		detachMetrics()
		detachConn()
	}()

	if admin {
		client.SubscribeToAdminEvents()
		defer client.UnsubscribeFromAdminEvents()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
