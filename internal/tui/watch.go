// Package tui renders the live job tracking dashboard for the watch command.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/statement2sheet/s2s/internal/model"
	"github.com/statement2sheet/s2s/internal/realtime"
)

// Messages pushed into the program by realtime observers.
type (
	jobMsg          model.JobProgress
	queueMsg        model.QueueStatus
	metricsMsg      model.SystemMetrics
	connectionMsg   bool
	notificationMsg struct{}
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2FBF71"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

// Model is the bubbletea model for the watch dashboard.
type Model struct {
	client    *realtime.Client
	spinner   spinner.Model
	admin     bool
	connected bool
	width     int
	height    int
	quitting  bool
}

// NewModel creates the dashboard model. With admin enabled the queue and
// worker panels are rendered too.
func NewModel(client *realtime.Client, admin bool) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#2FBF71"))
	m := Model{
		client:  client,
		spinner: sp,
		admin:   admin,
	}
	if client != nil {
		m.connected = client.IsConnected()
	}
	return m
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.client.ClearNotifications()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case connectionMsg:
		m.connected = bool(msg)
	case jobMsg, queueMsg, metricsMsg, notificationMsg:
		// State lives in the client; a message just triggers a redraw.
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("s2s watch"))
	b.WriteString("  ")
	if m.connected {
		b.WriteString(okStyle.Render("● connected"))
	} else if msg := m.client.ConnectionError(); msg != "" {
		b.WriteString(errStyle.Render("● " + msg))
	} else {
		b.WriteString(warnStyle.Render(m.spinner.View() + "connecting"))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderJobs())
	if m.admin {
		b.WriteString(m.renderQueues())
		b.WriteString(m.renderMetrics())
	}
	b.WriteString(m.renderNotifications())

	b.WriteString(dimStyle.Render("\nq quit · c clear notifications\n"))
	return b.String()
}

func (m Model) renderJobs() string {
	jobs := m.client.Jobs()
	if len(jobs) == 0 {
		return dimStyle.Render("No active jobs. Upload a statement to get started.\n\n")
	}

	ids := make([]string, 0, len(jobs))
	for id := range jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Jobs"))
	b.WriteString("\n")
	for _, id := range ids {
		job := jobs[id]
		b.WriteString(fmt.Sprintf("  %-14s %s", shortID(id), renderStatus(job.Status)))
		if job.Progress != nil {
			b.WriteString(fmt.Sprintf("  %s", renderBar(*job.Progress)))
		}
		if job.QueuePosition != nil {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  queue #%d", *job.QueuePosition)))
		}
		if job.EstimatedTime != nil {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  ~%ds", *job.EstimatedTime)))
		}
		if job.Status == model.JobStatusFailed && job.Error != "" {
			b.WriteString("  " + errStyle.Render(job.Error))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderQueues() string {
	qs := m.client.QueueStatus()
	if qs == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Queues"))
	b.WriteString("\n")
	for _, lane := range []struct {
		stats *model.LaneStats
		name  string
	}{
		{qs.Premium, "premium"},
		{qs.Normal, "normal"},
		{qs.Large, "large"},
	} {
		if lane.stats == nil {
			b.WriteString(fmt.Sprintf("  %-8s %s\n", lane.name, dimStyle.Render("no data")))
			continue
		}
		b.WriteString(fmt.Sprintf("  %-8s waiting %-4d active %d\n",
			lane.name, lane.stats.Waiting, lane.stats.Active))
	}
	b.WriteString(fmt.Sprintf("  workers  %d/%d active\n\n", qs.ActiveWorkers, qs.TotalWorkers))
	return b.String()
}

func (m Model) renderMetrics() string {
	sm := m.client.SystemMetrics()
	if sm == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("System"))
	b.WriteString("\n")
	if sm.Performance != nil {
		rate := fmt.Sprintf("%.1f%%", sm.Performance.SuccessRate)
		styled := okStyle.Render(rate)
		if sm.Performance.SuccessRate < 85 {
			styled = errStyle.Render(rate)
		}
		b.WriteString(fmt.Sprintf("  success rate %s  %.1f jobs/min  avg %.0fms\n",
			styled, sm.Performance.Throughput, sm.Performance.AvgProcessMs))
	}
	if sm.System != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  uptime %s  users %d  workers %d\n",
			formatUptime(sm.System.UptimeSeconds), sm.System.ConnectedUsers, sm.System.ActiveWorkers)))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderNotifications() string {
	notifications := m.client.Notifications()
	if len(notifications) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Notifications"))
	b.WriteString("\n")
	shown := notifications
	if len(shown) > 5 {
		shown = shown[:5]
	}
	for _, n := range shown {
		style := okStyle
		switch n.Type {
		case model.NotificationError, model.NotificationPageLimit:
			style = errStyle
		case model.NotificationAlert:
			style = warnStyle
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", style.Render(n.Title), dimStyle.Render(n.Message)))
	}
	b.WriteString("\n")
	return b.String()
}

func renderStatus(status model.JobStatus) string {
	label := string(status)
	switch status {
	case model.JobStatusCompleted:
		return okStyle.Render(label)
	case model.JobStatusFailed:
		return errStyle.Render(label)
	case model.JobStatusQueued:
		return warnStyle.Render(label)
	default:
		return label
	}
}

func formatUptime(seconds int64) string {
	if seconds < 3600 {
		return fmt.Sprintf("%dm", seconds/60)
	}
	return fmt.Sprintf("%dh%dm", seconds/3600, seconds%3600/60)
}

func renderBar(pct int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	const width = 20
	filled := pct * width / 100
	return fmt.Sprintf("[%s%s] %3d%%",
		strings.Repeat("█", filled), strings.Repeat("░", width-filled), pct)
}

func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12] + "…"
}
