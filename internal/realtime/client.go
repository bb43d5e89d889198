package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/statement2sheet/s2s/internal/common"
	"github.com/statement2sheet/s2s/internal/model"
	"github.com/statement2sheet/s2s/internal/service"
)

// Config holds tuning knobs for the realtime client.
type Config struct {
	// ConnectAttempts bounds the automatic retry inside Connect.
	ConnectAttempts int
	// ConnectBackoff is the first retry delay; subsequent delays grow
	// linearly (1x, 2x, 3x, ...).
	ConnectBackoff time.Duration
	// ReconnectDelay is the fixed wait before an automatic reconnect after
	// a transport failure.
	ReconnectDelay time.Duration
	// QueueAlertThreshold is the total-waiting count above which a high
	// queue volume notification is raised.
	QueueAlertThreshold int
	// SuccessRateThreshold is the percentage below which a low success rate
	// notification is raised.
	SuccessRateThreshold float64
	// AlertCap bounds the notification list when alert-type notifications
	// are added; the oldest entries are dropped.
	AlertCap int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		ConnectAttempts:      5,
		ConnectBackoff:       time.Second,
		ReconnectDelay:       3 * time.Second,
		QueueAlertThreshold:  50,
		SuccessRateThreshold: 85.0,
		AlertCap:             10,
	}
}

// Client reconciles the backend's asynchronous job, queue, and metrics
// events into queryable local state, and derives the notification feed.
// It owns all of that state exclusively: consumers read snapshots and use
// the documented mutators only.
type Client struct {
	transport Transport
	tokens    service.TokenStore
	auth      service.AuthStatus
	alerts    service.AlertSink
	cfg       Config

	mu                 sync.Mutex
	connected          bool
	connecting         bool
	manualDisconnect   bool
	handlersRegistered bool
	lastToken          string
	connectionError    string
	reconnectTimer     *time.Timer

	jobProgress   map[string]model.JobProgress
	queueStatus   *model.QueueStatus
	systemMetrics *model.SystemMetrics
	notifications []model.Notification

	jobObservers     *observerList[model.JobProgress]
	queueObservers   *observerList[model.QueueStatus]
	metricsObservers *observerList[model.SystemMetrics]
	connObservers    *observerList[bool]
}

// New creates a realtime client with default configuration. The auth and
// alert collaborators may be nil, in which case the corresponding side
// effects are skipped.
func New(transport Transport, tokens service.TokenStore, auth service.AuthStatus, alerts service.AlertSink) *Client {
	return NewWithConfig(transport, tokens, auth, alerts, DefaultConfig())
}

// NewWithConfig creates a realtime client with custom configuration.
func NewWithConfig(transport Transport, tokens service.TokenStore, auth service.AuthStatus, alerts service.AlertSink, cfg Config) *Client {
	if cfg.ConnectAttempts <= 0 {
		cfg.ConnectAttempts = 5
	}
	if cfg.ConnectBackoff <= 0 {
		cfg.ConnectBackoff = time.Second
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 3 * time.Second
	}
	if cfg.AlertCap <= 0 {
		cfg.AlertCap = 10
	}
	return &Client{
		transport:        transport,
		tokens:           tokens,
		auth:             auth,
		alerts:           alerts,
		cfg:              cfg,
		jobProgress:      make(map[string]model.JobProgress),
		jobObservers:     newObserverList[model.JobProgress](),
		queueObservers:   newObserverList[model.QueueStatus](),
		metricsObservers: newObserverList[model.SystemMetrics](),
		connObservers:    newObserverList[bool](),
	}
}

// Connect opens the transport session and authenticates. It is idempotent:
// while a session is connected or a connect is in flight, further calls
// return immediately. The token argument takes precedence over the persisted
// token from the token store. Connection failures are retried up to
// ConnectAttempts times with linearly increasing backoff before giving up.
func (c *Client) Connect(ctx context.Context, token string) error {
	c.mu.Lock()
	if c.connected || c.connecting {
		c.mu.Unlock()
		return nil
	}
	c.connecting = true
	c.manualDisconnect = false
	c.connectionError = ""
	c.mu.Unlock()

	if token == "" && c.tokens != nil {
		stored, err := c.tokens.Token(ctx)
		if err != nil {
			slog.Debug("no persisted token available", "error", err)
		} else {
			token = stored
		}
	}

	c.registerHandlers()

	err := common.WithLinearRetry(ctx, func() error {
		return c.transport.Connect(ctx)
	}, c.cfg.ConnectAttempts, c.cfg.ConnectBackoff)
	if err != nil {
		c.mu.Lock()
		c.connecting = false
		c.connectionError = "unable to reach the conversion service"
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", common.ErrConnectionFailed, err)
	}

	c.mu.Lock()
	if c.manualDisconnect {
		// Disconnect was called while the retry loop was in flight; the
		// explicit request wins over the late success.
		c.connecting = false
		c.mu.Unlock()
		_ = c.transport.Close()
		return nil
	}
	c.connecting = false
	c.connected = true
	c.lastToken = token
	c.mu.Unlock()

	if token != "" {
		if emitErr := c.transport.Emit(EventAuthenticate, authPayload{Token: token}); emitErr != nil {
			slog.Warn("failed to send authenticate event", "error", emitErr)
		}
	}

	slog.Info("realtime session established")
	c.connObservers.dispatch(true)
	return nil
}

// Disconnect tears the session down and suppresses any automatic reconnect.
// Connection-status observers are notified synchronously. Always succeeds
// and is idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	wasActive := c.connected || c.connecting
	c.manualDisconnect = true
	c.connected = false
	c.connecting = false
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.mu.Unlock()

	_ = c.transport.Close()

	if wasActive {
		c.connObservers.dispatch(false)
	}
}

// IsConnected reports whether a session is currently established.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// ConnectionError returns the human-readable reason the last Connect gave
// up, or empty when there is none.
func (c *Client) ConnectionError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectionError
}

// OnJobProgress registers an observer for per-job state changes and returns
// its detach function.
func (c *Client) OnJobProgress(h func(model.JobProgress)) func() {
	return c.jobObservers.add(h)
}

// OnQueueStatus registers an observer for queue snapshots.
func (c *Client) OnQueueStatus(h func(model.QueueStatus)) func() {
	return c.queueObservers.add(h)
}

// OnSystemMetrics registers an observer for system metrics snapshots.
func (c *Client) OnSystemMetrics(h func(model.SystemMetrics)) func() {
	return c.metricsObservers.add(h)
}

// OnConnectionStatus registers an observer for connected/disconnected
// transitions.
func (c *Client) OnConnectionStatus(h func(bool)) func() {
	return c.connObservers.add(h)
}

// SubscribeToAdminEvents opts this session into system-metrics broadcasts
// and requests an immediate snapshot. No-op when not connected.
func (c *Client) SubscribeToAdminEvents() {
	if !c.IsConnected() {
		return
	}
	if err := c.transport.Emit(EventSubscribeAdmin, nil); err != nil {
		slog.Warn("failed to subscribe to admin events", "error", err)
		return
	}
	if err := c.transport.Emit(EventRequestSystemMetrics, nil); err != nil {
		slog.Warn("failed to request system metrics", "error", err)
	}
}

// UnsubscribeFromAdminEvents opts out of system-metrics broadcasts. No-op
// when not connected.
func (c *Client) UnsubscribeFromAdminEvents() {
	if !c.IsConnected() {
		return
	}
	if err := c.transport.Emit(EventUnsubscribeAdmin, nil); err != nil {
		slog.Warn("failed to unsubscribe from admin events", "error", err)
	}
}

// Job returns the last known state for a job id.
func (c *Client) Job(jobID string) (model.JobProgress, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.jobProgress[jobID]
	return p, ok
}

// Jobs returns a snapshot of all tracked jobs.
func (c *Client) Jobs() map[string]model.JobProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]model.JobProgress, len(c.jobProgress))
	for id, p := range c.jobProgress {
		out[id] = p
	}
	return out
}

// QueueStatus returns a copy of the last queue snapshot, or nil if none has
// arrived yet.
func (c *Client) QueueStatus() *model.QueueStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queueStatus == nil {
		return nil
	}
	snapshot := *c.queueStatus
	return &snapshot
}

// SystemMetrics returns a copy of the last metrics snapshot, or nil if none
// has arrived yet.
func (c *Client) SystemMetrics() *model.SystemMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.systemMetrics == nil {
		return nil
	}
	snapshot := *c.systemMetrics
	return &snapshot
}

// Notifications returns a snapshot of the notification feed, newest first.
func (c *Client) Notifications() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

// MarkNotificationRead flips the read flag on one notification.
func (c *Client) MarkNotificationRead(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.notifications {
		if c.notifications[i].ID == id {
			c.notifications[i].Read = true
			return true
		}
	}
	return false
}

// ClearNotifications empties the notification feed.
func (c *Client) ClearNotifications() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = nil
}

// registerHandlers wires the inbound event classes. Registration happens
// once, before the first connect resolves, and survives reconnects.
func (c *Client) registerHandlers() {
	c.mu.Lock()
	if c.handlersRegistered {
		c.mu.Unlock()
		return
	}
	c.handlersRegistered = true
	c.mu.Unlock()

	c.transport.On(EventJobQueued, c.jobEventHandler(model.JobStatusQueued))
	c.transport.On(EventJobStarted, c.jobEventHandler(model.JobStatusStarted))
	c.transport.On(EventJobProgress, c.jobEventHandler(model.JobStatusProgress))
	c.transport.On(EventJobCompleted, c.jobEventHandler(model.JobStatusCompleted))
	c.transport.On(EventJobFailed, c.jobEventHandler(model.JobStatusFailed))
	c.transport.On(EventQueueStatus, c.handleQueueStatus)
	c.transport.On(EventSystemMetrics, c.handleSystemMetrics)
	c.transport.On(EventAuthenticated, func(json.RawMessage) {
		slog.Debug("session authenticated")
	})
	c.transport.On(EventAuthError, c.handleAuthError)
	c.transport.OnDisconnect(c.handleTransportDown)
}

// jobEventHandler builds the handler for one job lifecycle event. The event
// name dictates the stored status; the decoded payload replaces any previous
// state for the job id wholesale, before notification side effects run.
func (c *Client) jobEventHandler(status model.JobStatus) EventHandler {
	return func(data json.RawMessage) {
		if c.dropEvents() {
			return
		}
		var progress model.JobProgress
		if err := json.Unmarshal(data, &progress); err != nil {
			slog.Warn("malformed job event payload", "status", status, "error", err)
			return
		}
		if progress.JobID == "" {
			return
		}
		progress.Status = status

		c.mu.Lock()
		c.jobProgress[progress.JobID] = progress
		c.mu.Unlock()

		c.jobObservers.dispatch(progress)

		if status.IsTerminal() {
			c.notifyJobTerminal(progress)
		}
	}
}

// handleQueueStatus replaces the queue snapshot and derives the high-volume
// alert. Structurally incomplete snapshots update state but never alert.
func (c *Client) handleQueueStatus(data json.RawMessage) {
	if c.dropEvents() {
		return
	}
	var status model.QueueStatus
	if err := json.Unmarshal(data, &status); err != nil {
		slog.Warn("malformed queue status payload", "error", err)
		return
	}

	c.mu.Lock()
	c.queueStatus = &status
	c.mu.Unlock()

	c.queueObservers.dispatch(status)

	if total, ok := status.TotalWaiting(); ok && total > c.cfg.QueueAlertThreshold {
		c.notifyQueueVolume(total)
	}
}

// handleSystemMetrics replaces the metrics snapshot and derives the low
// success rate alert. Missing nested fields skip alert derivation.
func (c *Client) handleSystemMetrics(data json.RawMessage) {
	if c.dropEvents() {
		return
	}
	var metrics model.SystemMetrics
	if err := json.Unmarshal(data, &metrics); err != nil {
		slog.Warn("malformed system metrics payload", "error", err)
		return
	}

	c.mu.Lock()
	c.systemMetrics = &metrics
	c.mu.Unlock()

	c.metricsObservers.dispatch(metrics)

	if metrics.Performance != nil && metrics.Performance.SuccessRate < c.cfg.SuccessRateThreshold {
		c.notifySuccessRate(metrics.Performance.SuccessRate)
	}
}

// handleAuthError resolves a mid-session auth rejection. The server-side
// error may race with a fresh local sign-in, so the local auth state decides
// between forcing logout and silently reconnecting.
func (c *Client) handleAuthError(json.RawMessage) {
	slog.Warn("received auth error from server")
	_ = c.transport.Close()

	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if wasConnected {
		c.connObservers.dispatch(false)
	}

	if c.auth != nil && !c.auth.IsAuthenticated() {
		c.auth.HandleAuthExpired()
		return
	}
	c.scheduleReconnect()
}

// handleTransportDown reacts to a transport failure or server-initiated
// close. Explicit disconnects never reach here.
func (c *Client) handleTransportDown(err error) {
	c.mu.Lock()
	if c.manualDisconnect {
		c.mu.Unlock()
		return
	}
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	slog.Warn("realtime session lost", "error", err)

	if wasConnected {
		c.connObservers.dispatch(false)
	}
	c.scheduleReconnect()
}

// scheduleReconnect arms a one-shot reconnect with the last-known token.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.manualDisconnect {
		return
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
	}
	token := c.lastToken
	c.reconnectTimer = time.AfterFunc(c.cfg.ReconnectDelay, func() {
		if err := c.Connect(context.Background(), token); err != nil {
			slog.Warn("automatic reconnect failed", "error", err)
		}
	})
}

// dropEvents reports whether inbound events should be discarded because the
// consumer explicitly disconnected.
func (c *Client) dropEvents() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manualDisconnect
}
