// Package realtime maintains live job-progress, queue, and system-metrics
// state from the conversion backend's event stream.
package realtime

import (
	"context"
	"encoding/json"
)

// Inbound event names emitted by the backend.
const (
	EventJobQueued     = "job-queued"
	EventJobStarted    = "job-started"
	EventJobProgress   = "job-progress"
	EventJobCompleted  = "job-completed"
	EventJobFailed     = "job-failed"
	EventQueueStatus   = "queue-status"
	EventSystemMetrics = "system-metrics"
	EventAuthenticated = "authenticated"
	EventAuthError     = "auth-error"
)

// Outbound control event names.
const (
	EventAuthenticate         = "authenticate"
	EventSubscribeAdmin       = "subscribe-admin"
	EventUnsubscribeAdmin     = "unsubscribe-admin"
	EventRequestSystemMetrics = "request-system-metrics"
)

// EventHandler receives the raw payload of one inbound event.
type EventHandler func(data json.RawMessage)

// Transport is the bidirectional named-event connection to the backend. A
// transport may be reconnected after a close or failure by calling Connect
// again. Handler registration survives reconnects.
type Transport interface {
	// Connect establishes the session, returning once the transport is
	// connected or the attempt failed.
	Connect(ctx context.Context) error
	// Close tears the session down. Safe to call when not connected.
	Close() error
	// On registers a handler for a named inbound event. Handlers for the
	// same event are invoked in registration order.
	On(event string, handler EventHandler)
	// OnDisconnect registers the callback invoked when the session ends for
	// any reason other than a local Close.
	OnDisconnect(handler func(err error))
	// Emit sends a named outbound event with a JSON-marshaled payload.
	Emit(event string, payload any) error
}

type authPayload struct {
	Token string `json:"token"`
}
