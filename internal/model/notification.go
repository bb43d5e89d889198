package model

import "time"

// NotificationType distinguishes the kinds of derived notifications.
type NotificationType string

const (
	// NotificationSuccess marks a completed job.
	NotificationSuccess NotificationType = "success"
	// NotificationError marks a failed job.
	NotificationError NotificationType = "error"
	// NotificationPageLimit marks a failure caused by exhausting the page quota.
	NotificationPageLimit NotificationType = "page_limit"
	// NotificationAlert marks a system-level warning (queue volume, success rate).
	NotificationAlert NotificationType = "alert"
)

// Notification is a UI-owned record derived from job and metrics events.
// Only the Read flag is ever mutated after creation.
type Notification struct {
	ID        string
	Type      NotificationType
	Title     string
	Message   string
	Timestamp time.Time
	Read      bool
	JobID     string
}
