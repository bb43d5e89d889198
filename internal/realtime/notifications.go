package realtime

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/statement2sheet/s2s/internal/model"
)

// pageLimitMarkers are the substrings, in both statement languages, that
// identify a job failure caused by an exhausted page quota.
var pageLimitMarkers = []string{
	"page limit",
	"pages remaining",
	"insufficient pages",
	"límite de páginas",
	"páginas restantes",
	"sin páginas",
}

func isPageLimitError(message string) bool {
	lower := strings.ToLower(message)
	for _, marker := range pageLimitMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// notifyJobTerminal derives the notification for a completed or failed job.
// Repeated terminal events for the same job intentionally produce
// independent notifications; the feed does not deduplicate.
func (c *Client) notifyJobTerminal(progress model.JobProgress) {
	switch {
	case progress.Status == model.JobStatusCompleted:
		c.pushNotification(model.Notification{
			Type:    model.NotificationSuccess,
			Title:   "Conversion complete",
			Message: fmt.Sprintf("Statement %s is ready to download.", progress.JobID),
			JobID:   progress.JobID,
		}, false)
	case isPageLimitError(progress.Error):
		title := "Page limit reached"
		message := "Your plan has no statement pages remaining. Upgrade to keep converting."
		c.pushNotification(model.Notification{
			Type:    model.NotificationPageLimit,
			Title:   title,
			Message: message,
			JobID:   progress.JobID,
		}, false)
		if c.alerts != nil {
			c.alerts.Error(title, message)
		}
	default:
		c.pushNotification(model.Notification{
			Type:    model.NotificationError,
			Title:   "Conversion failed",
			Message: failureMessage(progress.Error),
			JobID:   progress.JobID,
		}, false)
	}
}

// notifyQueueVolume raises the capped high-queue-volume alert.
func (c *Client) notifyQueueVolume(totalWaiting int) {
	c.pushNotification(model.Notification{
		Type:    model.NotificationAlert,
		Title:   "High queue volume",
		Message: fmt.Sprintf("%d conversions are waiting; processing may be slower than usual.", totalWaiting),
	}, true)
}

// notifySuccessRate raises the capped low-success-rate alert.
func (c *Client) notifySuccessRate(rate float64) {
	c.pushNotification(model.Notification{
		Type:    model.NotificationAlert,
		Title:   "Low success rate",
		Message: fmt.Sprintf("Conversion success rate dropped to %.1f%%.", rate),
	}, true)
}

// pushNotification front-inserts a notification. When capped, the list is
// trimmed to AlertCap entries by dropping the oldest.
func (c *Client) pushNotification(n model.Notification, capped bool) {
	n.ID = uuid.NewString()
	n.Timestamp = time.Now()

	c.mu.Lock()
	c.notifications = append([]model.Notification{n}, c.notifications...)
	if capped && len(c.notifications) > c.cfg.AlertCap {
		c.notifications = c.notifications[:c.cfg.AlertCap]
	}
	c.mu.Unlock()
}

func failureMessage(errText string) string {
	if errText == "" {
		return "The conversion could not be completed."
	}
	return errText
}
