package model

import "encoding/json"

// JobStatus is the lifecycle state of a processing job.
type JobStatus string

const (
	// JobStatusQueued means the job is waiting in a queue lane.
	JobStatusQueued JobStatus = "queued"
	// JobStatusStarted means a worker has picked the job up.
	JobStatusStarted JobStatus = "started"
	// JobStatusProgress means the job is reporting incremental progress.
	JobStatusProgress JobStatus = "progress"
	// JobStatusCompleted is a terminal state with a result payload.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed is a terminal state with an error message.
	JobStatusFailed JobStatus = "failed"
)

// IsTerminal reports whether no further transitions follow this status.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobProgress is the transient state of one asynchronous processing job.
// Each inbound event replaces the stored value wholesale; fields absent from
// an event are dropped, not carried over from the previous state.
type JobProgress struct {
	JobID         string          `json:"jobId"`
	Status        JobStatus       `json:"status"`
	Progress      *int            `json:"progress,omitempty"` // 0-100
	Step          string          `json:"step,omitempty"`
	EstimatedTime *int            `json:"estimatedTime,omitempty"` // seconds
	QueuePosition *int            `json:"queuePosition,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
	Error         string          `json:"error,omitempty"`
}
