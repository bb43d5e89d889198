package model

// LaneStats describes one priority lane of the processing queue.
type LaneStats struct {
	Waiting     int     `json:"waiting"`
	Active      int     `json:"active"`
	AvgWaitTime float64 `json:"avgWaitTime"` // seconds
}

// QueueStatus is an aggregate snapshot across the three priority lanes.
// It is replaced wholesale on each inbound snapshot event.
type QueueStatus struct {
	Premium       *LaneStats `json:"premium"`
	Normal        *LaneStats `json:"normal"`
	Large         *LaneStats `json:"large"`
	TotalWorkers  int        `json:"totalWorkers"`
	ActiveWorkers int        `json:"activeWorkers"`
}

// TotalWaiting sums waiting jobs across all lanes. The boolean is false when
// any lane is structurally missing from the snapshot, in which case the sum
// must not be used for alert derivation.
func (q *QueueStatus) TotalWaiting() (int, bool) {
	if q == nil || q.Premium == nil || q.Normal == nil || q.Large == nil {
		return 0, false
	}
	return q.Premium.Waiting + q.Normal.Waiting + q.Large.Waiting, true
}

// WorkerMetrics describes a single backend worker.
type WorkerMetrics struct {
	ID        string  `json:"id"`
	Queue     string  `json:"queue"`
	Status    string  `json:"status"`
	JobsDone  int     `json:"jobsDone"`
	AvgJobMs  float64 `json:"avgJobMs"`
	LastSeen  int64   `json:"lastSeen"`
	HostName  string  `json:"hostName,omitempty"`
	QueueSize int     `json:"queueSize,omitempty"`
}

// PerformanceMetrics aggregates backend throughput and reliability numbers.
type PerformanceMetrics struct {
	Throughput     float64 `json:"throughput"` // jobs per minute
	SuccessRate    float64 `json:"successRate"` // percentage, 0-100
	AvgProcessMs   float64 `json:"avgProcessMs"`
	AvgQueueWaitMs float64 `json:"avgQueueWaitMs"`
}

// SystemInfo carries connection-level counters for the admin dashboard.
type SystemInfo struct {
	ConnectedUsers  int   `json:"connectedUsers"`
	ConnectedAdmins int   `json:"connectedAdmins"`
	ActiveWorkers   int   `json:"activeWorkers"`
	UptimeSeconds   int64 `json:"uptimeSeconds"`
}

// SystemMetrics is the admin-only aggregate snapshot, replaced wholesale on
// each inbound event.
type SystemMetrics struct {
	Workers     []WorkerMetrics     `json:"workers"`
	Queues      map[string]int      `json:"queues"`
	Performance *PerformanceMetrics `json:"performance"`
	System      *SystemInfo         `json:"system"`
}
