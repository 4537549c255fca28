package ipc

import (
	"time"

	"shothook/internal/eventhub"
	"shothook/internal/jobs"
	"shothook/internal/logging"
)

// StopRequest asks the daemon process to shut down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon, hub and job status information.
type StatusResponse struct {
	Running       bool                        `json:"running"`
	PID           int                         `json:"pid"`
	StartedAt     time.Time                   `json:"started_at"`
	LockPath      string                      `json:"lock_path"`
	LedgerTarget  string                      `json:"ledger_target"`
	Jobs          []jobs.Info                 `json:"jobs"`
	JobTotals     map[string]int              `json:"job_totals"`
	Subscriptions []eventhub.SubscriptionInfo `json:"subscriptions"`
	Hub           eventhub.Stats              `json:"hub"`
	Viewers       int                         `json:"viewers"`
	LastError     string                      `json:"last_error"`
}

// JobListRequest filters the job ledger.
type JobListRequest struct {
	Limit  int    `json:"limit"`
	Status string `json:"status"`
	Kind   string `json:"kind"`
}

// JobRecord is the wire form of a ledger record.
type JobRecord struct {
	ID            string     `json:"id"`
	Kind          string     `json:"kind"`
	Key           string     `json:"key"`
	CorrelationID string     `json:"correlation_id"`
	Action        string     `json:"action"`
	User          string     `json:"user"`
	Status        string     `json:"status"`
	Detail        string     `json:"detail"`
	ErrorMessage  string     `json:"error_message"`
	ErrorKind     string     `json:"error_kind"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// JobListResponse contains ledger entries, newest first.
type JobListResponse struct {
	Jobs []JobRecord `json:"jobs"`
}

// StatusesRequest fetches the resolved status catalog.
type StatusesRequest struct{}

// StatusEntry is one resolved status name.
type StatusEntry struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	HostName string `json:"host_name"`
	Source   string `json:"source"`
}

// StatusesResponse lists the resolved status catalog.
type StatusesResponse struct {
	Entries []StatusEntry `json:"entries"`
}

// ViewersRequest fetches the discovered viewer installations.
type ViewersRequest struct{}

// ViewerEntry is one discovered viewer.
type ViewerEntry struct {
	Identifier string `json:"identifier"`
	Label      string `json:"label"`
	Variant    string `json:"variant"`
	Path       string `json:"path"`
}

// ViewersResponse lists discovered viewers.
type ViewersResponse struct {
	Viewers []ViewerEntry `json:"viewers"`
}

// EmitRequest publishes an event through the daemon's hub.
type EmitRequest struct {
	Topic    string         `json:"topic"`
	Data     map[string]any `json:"data"`
	Username string         `json:"username"`
}

// EmitResponse reports the published event id.
type EmitResponse struct {
	EventID string `json:"event_id"`
}

// LogTailRequest fetches log events based on offset and follow semantics.
type LogTailRequest struct {
	Offset     uint64 `json:"offset"`
	Limit      int    `json:"limit"`
	Follow     bool   `json:"follow"`
	WaitMillis int    `json:"wait_millis"`
}

// LogTailResponse returns log events and the next offset.
type LogTailResponse struct {
	Events []logging.LogEvent `json:"events"`
	Offset uint64             `json:"offset"`
}

// TestNotificationRequest triggers a mail test.
type TestNotificationRequest struct {
	To string `json:"to"`
}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
