package ledger

import "time"

// Status represents the lifecycle state of a background job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
	// StatusAbandoned marks jobs that were running when the daemon exited.
	StatusAbandoned Status = "abandoned"
)

// Record is one background job.
type Record struct {
	ID            string
	Kind          string
	Key           string
	CorrelationID string
	Action        string
	User          string
	Status        Status
	Detail        string
	ErrorMessage  string
	ErrorKind     string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// Duration returns how long the job ran, or has been running.
func (r Record) Duration() time.Duration {
	if r.FinishedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// IsTerminal reports whether the job has finished.
func (r Record) IsTerminal() bool {
	return r.Status != StatusRunning
}

// ListOptions filters List.
type ListOptions struct {
	Limit  int
	Status Status
	Kind   string
}
