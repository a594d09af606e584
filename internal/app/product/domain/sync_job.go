package domain

import "time"

// JobStatus is the lifecycle state of a queued sync job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobActive    JobStatus = "active"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobStalled   JobStatus = "stalled"
)

// JobTypeSyncAll reconciles every unsynced product against every configured shop.
const JobTypeSyncAll = "sync_all_products"

// ParseJobStatus validates a status coming from outside the process.
func ParseJobStatus(s string) (JobStatus, error) {
	switch JobStatus(s) {
	case JobPending, JobActive, JobCompleted, JobFailed, JobStalled:
		return JobStatus(s), nil
	}
	return "", ErrUnknownJobStatus
}

// IsFinished reports whether the job reached a terminal state.
func (s JobStatus) IsFinished() bool {
	return s == JobCompleted || s == JobFailed || s == JobStalled
}

// SyncJob is one entry of the durable reconciliation queue.
type SyncJob struct {
	ID           string
	Type         string
	Payload      string
	Status       JobStatus
	Progress     int64
	Attempts     int64
	MaxAttempts  int64
	ErrorMessage string
	CreatedAt    time.Time
	StartedAt    *time.Time
	HeartbeatAt  *time.Time
	FinishedAt   *time.Time
}

// CanRetry reports whether a failed or stalled job may be put back in the queue.
func (j *SyncJob) CanRetry() bool {
	return j.Attempts < j.MaxAttempts
}
