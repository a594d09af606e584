package m_sync_job

// Field name constants for the sync_jobs table.
const (
	TableName = "sync_jobs"

	// IndexByStatus orders jobs of one status by creation time
	IndexByStatus = "sync_jobs_by_status"

	JobID        = "job_id"
	JobType      = "job_type"
	Payload      = "payload"
	Status       = "status"
	Progress     = "progress"
	Attempts     = "attempts"
	MaxAttempts  = "max_attempts"
	ErrorMessage = "error_message"
	CreatedAt    = "created_at"
	StartedAt    = "started_at"
	HeartbeatAt  = "heartbeat_at"
	FinishedAt   = "finished_at"
)

// Columns lists every column in read order.
var Columns = []string{
	JobID,
	JobType,
	Payload,
	Status,
	Progress,
	Attempts,
	MaxAttempts,
	ErrorMessage,
	CreatedAt,
	StartedAt,
	HeartbeatAt,
	FinishedAt,
}
