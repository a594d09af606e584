package m_sync_job

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents the database model for the sync_jobs table.
type Data struct {
	JobID        string             `spanner:"job_id"`
	JobType      string             `spanner:"job_type"`
	Payload      spanner.NullJSON   `spanner:"payload"`
	Status       string             `spanner:"status"`
	Progress     int64              `spanner:"progress"`
	Attempts     int64              `spanner:"attempts"`
	MaxAttempts  int64              `spanner:"max_attempts"`
	ErrorMessage spanner.NullString `spanner:"error_message"`
	CreatedAt    time.Time          `spanner:"created_at"`
	StartedAt    spanner.NullTime   `spanner:"started_at"`
	HeartbeatAt  spanner.NullTime   `spanner:"heartbeat_at"`
	FinishedAt   spanner.NullTime   `spanner:"finished_at"`
}
