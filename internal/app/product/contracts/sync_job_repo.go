package contracts

import (
	"context"
	"time"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
)

// SyncJobRepository is the durable queue behind the sync scheduler.
// Every method runs its own transaction; queue transitions are not combined
// with other writes.
type SyncJobRepository interface {
	// Enqueue adds a pending job unless one of the same type is already pending.
	// It returns the pending job and whether it was newly created.
	Enqueue(ctx context.Context, job *domain.SyncJob) (*domain.SyncJob, bool, error)

	// ClaimNext moves the oldest pending job to active and returns it, or nil
	// when the queue is empty or another job is still active
	ClaimNext(ctx context.Context, now time.Time) (*domain.SyncJob, error)

	// Heartbeat records liveness and progress of an active job
	Heartbeat(ctx context.Context, jobID string, progress int64, now time.Time) error

	// Finish moves an active job to a terminal status
	Finish(ctx context.Context, jobID string, status domain.JobStatus, errMsg string, now time.Time) error

	// Requeue puts a failed or stalled job back to pending
	Requeue(ctx context.Context, jobID string) error

	// ListStale retrieves active jobs whose heartbeat is older than before
	ListStale(ctx context.Context, before time.Time) ([]*domain.SyncJob, error)

	// Get retrieves a job, or domain.ErrJobNotFound
	Get(ctx context.Context, jobID string) (*domain.SyncJob, error)
}
