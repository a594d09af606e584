package get_job

import (
	"context"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
)

// Request contains the job ID to retrieve.
type Request struct {
	JobID string
}

// JobReader loads one job.
type JobReader interface {
	Get(ctx context.Context, jobID string) (*domain.SyncJob, error)
}

// Query handles the get job query use case.
type Query struct {
	jobs JobReader
}

// NewQuery creates a new get job query.
func NewQuery(jobs JobReader) *Query {
	return &Query{
		jobs: jobs,
	}
}

// Execute retrieves a job by ID.
func (q *Query) Execute(ctx context.Context, req *Request) (*domain.SyncJob, error) {
	if req.JobID == "" {
		return nil, domain.ErrJobNotFound
	}
	return q.jobs.Get(ctx, req.JobID)
}
