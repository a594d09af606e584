package list_jobs

import (
	"context"

	"github.com/light-bringer/chatsync-service/internal/app/product/contracts"
	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
)

// Request contains filtering parameters for listing sync jobs.
type Request struct {
	Status *string // Filter by status ("pending", "active", "completed", "failed", "stalled")
	Limit  int64   // Max number of jobs to return (default: 50)
}

// Query handles the list jobs query use case.
type Query struct {
	readModel contracts.ReadModel
}

// NewQuery creates a new list jobs query.
func NewQuery(readModel contracts.ReadModel) *Query {
	return &Query{
		readModel: readModel,
	}
}

// Execute retrieves sync jobs, newest first.
func (q *Query) Execute(ctx context.Context, req *Request) ([]*domain.SyncJob, error) {
	filter := &contracts.JobFilter{Limit: clampLimit(req.Limit)}

	if req.Status != nil {
		status, err := domain.ParseJobStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	return q.readModel.ListJobs(ctx, filter)
}

func clampLimit(limit int64) int64 {
	if limit <= 0 {
		return 50 // Default limit
	}
	if limit > 500 {
		return 500 // Max limit
	}
	return limit
}
