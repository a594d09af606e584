package contracts

import (
	"context"
	"time"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
)

// ProductDTO is a data transfer object for product queries.
type ProductDTO struct {
	SKU             string
	Name            string
	Price           string
	Categories      []string
	Sizes           []string
	VariantCount    int64
	ImageCount      int64
	SourceChatID    string
	SourceMessageID string
	UpdatedAt       time.Time
	SyncedAt        *time.Time
}

// ProductFilter defines filtering options for listing products.
type ProductFilter struct {
	UnsyncedOnly bool
	SourceChatID string
	Limit        int64
}

// JobFilter defines filtering options for listing sync jobs.
type JobFilter struct {
	Status *domain.JobStatus
	Limit  int64
}

// ReadModel defines the interface for queries.
// Read models can bypass the domain layer for performance.
type ReadModel interface {
	// ListProducts retrieves product summaries, most recently updated first
	ListProducts(ctx context.Context, filter *ProductFilter) ([]*ProductDTO, error)

	// ListJobs retrieves sync jobs, newest first
	ListJobs(ctx context.Context, filter *JobFilter) ([]*domain.SyncJob, error)
}
