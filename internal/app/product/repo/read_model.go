package repo

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"

	"github.com/light-bringer/chatsync-service/internal/app/product/contracts"
	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/models/m_product"
	"github.com/light-bringer/chatsync-service/internal/models/m_product_image"
	"github.com/light-bringer/chatsync-service/internal/models/m_product_variant"
	"github.com/light-bringer/chatsync-service/internal/models/m_sync_job"
	"github.com/light-bringer/chatsync-service/internal/pkg/query"
)

// ReadModelImpl implements ReadModel for Spanner.
type ReadModelImpl struct {
	client *spanner.Client
}

// NewReadModel creates a new ReadModel implementation.
func NewReadModel(client *spanner.Client) contracts.ReadModel {
	return &ReadModelImpl{
		client: client,
	}
}

// productSummary is a product row plus the size of its child tables.
type productSummary struct {
	m_product.Data
	VariantCount int64 `spanner:"variant_count"`
	ImageCount   int64 `spanner:"image_count"`
}

// ListProducts retrieves product summaries without loading image data.
func (rm *ReadModelImpl) ListProducts(ctx context.Context, filter *contracts.ProductFilter) ([]*contracts.ProductDTO, error) {
	columns := append([]string{}, m_product.Columns...)
	columns = append(columns,
		childCountExpr(m_product_variant.TableName, "variant_count"),
		childCountExpr(m_product_image.TableName, "image_count"),
	)

	b := query.From(m_product.TableName).Select(columns...)
	if filter.UnsyncedOnly {
		b = b.Where(query.IsNull(m_product.SyncedAt))
	}
	if filter.SourceChatID != "" {
		b = b.Where(query.Eq(m_product.SourceChatID, filter.SourceChatID))
	}
	b = b.OrderBy(m_product.UpdatedAt, query.Desc)
	if filter.Limit > 0 {
		b = b.Limit(filter.Limit)
	}

	iter := rm.client.Single().Query(ctx, b.Build())
	defer iter.Stop()

	var products []*contracts.ProductDTO
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate products: %w", err)
		}

		var summary productSummary
		if err := row.ToStruct(&summary); err != nil {
			return nil, fmt.Errorf("failed to parse product: %w", err)
		}
		products = append(products, summaryToDTO(&summary))
	}
	return products, nil
}

// ListJobs retrieves sync jobs, newest first.
func (rm *ReadModelImpl) ListJobs(ctx context.Context, filter *contracts.JobFilter) ([]*domain.SyncJob, error) {
	b := query.From(m_sync_job.TableName).Select(m_sync_job.Columns...)
	if filter.Status != nil {
		b = b.UseIndex(m_sync_job.IndexByStatus).
			Where(query.Eq(m_sync_job.Status, string(*filter.Status)))
	}
	b = b.OrderBy(m_sync_job.CreatedAt, query.Desc)
	if filter.Limit > 0 {
		b = b.Limit(filter.Limit)
	}

	iter := rm.client.Single().Query(ctx, b.Build())
	defer iter.Stop()

	var jobs []*domain.SyncJob
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate jobs: %w", err)
		}

		var data m_sync_job.Data
		if err := row.ToStruct(&data); err != nil {
			return nil, fmt.Errorf("failed to parse job: %w", err)
		}
		jobs = append(jobs, dataToJob(&data))
	}
	return jobs, nil
}

func childCountExpr(table, alias string) string {
	return fmt.Sprintf("(SELECT COUNT(*) FROM %s c WHERE c.%s = %s.%s) AS %s",
		table, m_product.SKU, m_product.TableName, m_product.SKU, alias)
}

func summaryToDTO(s *productSummary) *contracts.ProductDTO {
	dto := &contracts.ProductDTO{
		SKU:             s.SKU,
		Name:            s.Name,
		Price:           domain.FormatAmount(domain.AmountFromNumeric(s.Price)),
		Categories:      s.Categories,
		Sizes:           s.Sizes,
		VariantCount:    s.VariantCount,
		ImageCount:      s.ImageCount,
		SourceChatID:    s.SourceChatID,
		SourceMessageID: s.SourceMessageID,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.SyncedAt.Valid {
		syncedAt := s.SyncedAt.Time
		dto.SyncedAt = &syncedAt
	}
	return dto
}
