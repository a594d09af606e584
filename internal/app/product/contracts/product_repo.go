package contracts

import (
	"context"
	"time"

	"cloud.google.com/go/spanner"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
)

// RowReader is the read surface shared by Spanner transactions.
// Both *spanner.ReadWriteTransaction and *spanner.ReadOnlyTransaction satisfy it.
type RowReader interface {
	Read(ctx context.Context, table string, keys spanner.KeySet, columns []string) *spanner.RowIterator
	ReadRow(ctx context.Context, table string, key spanner.Key, columns []string) (*spanner.Row, error)
	Query(ctx context.Context, statement spanner.Statement) *spanner.RowIterator
}

// ProductRepository defines the interface for product persistence.
// Repositories return mutations, they don't apply them (Golden Mutation Pattern).
type ProductRepository interface {
	// UpdatedAtBySKU returns the updated_at of each of skus that is already
	// stored, reading through rd so the answer is consistent with the
	// surrounding transaction. Absent skus have no entry.
	UpdatedAtBySKU(ctx context.Context, rd RowReader, skus []string) (map[string]time.Time, error)

	// UpsertMuts creates the mutations that replace the stored record for p:
	// the product row, then delete-all and re-insert of images and variants
	UpsertMuts(p *domain.ProductRecord, exists bool) ([]*spanner.Mutation, error)

	// MarkSyncedMut stamps a product as reconciled
	MarkSyncedMut(sku string, at time.Time) *spanner.Mutation

	// GetBySKU retrieves a product with its images and variants
	GetBySKU(ctx context.Context, sku string) (*domain.ProductRecord, error)

	// ListUnsynced retrieves every product with no synced timestamp, oldest first
	ListUnsynced(ctx context.Context) ([]*domain.ProductRecord, error)
}
