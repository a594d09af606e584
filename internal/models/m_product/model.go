package m_product

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Model provides a facade for type-safe operations on the products table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a Spanner mutation for inserting a product.
// created_at and updated_at are set to the commit timestamp.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(
		TableName,
		[]string{
			SKU,
			Name,
			Description,
			Price,
			Categories,
			Sizes,
			SourceChatID,
			SourceMessageID,
			CreatedAt,
			UpdatedAt,
			SyncedAt,
		},
		[]interface{}{
			data.SKU,
			data.Name,
			data.Description,
			data.Price,
			data.Categories,
			data.Sizes,
			data.SourceChatID,
			data.SourceMessageID,
			spanner.CommitTimestamp,
			spanner.CommitTimestamp,
			spanner.NullTime{},
		},
	)
}

// ReplaceMut overwrites every field of an existing product except created_at
// and clears synced_at so the product is reconciled again.
func (m *Model) ReplaceMut(data *Data) *spanner.Mutation {
	return spanner.Update(
		TableName,
		[]string{
			SKU,
			Name,
			Description,
			Price,
			Categories,
			Sizes,
			SourceChatID,
			SourceMessageID,
			UpdatedAt,
			SyncedAt,
		},
		[]interface{}{
			data.SKU,
			data.Name,
			data.Description,
			data.Price,
			data.Categories,
			data.Sizes,
			data.SourceChatID,
			data.SourceMessageID,
			spanner.CommitTimestamp,
			spanner.NullTime{},
		},
	)
}

// MarkSyncedMut stamps the product as reconciled at syncedAt.
func (m *Model) MarkSyncedMut(sku string, syncedAt time.Time) *spanner.Mutation {
	return spanner.Update(TableName, []string{SKU, SyncedAt}, []interface{}{sku, syncedAt})
}
