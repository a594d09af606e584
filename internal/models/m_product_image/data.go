package m_product_image

import (
	"cloud.google.com/go/spanner"
)

// Row represents an image row in the database. Position 0 is the image
// closest to the announcement.
type Row struct {
	SKU      string `spanner:"sku"`
	Position int64  `spanner:"position"`
	MimeType string `spanner:"mime_type"`
	Data     string `spanner:"data"`
}

// Model provides type-safe database operations for product images.
type Model struct{}

// NewModel creates a new product image model.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a mutation for inserting an image.
func (m *Model) InsertMut(row *Row) (*spanner.Mutation, error) {
	return spanner.InsertStruct(TableName, row)
}

// DeleteAllMut removes every image of a product.
func (m *Model) DeleteAllMut(sku string) *spanner.Mutation {
	return spanner.Delete(TableName, spanner.Key{sku}.AsPrefix())
}

// ReadColumns returns the column names for reading images.
func (m *Model) ReadColumns() []string {
	return []string{SKU, Position, MimeType, Data}
}
