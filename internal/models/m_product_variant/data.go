package m_product_variant

import (
	"math/big"

	"cloud.google.com/go/spanner"
)

// Data represents a price tier row in the database.
type Data struct {
	SKU         string  `spanner:"sku"`
	Position    int64   `spanner:"position"`
	PriceLevel  string  `spanner:"price_level"`
	Price       big.Rat `spanner:"price"`
	MinQuantity int64   `spanner:"min_quantity"`
	MaxQuantity int64   `spanner:"max_quantity"`
}

// Model provides type-safe database operations for price tiers.
type Model struct{}

// NewModel creates a new price tier model.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a mutation for inserting a price tier.
func (m *Model) InsertMut(data *Data) (*spanner.Mutation, error) {
	return spanner.InsertStruct(TableName, data)
}

// DeleteAllMut removes every tier of a product.
func (m *Model) DeleteAllMut(sku string) *spanner.Mutation {
	return spanner.Delete(TableName, spanner.Key{sku}.AsPrefix())
}

// ReadColumns returns the column names for reading price tiers.
func (m *Model) ReadColumns() []string {
	return []string{
		SKU,
		Position,
		PriceLevel,
		Price,
		MinQuantity,
		MaxQuantity,
	}
}
