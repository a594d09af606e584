package m_shop

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for type-safe operations on the shops table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a mutation for a new shop credential.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(
		TableName,
		[]string{ShopName, APIKey, AccessToken, CreatedAt, UpdatedAt},
		[]interface{}{data.ShopName, data.APIKey, data.AccessToken, spanner.CommitTimestamp, spanner.CommitTimestamp},
	)
}

// UpdateCredentialsMut replaces the keys of an existing shop.
func (m *Model) UpdateCredentialsMut(data *Data) *spanner.Mutation {
	return spanner.Update(
		TableName,
		[]string{ShopName, APIKey, AccessToken, UpdatedAt},
		[]interface{}{data.ShopName, data.APIKey, data.AccessToken, spanner.CommitTimestamp},
	)
}
