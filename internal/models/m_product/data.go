package m_product

import (
	"math/big"
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents the database model for the products table.
type Data struct {
	SKU             string           `spanner:"sku"`
	Name            string           `spanner:"name"`
	Description     string           `spanner:"description"`
	Price           big.Rat          `spanner:"price"`
	Categories      []string         `spanner:"categories"`
	Sizes           []string         `spanner:"sizes"`
	SourceChatID    string           `spanner:"source_chat_id"`
	SourceMessageID string           `spanner:"source_message_id"`
	CreatedAt       time.Time        `spanner:"created_at"`
	UpdatedAt       time.Time        `spanner:"updated_at"`
	SyncedAt        spanner.NullTime `spanner:"synced_at"`
}
