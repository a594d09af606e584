package m_product

// Field name constants for the products table.
// These provide type-safe field references and prevent typos.
const (
	TableName = "products"

	SKU             = "sku"
	Name            = "name"
	Description     = "description"
	Price           = "price"
	Categories      = "categories"
	Sizes           = "sizes"
	SourceChatID    = "source_chat_id"
	SourceMessageID = "source_message_id"
	CreatedAt       = "created_at"
	UpdatedAt       = "updated_at"
	SyncedAt        = "synced_at"
)

// Columns lists every column in read order.
var Columns = []string{
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
}
