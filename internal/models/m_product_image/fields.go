package m_product_image

// Table name constant. Rows are interleaved in products.
const TableName = "product_images"

// Field name constants for type-safe database access
const (
	SKU      = "sku"
	Position = "position"
	MimeType = "mime_type"
	Data     = "data"
)
