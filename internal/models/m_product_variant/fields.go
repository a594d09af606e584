package m_product_variant

// Table name constant. Rows are interleaved in products.
const TableName = "product_variants"

// Field name constants for type-safe database access
const (
	SKU         = "sku"
	Position    = "position"
	PriceLevel  = "price_level"
	Price       = "price"
	MinQuantity = "min_quantity"
	MaxQuantity = "max_quantity"
)
