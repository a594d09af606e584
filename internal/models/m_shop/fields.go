package m_shop

// Field name constants for the shops table.
const (
	TableName = "shops"

	ShopName    = "shop_name"
	APIKey      = "api_key"
	AccessToken = "access_token"
	CreatedAt   = "created_at"
	UpdatedAt   = "updated_at"
)

// Columns lists every column in read order.
var Columns = []string{ShopName, APIKey, AccessToken, CreatedAt, UpdatedAt}
