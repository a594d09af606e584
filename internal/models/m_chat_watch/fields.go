package m_chat_watch

// Field name constants for the chat_watches table.
const (
	TableName = "chat_watches"

	// IndexByShop lists the chats of one shop
	IndexByShop = "chat_watches_by_shop"

	ChatID                 = "chat_id"
	ShopName               = "shop_name"
	ChatName               = "chat_name"
	LastProcessedMessageID = "last_processed_message_id"
	CreatedAt              = "created_at"
	UpdatedAt              = "updated_at"
)

// Columns lists every column in read order.
var Columns = []string{
	ChatID,
	ShopName,
	ChatName,
	LastProcessedMessageID,
	CreatedAt,
	UpdatedAt,
}
