package m_chat_watch

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents the database model for the chat_watches table.
type Data struct {
	ChatID                 string             `spanner:"chat_id"`
	ShopName               string             `spanner:"shop_name"`
	ChatName               string             `spanner:"chat_name"`
	LastProcessedMessageID spanner.NullString `spanner:"last_processed_message_id"`
	CreatedAt              time.Time          `spanner:"created_at"`
	UpdatedAt              time.Time          `spanner:"updated_at"`
}
