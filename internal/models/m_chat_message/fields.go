package m_chat_message

// Field name constants for the chat_messages table.
const (
	TableName = "chat_messages"

	// IndexByTime orders a chat's messages by timestamp, then arrival.
	IndexByTime = "chat_messages_by_time"

	ChatID        = "chat_id"
	MessageID     = "message_id"
	SentAt        = "sent_at"
	Seq           = "seq"
	MessageType   = "message_type"
	Body          = "body"
	Sender        = "sender"
	MediaMimeType = "media_mime_type"
	MediaData     = "media_data"
	ReceivedAt    = "received_at"
)
