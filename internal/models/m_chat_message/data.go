package m_chat_message

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents one stored transcript message.
type Data struct {
	ChatID        string             `spanner:"chat_id"`
	MessageID     string             `spanner:"message_id"`
	SentAt        time.Time          `spanner:"sent_at"`
	Seq           int64              `spanner:"seq"`
	MessageType   string             `spanner:"message_type"`
	Body          string             `spanner:"body"`
	Sender        string             `spanner:"sender"`
	MediaMimeType spanner.NullString `spanner:"media_mime_type"`
	MediaData     spanner.NullString `spanner:"media_data"`
}
