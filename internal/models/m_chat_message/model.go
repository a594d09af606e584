package m_chat_message

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for type-safe operations on the chat_messages table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// InsertMut stores a first delivery. Seq must be the next arrival number of the chat.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(
		TableName,
		[]string{ChatID, MessageID, SentAt, Seq, MessageType, Body, Sender, MediaMimeType, MediaData, ReceivedAt},
		[]interface{}{
			data.ChatID,
			data.MessageID,
			data.SentAt,
			data.Seq,
			data.MessageType,
			data.Body,
			data.Sender,
			data.MediaMimeType,
			data.MediaData,
			spanner.CommitTimestamp,
		},
	)
}

// RedeliveryMut overwrites the content of a stored message. Seq and
// received_at keep their first-delivery values.
func (m *Model) RedeliveryMut(data *Data) *spanner.Mutation {
	return spanner.Update(
		TableName,
		[]string{ChatID, MessageID, SentAt, MessageType, Body, Sender, MediaMimeType, MediaData},
		[]interface{}{
			data.ChatID,
			data.MessageID,
			data.SentAt,
			data.MessageType,
			data.Body,
			data.Sender,
			data.MediaMimeType,
			data.MediaData,
		},
	)
}

// MaxSeqStatement returns the highest arrival number stored for a chat, or 0.
func MaxSeqStatement(chatID string) spanner.Statement {
	return spanner.Statement{
		SQL:    "SELECT COALESCE(MAX(" + Seq + "), 0) FROM " + TableName + " WHERE " + ChatID + " = @chat_id",
		Params: map[string]interface{}{"chat_id": chatID},
	}
}

// MessageColumns are the columns needed to rebuild a transcript entry.
var MessageColumns = []string{ChatID, MessageID, SentAt, Seq, MessageType, Body, Sender}
