package m_chat_watch

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for type-safe operations on the chat_watches table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a mutation for a newly watched chat. The cursor starts empty.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(
		TableName,
		[]string{ChatID, ShopName, ChatName, LastProcessedMessageID, CreatedAt, UpdatedAt},
		[]interface{}{data.ChatID, data.ShopName, data.ChatName, spanner.NullString{}, spanner.CommitTimestamp, spanner.CommitTimestamp},
	)
}

// RenameMut updates the shop and display name of a chat, keeping its cursor.
func (m *Model) RenameMut(chatID, shopName, chatName string) *spanner.Mutation {
	return spanner.Update(
		TableName,
		[]string{ChatID, ShopName, ChatName, UpdatedAt},
		[]interface{}{chatID, shopName, chatName, spanner.CommitTimestamp},
	)
}

// AdvanceCursorMut moves the cursor of a chat to messageID.
func (m *Model) AdvanceCursorMut(chatID, messageID string) *spanner.Mutation {
	return spanner.Update(
		TableName,
		[]string{ChatID, LastProcessedMessageID, UpdatedAt},
		[]interface{}{chatID, messageID, spanner.CommitTimestamp},
	)
}

// DeleteMut stops watching a chat.
func (m *Model) DeleteMut(chatID string) *spanner.Mutation {
	return spanner.Delete(TableName, spanner.Key{chatID})
}
