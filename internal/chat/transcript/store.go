// Package transcript stores inbound chat messages in Spanner and serves them
// back through chat.Platform, so scans read the same history the live
// consumer recorded.
package transcript

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/chatsync-service/internal/chat"
	"github.com/light-bringer/chatsync-service/internal/models/m_chat_message"
	"github.com/light-bringer/chatsync-service/internal/pkg/query"
)

const hasMediaExpr = m_chat_message.MediaMimeType + " IS NOT NULL AS has_media"

// Store is a Spanner-backed transcript.
type Store struct {
	client *spanner.Client
	model  *m_chat_message.Model
}

// NewStore creates a new Store.
func NewStore(client *spanner.Client) *Store {
	return &Store{
		client: client,
		model:  m_chat_message.NewModel(),
	}
}

var _ chat.Platform = (*Store)(nil)

// Append records an inbound message and gives it the next arrival number of
// its chat. Redelivery of the same message id overwrites the content but keeps
// the original arrival number.
func (s *Store) Append(ctx context.Context, msg chat.InboundMessage) error {
	data := &m_chat_message.Data{
		ChatID:      msg.ChatID,
		MessageID:   msg.MessageID,
		SentAt:      msg.Timestamp,
		MessageType: string(msg.Type),
		Body:        msg.Body,
		Sender:      msg.Sender,
	}
	if msg.Media != nil {
		data.MediaMimeType = spanner.NullString{StringVal: msg.Media.MimeType, Valid: true}
		data.MediaData = spanner.NullString{StringVal: msg.Media.Data, Valid: true}
	}

	_, err := s.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		_, err := txn.ReadRow(ctx, m_chat_message.TableName, spanner.Key{msg.ChatID, msg.MessageID}, []string{m_chat_message.Seq})
		if err == nil {
			return txn.BufferWrite([]*spanner.Mutation{s.model.RedeliveryMut(data)})
		}
		if spanner.ErrCode(err) != codes.NotFound {
			return err
		}

		seq, err := s.maxSeq(ctx, txn, msg.ChatID)
		if err != nil {
			return err
		}
		data.Seq = seq + 1
		return txn.BufferWrite([]*spanner.Mutation{s.model.InsertMut(data)})
	})
	if err != nil {
		return fmt.Errorf("failed to append message %s: %w", msg.MessageID, err)
	}
	return nil
}

func (s *Store) maxSeq(ctx context.Context, txn *spanner.ReadWriteTransaction, chatID string) (int64, error) {
	iter := txn.Query(ctx, m_chat_message.MaxSeqStatement(chatID))
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		return 0, fmt.Errorf("failed to read arrival order of chat %s: %w", chatID, err)
	}
	var seq int64
	if err := row.Column(0, &seq); err != nil {
		return 0, fmt.Errorf("failed to parse arrival order of chat %s: %w", chatID, err)
	}
	return seq, nil
}

// GetChat reports a chat as known once at least one of its messages is stored.
// The transcript has no display names, so the id doubles as the name.
func (s *Store) GetChat(ctx context.Context, chatID string) (*chat.Chat, error) {
	stmt := query.From(m_chat_message.TableName).
		Select(m_chat_message.ChatID).
		Where(query.Eq(m_chat_message.ChatID, chatID)).
		Limit(1).
		Build()

	iter := s.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil {
		if err == iterator.Done {
			return nil, chat.ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to look up chat %s: %w", chatID, err)
	}
	return &chat.Chat{ID: chatID, Name: chatID, IsGroup: true}, nil
}

// FetchMessages returns the most recent limit messages of a chat, newest first.
// Messages sharing a timestamp come back latest arrival first.
func (s *Store) FetchMessages(ctx context.Context, chatID string, limit int) ([]chat.Message, error) {
	columns := append([]string{}, m_chat_message.MessageColumns...)
	columns = append(columns, hasMediaExpr)

	b := query.From(m_chat_message.TableName).
		UseIndex(m_chat_message.IndexByTime).
		Select(columns...).
		Where(query.Eq(m_chat_message.ChatID, chatID)).
		OrderBy(m_chat_message.SentAt, query.Desc).
		OrderBy(m_chat_message.Seq, query.Desc)
	if limit > 0 {
		b = b.Limit(int64(limit))
	}

	iter := s.client.Single().Query(ctx, b.Build())
	defer iter.Stop()

	var messages []chat.Message
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate messages of chat %s: %w", chatID, err)
		}

		var (
			data     m_chat_message.Data
			hasMedia bool
		)
		if err := row.Columns(&data.ChatID, &data.MessageID, &data.SentAt, &data.Seq, &data.MessageType, &data.Body, &data.Sender, &hasMedia); err != nil {
			return nil, fmt.Errorf("failed to parse message: %w", err)
		}

		messages = append(messages, chat.Message{
			ID:        data.MessageID,
			ChatID:    data.ChatID,
			Timestamp: data.SentAt,
			Seq:       data.Seq,
			Type:      chat.MessageType(data.MessageType),
			Body:      data.Body,
			Sender:    data.Sender,
			HasMedia:  hasMedia,
		})
	}
	return messages, nil
}

// DownloadMedia returns the stored attachment of msg, or nil when the event
// carried none.
func (s *Store) DownloadMedia(ctx context.Context, msg chat.Message) (*chat.Media, error) {
	row, err := s.client.Single().ReadRow(ctx, m_chat_message.TableName,
		spanner.Key{msg.ChatID, msg.ID},
		[]string{m_chat_message.MediaMimeType, m_chat_message.MediaData})
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, chat.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to read media of %s: %w", msg.ID, err)
	}

	var mimeType, data spanner.NullString
	if err := row.Columns(&mimeType, &data); err != nil {
		return nil, fmt.Errorf("failed to parse media of %s: %w", msg.ID, err)
	}
	if !data.Valid || data.StringVal == "" {
		return nil, nil
	}
	return &chat.Media{MimeType: mimeType.StringVal, Data: data.StringVal}, nil
}
