package repo

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/chatsync-service/internal/app/product/contracts"
	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/models/m_chat_watch"
	"github.com/light-bringer/chatsync-service/internal/pkg/query"
)

// ChatWatchRepo implements ChatWatchRepository for Spanner.
type ChatWatchRepo struct {
	client *spanner.Client
	model  *m_chat_watch.Model
}

// NewChatWatchRepo creates a new ChatWatchRepo.
func NewChatWatchRepo(client *spanner.Client) contracts.ChatWatchRepository {
	return &ChatWatchRepo{
		client: client,
		model:  m_chat_watch.NewModel(),
	}
}

// Get retrieves a watched chat.
func (r *ChatWatchRepo) Get(ctx context.Context, chatID string) (*domain.ChatWatch, error) {
	row, err := r.client.Single().ReadRow(ctx, m_chat_watch.TableName, spanner.Key{chatID}, m_chat_watch.Columns)
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrChatNotWatched
		}
		return nil, fmt.Errorf("failed to read chat watch: %w", err)
	}

	var data m_chat_watch.Data
	if err := row.ToStruct(&data); err != nil {
		return nil, fmt.Errorf("failed to parse chat watch: %w", err)
	}
	return dataToChatWatch(&data), nil
}

// ListByShop retrieves the chats watched for a shop.
func (r *ChatWatchRepo) ListByShop(ctx context.Context, shopName string) ([]*domain.ChatWatch, error) {
	return r.ListByShopInTxn(ctx, r.client.Single(), shopName)
}

// ListByShopInTxn retrieves the chats watched for a shop through rd.
func (r *ChatWatchRepo) ListByShopInTxn(ctx context.Context, rd contracts.RowReader, shopName string) ([]*domain.ChatWatch, error) {
	stmt := query.From(m_chat_watch.TableName).
		UseIndex(m_chat_watch.IndexByShop).
		Select(m_chat_watch.Columns...).
		Where(query.Eq(m_chat_watch.ShopName, shopName)).
		OrderBy(m_chat_watch.ChatID, query.Asc).
		Build()

	iter := rd.Query(ctx, stmt)
	defer iter.Stop()

	var watches []*domain.ChatWatch
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate chat watches: %w", err)
		}

		var data m_chat_watch.Data
		if err := row.ToStruct(&data); err != nil {
			return nil, fmt.Errorf("failed to parse chat watch: %w", err)
		}
		watches = append(watches, dataToChatWatch(&data))
	}
	return watches, nil
}

// GetManyInTxn retrieves the existing watches among chatIDs.
func (r *ChatWatchRepo) GetManyInTxn(ctx context.Context, rd contracts.RowReader, chatIDs []string) (map[string]*domain.ChatWatch, error) {
	watches := make(map[string]*domain.ChatWatch, len(chatIDs))
	if len(chatIDs) == 0 {
		return watches, nil
	}

	keys := make([]spanner.KeySet, 0, len(chatIDs))
	for _, id := range chatIDs {
		keys = append(keys, spanner.Key{id})
	}

	err := rd.Read(ctx, m_chat_watch.TableName, spanner.KeySets(keys...), m_chat_watch.Columns).Do(func(row *spanner.Row) error {
		var data m_chat_watch.Data
		if err := row.ToStruct(&data); err != nil {
			return err
		}
		watches[data.ChatID] = dataToChatWatch(&data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read chat watches: %w", err)
	}
	return watches, nil
}

// CursorInTxn reads the current cursor of a chat through rd.
func (r *ChatWatchRepo) CursorInTxn(ctx context.Context, rd contracts.RowReader, chatID string) (string, error) {
	row, err := rd.ReadRow(ctx, m_chat_watch.TableName, spanner.Key{chatID}, []string{m_chat_watch.LastProcessedMessageID})
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return "", domain.ErrChatNotWatched
		}
		return "", fmt.Errorf("failed to read chat cursor: %w", err)
	}

	var cursor spanner.NullString
	if err := row.Column(0, &cursor); err != nil {
		return "", fmt.Errorf("failed to parse chat cursor: %w", err)
	}
	return cursor.StringVal, nil
}

// InsertMut starts watching a chat with an empty cursor.
func (r *ChatWatchRepo) InsertMut(w *domain.ChatWatch) *spanner.Mutation {
	return r.model.InsertMut(&m_chat_watch.Data{
		ChatID:   w.ChatID,
		ShopName: w.ShopName,
		ChatName: w.ChatName,
	})
}

// RenameMut updates shop and chat name, keeping the cursor.
func (r *ChatWatchRepo) RenameMut(w *domain.ChatWatch) *spanner.Mutation {
	return r.model.RenameMut(w.ChatID, w.ShopName, w.ChatName)
}

// AdvanceCursorMut moves the cursor of a chat.
func (r *ChatWatchRepo) AdvanceCursorMut(chatID, messageID string) *spanner.Mutation {
	return r.model.AdvanceCursorMut(chatID, messageID)
}

// DeleteMut stops watching a chat.
func (r *ChatWatchRepo) DeleteMut(chatID string) *spanner.Mutation {
	return r.model.DeleteMut(chatID)
}

func dataToChatWatch(data *m_chat_watch.Data) *domain.ChatWatch {
	w := &domain.ChatWatch{
		ChatID:    data.ChatID,
		ShopName:  data.ShopName,
		ChatName:  data.ChatName,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
	if data.LastProcessedMessageID.Valid {
		cursor := data.LastProcessedMessageID.StringVal
		w.LastProcessedMessageID = &cursor
	}
	return w
}
