package contracts

import (
	"context"

	"cloud.google.com/go/spanner"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
)

// ChatWatchRepository defines the interface for watched chat persistence.
type ChatWatchRepository interface {
	// Get retrieves a watched chat, or domain.ErrChatNotWatched
	Get(ctx context.Context, chatID string) (*domain.ChatWatch, error)

	// ListByShop retrieves the chats watched for a shop
	ListByShop(ctx context.Context, shopName string) ([]*domain.ChatWatch, error)

	// ListByShopInTxn retrieves the chats watched for a shop through rd
	ListByShopInTxn(ctx context.Context, rd RowReader, shopName string) ([]*domain.ChatWatch, error)

	// GetManyInTxn retrieves the watches of chatIDs that exist, keyed by chat id
	GetManyInTxn(ctx context.Context, rd RowReader, chatIDs []string) (map[string]*domain.ChatWatch, error)

	// CursorInTxn reads the current cursor of a chat through rd
	CursorInTxn(ctx context.Context, rd RowReader, chatID string) (string, error)

	// InsertMut starts watching a chat with an empty cursor
	InsertMut(w *domain.ChatWatch) *spanner.Mutation

	// RenameMut updates shop and chat name, keeping the cursor
	RenameMut(w *domain.ChatWatch) *spanner.Mutation

	// AdvanceCursorMut moves the cursor of a chat
	AdvanceCursorMut(chatID, messageID string) *spanner.Mutation

	// DeleteMut stops watching a chat
	DeleteMut(chatID string) *spanner.Mutation
}
