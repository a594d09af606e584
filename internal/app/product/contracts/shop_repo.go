package contracts

import (
	"context"

	"cloud.google.com/go/spanner"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
)

// ShopRepository defines the interface for shop credential persistence.
type ShopRepository interface {
	// Get retrieves a shop, or domain.ErrShopNotFound
	Get(ctx context.Context, shopName string) (*domain.ShopCredential, error)

	// List retrieves every configured shop
	List(ctx context.Context) ([]*domain.ShopCredential, error)

	// ExistsInTxn checks for a shop through rd
	ExistsInTxn(ctx context.Context, rd RowReader, shopName string) (bool, error)

	// SaveMut inserts or updates the credential depending on exists
	SaveMut(shop *domain.ShopCredential, exists bool) *spanner.Mutation
}
