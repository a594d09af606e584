package repo

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/chatsync-service/internal/app/product/contracts"
	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/models/m_shop"
	"github.com/light-bringer/chatsync-service/internal/pkg/query"
)

// ShopRepo implements ShopRepository for Spanner.
type ShopRepo struct {
	client *spanner.Client
	model  *m_shop.Model
}

// NewShopRepo creates a new ShopRepo.
func NewShopRepo(client *spanner.Client) contracts.ShopRepository {
	return &ShopRepo{
		client: client,
		model:  m_shop.NewModel(),
	}
}

// Get retrieves a shop credential.
func (r *ShopRepo) Get(ctx context.Context, shopName string) (*domain.ShopCredential, error) {
	row, err := r.client.Single().ReadRow(ctx, m_shop.TableName, spanner.Key{shopName}, m_shop.Columns)
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrShopNotFound
		}
		return nil, fmt.Errorf("failed to read shop: %w", err)
	}

	var data m_shop.Data
	if err := row.ToStruct(&data); err != nil {
		return nil, fmt.Errorf("failed to parse shop: %w", err)
	}
	return dataToShop(&data), nil
}

// List retrieves every configured shop ordered by name.
func (r *ShopRepo) List(ctx context.Context) ([]*domain.ShopCredential, error) {
	stmt := query.From(m_shop.TableName).
		Select(m_shop.Columns...).
		OrderBy(m_shop.ShopName, query.Asc).
		Build()

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var shops []*domain.ShopCredential
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate shops: %w", err)
		}

		var data m_shop.Data
		if err := row.ToStruct(&data); err != nil {
			return nil, fmt.Errorf("failed to parse shop: %w", err)
		}
		shops = append(shops, dataToShop(&data))
	}
	return shops, nil
}

// ExistsInTxn checks for a shop through rd.
func (r *ShopRepo) ExistsInTxn(ctx context.Context, rd contracts.RowReader, shopName string) (bool, error) {
	_, err := rd.ReadRow(ctx, m_shop.TableName, spanner.Key{shopName}, []string{m_shop.ShopName})
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check shop existence: %w", err)
	}
	return true, nil
}

// SaveMut inserts or updates the credential depending on exists.
func (r *ShopRepo) SaveMut(shop *domain.ShopCredential, exists bool) *spanner.Mutation {
	data := &m_shop.Data{
		ShopName:    shop.ShopName,
		APIKey:      shop.APIKey,
		AccessToken: shop.AccessToken,
	}
	if exists {
		return r.model.UpdateCredentialsMut(data)
	}
	return r.model.InsertMut(data)
}

func dataToShop(data *m_shop.Data) *domain.ShopCredential {
	return &domain.ShopCredential{
		ShopName:    data.ShopName,
		APIKey:      data.APIKey,
		AccessToken: data.AccessToken,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}
