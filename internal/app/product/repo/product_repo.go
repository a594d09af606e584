package repo

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/chatsync-service/internal/app/product/contracts"
	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/models/m_product"
	"github.com/light-bringer/chatsync-service/internal/models/m_product_image"
	"github.com/light-bringer/chatsync-service/internal/models/m_product_variant"
	"github.com/light-bringer/chatsync-service/internal/pkg/query"
)

// ProductRepo implements ProductRepository for Spanner.
type ProductRepo struct {
	client   *spanner.Client
	model    *m_product.Model
	images   *m_product_image.Model
	variants *m_product_variant.Model
}

// NewProductRepo creates a new ProductRepo.
func NewProductRepo(client *spanner.Client) contracts.ProductRepository {
	return &ProductRepo{
		client:   client,
		model:    m_product.NewModel(),
		images:   m_product_image.NewModel(),
		variants: m_product_variant.NewModel(),
	}
}

// UpdatedAtBySKU returns the last update time of the skus that have a product row.
func (r *ProductRepo) UpdatedAtBySKU(ctx context.Context, rd contracts.RowReader, skus []string) (map[string]time.Time, error) {
	existing := make(map[string]time.Time, len(skus))
	if len(skus) == 0 {
		return existing, nil
	}

	keys := make([]spanner.KeySet, 0, len(skus))
	for _, sku := range skus {
		keys = append(keys, spanner.Key{sku})
	}

	iter := rd.Read(ctx, m_product.TableName, spanner.KeySets(keys...), []string{m_product.SKU, m_product.UpdatedAt})
	err := iter.Do(func(row *spanner.Row) error {
		var (
			sku       string
			updatedAt time.Time
		)
		if err := row.Columns(&sku, &updatedAt); err != nil {
			return err
		}
		existing[sku] = updatedAt
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read existing products: %w", err)
	}
	return existing, nil
}

// UpsertMuts creates the mutations that replace the stored record for p.
// Children are deleted by key prefix and re-inserted, so no orphan survives a re-sync.
func (r *ProductRepo) UpsertMuts(p *domain.ProductRecord, exists bool) ([]*spanner.Mutation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	data := r.domainToData(p)
	muts := make([]*spanner.Mutation, 0, 3+len(p.Images)+len(p.Variants))

	if exists {
		muts = append(muts, r.model.ReplaceMut(data))
	} else {
		muts = append(muts, r.model.InsertMut(data))
	}

	muts = append(muts, r.images.DeleteAllMut(p.SKU), r.variants.DeleteAllMut(p.SKU))

	for i, img := range p.Images {
		mut, err := r.images.InsertMut(&m_product_image.Row{
			SKU:      p.SKU,
			Position: int64(i),
			MimeType: img.MimeType,
			Data:     img.Data,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build image mutation for %s: %w", p.SKU, err)
		}
		muts = append(muts, mut)
	}

	for i, v := range p.Variants {
		mut, err := r.variants.InsertMut(&m_product_variant.Data{
			SKU:         p.SKU,
			Position:    int64(i),
			PriceLevel:  v.PriceLevel,
			Price:       domain.AmountToNumeric(v.Price),
			MinQuantity: v.MinQuantity,
			MaxQuantity: v.MaxQuantity,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build variant mutation for %s: %w", p.SKU, err)
		}
		muts = append(muts, mut)
	}

	return muts, nil
}

// MarkSyncedMut stamps a product as reconciled.
func (r *ProductRepo) MarkSyncedMut(sku string, at time.Time) *spanner.Mutation {
	return r.model.MarkSyncedMut(sku, at)
}

// GetBySKU retrieves a product with its images and variants.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*domain.ProductRecord, error) {
	txn := r.client.ReadOnlyTransaction()
	defer txn.Close()

	row, err := txn.ReadRow(ctx, m_product.TableName, spanner.Key{sku}, m_product.Columns)
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to read product: %w", err)
	}

	var data m_product.Data
	if err := row.ToStruct(&data); err != nil {
		return nil, fmt.Errorf("failed to parse product: %w", err)
	}

	products := []*domain.ProductRecord{r.dataToDomain(&data)}
	if err := r.loadChildren(ctx, txn, products); err != nil {
		return nil, err
	}
	return products[0], nil
}

// ListUnsynced retrieves every product with no synced timestamp, oldest first,
// from one consistent snapshot.
func (r *ProductRepo) ListUnsynced(ctx context.Context) ([]*domain.ProductRecord, error) {
	txn := r.client.ReadOnlyTransaction()
	defer txn.Close()

	stmt := query.From(m_product.TableName).
		Select(m_product.Columns...).
		Where(query.IsNull(m_product.SyncedAt)).
		OrderBy(m_product.UpdatedAt, query.Asc).
		Build()

	iter := txn.Query(ctx, stmt)
	defer iter.Stop()

	var products []*domain.ProductRecord
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate unsynced products: %w", err)
		}

		var data m_product.Data
		if err := row.ToStruct(&data); err != nil {
			return nil, fmt.Errorf("failed to parse product: %w", err)
		}
		products = append(products, r.dataToDomain(&data))
	}

	if err := r.loadChildren(ctx, txn, products); err != nil {
		return nil, err
	}
	return products, nil
}

// loadChildren fills images and variants of products with one read per child table.
func (r *ProductRepo) loadChildren(ctx context.Context, rd contracts.RowReader, products []*domain.ProductRecord) error {
	if len(products) == 0 {
		return nil
	}

	bySKU := make(map[string]*domain.ProductRecord, len(products))
	prefixes := make([]spanner.KeySet, 0, len(products))
	for _, p := range products {
		bySKU[p.SKU] = p
		prefixes = append(prefixes, spanner.Key{p.SKU}.AsPrefix())
	}
	keys := spanner.KeySets(prefixes...)

	// rows come back in primary key order, so positions are already sorted
	err := rd.Read(ctx, m_product_image.TableName, keys, r.images.ReadColumns()).Do(func(row *spanner.Row) error {
		var img m_product_image.Row
		if err := row.ToStruct(&img); err != nil {
			return err
		}
		if p, ok := bySKU[img.SKU]; ok {
			p.Images = append(p.Images, domain.ImageAttachment{MimeType: img.MimeType, Data: img.Data})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read product images: %w", err)
	}

	err = rd.Read(ctx, m_product_variant.TableName, keys, r.variants.ReadColumns()).Do(func(row *spanner.Row) error {
		var v m_product_variant.Data
		if err := row.ToStruct(&v); err != nil {
			return err
		}
		if p, ok := bySKU[v.SKU]; ok {
			p.Variants = append(p.Variants, domain.PriceVariant{
				PriceLevel:  v.PriceLevel,
				Price:       domain.AmountFromNumeric(v.Price),
				MinQuantity: v.MinQuantity,
				MaxQuantity: v.MaxQuantity,
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read product variants: %w", err)
	}

	return nil
}

// domainToData converts a domain ProductRecord to database Data.
func (r *ProductRepo) domainToData(p *domain.ProductRecord) *m_product.Data {
	categories := p.Categories
	if categories == nil {
		categories = []string{}
	}
	sizes := p.Sizes
	if sizes == nil {
		sizes = []string{}
	}

	return &m_product.Data{
		SKU:             p.SKU,
		Name:            p.Name,
		Description:     p.Description,
		Price:           domain.AmountToNumeric(p.Price),
		Categories:      categories,
		Sizes:           sizes,
		SourceChatID:    p.SourceChatID,
		SourceMessageID: p.SourceMessageID,
	}
}

// dataToDomain converts database Data to a domain ProductRecord without children.
func (r *ProductRepo) dataToDomain(data *m_product.Data) *domain.ProductRecord {
	p := &domain.ProductRecord{
		SKU:             data.SKU,
		Name:            data.Name,
		Description:     data.Description,
		Price:           domain.AmountFromNumeric(data.Price),
		Categories:      data.Categories,
		Sizes:           data.Sizes,
		SourceChatID:    data.SourceChatID,
		SourceMessageID: data.SourceMessageID,
		CreatedAt:       data.CreatedAt,
		UpdatedAt:       data.UpdatedAt,
	}
	if data.SyncedAt.Valid {
		syncedAt := data.SyncedAt.Time
		p.SyncedAt = &syncedAt
	}
	return p
}
