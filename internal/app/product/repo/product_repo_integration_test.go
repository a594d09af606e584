//go:build integration

package repo_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/app/product/repo"
	"github.com/light-bringer/chatsync-service/internal/testutil"
)

func applyUpsert(t *testing.T, client *spanner.Client, p *domain.ProductRecord, exists bool) {
	t.Helper()

	muts, err := repo.NewProductRepo(client).UpsertMuts(p, exists)
	require.NoError(t, err)
	_, err = client.Apply(context.Background(), muts)
	require.NoError(t, err)
}

func TestProductRepository_UpsertAndGet(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	repository := repo.NewProductRepo(client)

	p := testutil.NewProductFixture("ZAP-1").WithImages(3).
		WithTier("1", "10.00", 1, 4).
		WithTier("2", "8.50", 5, domain.UnboundedQuantity).
		FromChat("chat-1", "m1").Build()
	applyUpsert(t, client, p, false)

	got, err := repository.GetBySKU(ctx, "ZAP-1")
	require.NoError(t, err)
	assert.Equal(t, "Producto ZAP-1", got.Name)
	assert.True(t, got.Price.Equal(p.Price))
	assert.Equal(t, []string{"Zapatos"}, got.Categories)
	assert.Equal(t, []string{"S", "M"}, got.Sizes)
	assert.Equal(t, "chat-1", got.SourceChatID)
	assert.Nil(t, got.SyncedAt)

	require.Len(t, got.Images, 3)
	assert.Equal(t, "a", got.Images[0].Data, "images keep their order")
	assert.Equal(t, "c", got.Images[2].Data)

	require.Len(t, got.Variants, 2)
	assert.Equal(t, "2", got.Variants[1].PriceLevel)
	assert.True(t, got.Variants[1].IsUnbounded())

	t.Run("replacing drops old children", func(t *testing.T) {
		applyUpsert(t, client, testutil.NewProductFixture("ZAP-1").WithImages(1).FromChat("chat-1", "m2").Build(), true)

		got, err := repository.GetBySKU(ctx, "ZAP-1")
		require.NoError(t, err)
		assert.Len(t, got.Images, 1)
		assert.Empty(t, got.Variants)
		assert.Equal(t, "m2", got.SourceMessageID)

		testutil.AssertRowCount(t, client, "product_images", 1)
		testutil.AssertRowCount(t, client, "product_variants", 0)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repository.GetBySKU(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})
}

func TestProductRepository_ListUnsyncedAndMarkSynced(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	repository := repo.NewProductRepo(client)

	applyUpsert(t, client, testutil.NewProductFixture("A").FromChat("chat-1", "m1").Build(), false)
	applyUpsert(t, client, testutil.NewProductFixture("B").WithImages(2).FromChat("chat-1", "m2").Build(), false)

	unsynced, err := repository.ListUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 2)
	assert.Equal(t, "A", unsynced[0].SKU, "oldest first")
	assert.Len(t, unsynced[1].Images, 2)

	_, err = client.Apply(ctx, []*spanner.Mutation{repository.MarkSyncedMut("A", time.Now())})
	require.NoError(t, err)

	unsynced, err = repository.ListUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, "B", unsynced[0].SKU)

	updated, err := repository.UpdatedAtBySKU(ctx, client.Single(), []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Len(t, updated, 2)
	assert.NotContains(t, updated, "C")
}

func TestProductRepository_UpsertRejectsInvalid(t *testing.T) {
	repository := repo.NewProductRepo(nil)

	_, err := repository.UpsertMuts(&domain.ProductRecord{}, false)
	assert.ErrorIs(t, err, domain.ErrEmptySKU)
}
