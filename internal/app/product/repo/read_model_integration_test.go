//go:build integration

package repo_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/chatsync-service/internal/app/product/contracts"
	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/app/product/repo"
	"github.com/light-bringer/chatsync-service/internal/testutil"
)

func TestReadModel_ListProducts(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	readModel := repo.NewReadModel(client)

	applyUpsert(t, client, testutil.NewProductFixture("A").WithImages(2).
		WithTier("1", "10.00", 1, domain.UnboundedQuantity).FromChat("chat-1", "m1").Build(), false)
	applyUpsert(t, client, testutil.NewProductFixture("B").WithPrice("25000").FromChat("chat-2", "m1").Build(), false)

	_, err := client.Apply(ctx, []*spanner.Mutation{repo.NewProductRepo(client).MarkSyncedMut("A", time.Now())})
	require.NoError(t, err)

	all, err := readModel.ListProducts(ctx, &contracts.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	bySKU := map[string]*contracts.ProductDTO{}
	for _, p := range all {
		bySKU[p.SKU] = p
	}
	assert.Equal(t, int64(2), bySKU["A"].ImageCount)
	assert.Equal(t, int64(1), bySKU["A"].VariantCount)
	assert.NotNil(t, bySKU["A"].SyncedAt)
	assert.Equal(t, "25000", bySKU["B"].Price)

	unsynced, err := readModel.ListProducts(ctx, &contracts.ProductFilter{UnsyncedOnly: true})
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, "B", unsynced[0].SKU)

	fromChat, err := readModel.ListProducts(ctx, &contracts.ProductFilter{SourceChatID: "chat-1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, fromChat, 1)
	assert.Equal(t, "A", fromChat[0].SKU)
}

func TestReadModel_ListJobs(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	jobs := repo.NewSyncJobRepo(client)
	readModel := repo.NewReadModel(client)

	first, _, err := jobs.Enqueue(ctx, &domain.SyncJob{Type: domain.JobTypeSyncAll, Payload: "{}"})
	require.NoError(t, err)
	_, err = jobs.ClaimNext(ctx, time.Now())
	require.NoError(t, err)
	require.NoError(t, jobs.Finish(ctx, first.ID, domain.JobCompleted, "", time.Now()))

	second, _, err := jobs.Enqueue(ctx, &domain.SyncJob{Type: domain.JobTypeSyncAll, Payload: "{}"})
	require.NoError(t, err)

	all, err := readModel.ListJobs(ctx, &contracts.JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	pending := domain.JobPending
	filtered, err := readModel.ListJobs(ctx, &contracts.JobFilter{Status: &pending, Limit: 5})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, second.ID, filtered[0].ID)
}
