package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/app/product/usecases/mark_synced"
	"github.com/light-bringer/chatsync-service/internal/app/sync/reconciler"
	"github.com/light-bringer/chatsync-service/internal/catalog"
	"github.com/light-bringer/chatsync-service/internal/catalog/memcatalog"
	"github.com/light-bringer/chatsync-service/internal/pkg/clock"
)

type staticProducts []*domain.ProductRecord

func (s staticProducts) ListUnsynced(context.Context) ([]*domain.ProductRecord, error) {
	return s, nil
}

type staticShops []*domain.ShopCredential

func (s staticShops) List(context.Context) ([]*domain.ShopCredential, error) {
	return s, nil
}

type recordingMarker struct {
	calls int
	skus  []string
}

func (m *recordingMarker) Execute(ctx context.Context, req *mark_synced.Request) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.calls++
	var skus []string
	for _, p := range req.Products {
		skus = append(skus, p.SKU)
	}
	m.skus = append(m.skus, skus...)
	return skus, nil
}

// cancelAfter cancels the run once the wrapped reconciler succeeded n times.
type cancelAfter struct {
	Reconciler
	n      int
	cancel context.CancelFunc
}

func (c *cancelAfter) Reconcile(ctx context.Context, session catalog.Session, p *domain.ProductRecord) (*reconciler.Outcome, error) {
	out, err := c.Reconciler.Reconcile(ctx, session, p)
	if err == nil {
		c.n--
		if c.n == 0 {
			c.cancel()
		}
	}
	return out, err
}

func product(sku string, images int) *domain.ProductRecord {
	p := &domain.ProductRecord{
		SKU:   sku,
		Name:  "Producto " + sku,
		Price: decimal.NewFromInt(10),
	}
	for i := 0; i < images; i++ {
		p.Images = append(p.Images, domain.ImageAttachment{MimeType: "image/png", Data: "aW1n"})
	}
	return p
}

func shop(name string) *domain.ShopCredential {
	return &domain.ShopCredential{ShopName: name, APIKey: "key", AccessToken: "token"}
}

func newJob(products staticProducts, shops staticShops, conn catalog.Connector, marker *recordingMarker) *SyncAll {
	r := reconciler.New(clock.NewMockClock(time.Now()), nil, zap.NewNop())
	return NewSyncAll(products, shops, conn, r, marker, zap.NewNop())
}

func run(t *testing.T, j *SyncAll) ([]int64, error) {
	t.Helper()
	var progress []int64
	err := j.Run(context.Background(), &domain.SyncJob{ID: "job-1"}, func(p int64) { progress = append(progress, p) })
	return progress, err
}

func TestSyncAll_AllSucceed(t *testing.T) {
	conn := memcatalog.NewConnector()
	marker := &recordingMarker{}
	j := newJob(staticProducts{product("A", 1), product("B", 2)}, staticShops{shop("uno"), shop("dos")}, conn, marker)

	progress, err := run(t, j)
	require.NoError(t, err)

	assert.Equal(t, []int64{25, 50, 75, 100}, progress)
	assert.ElementsMatch(t, []string{"A", "B"}, marker.skus)
	assert.Len(t, conn.Shop("uno").Listings(), 2)
	assert.Len(t, conn.Shop("dos").Listings(), 2)
}

func TestSyncAll_ContinuesOnError(t *testing.T) {
	conn := memcatalog.NewConnector()
	marker := &recordingMarker{}
	j := newJob(staticProducts{product("NOIMG", 0), product("OK", 1)}, staticShops{shop("uno")}, conn, marker)

	_, err := run(t, j)
	require.Error(t, err)

	var missing *domain.MissingImagesError
	assert.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"OK"}, marker.skus)
	assert.Len(t, conn.Shop("uno").Listings(), 1)
}

func TestSyncAll_ProductMustSucceedOnEveryShop(t *testing.T) {
	conn := memcatalog.NewConnector()
	boom := errors.New("rate limited")
	conn.Shop("dos").FailOn("CreateListing", boom)

	marker := &recordingMarker{}
	j := newJob(staticProducts{product("A", 1)}, staticShops{shop("uno"), shop("dos")}, conn, marker)

	_, err := run(t, j)
	assert.ErrorIs(t, err, boom)

	var svcErr *domain.CatalogServiceError
	assert.ErrorAs(t, err, &svcErr)
	assert.Empty(t, marker.skus)
	assert.Len(t, conn.Shop("uno").Listings(), 1)
}

func TestSyncAll_SessionOpenFailure(t *testing.T) {
	conn := memcatalog.NewConnector()
	marker := &recordingMarker{}
	badShop := &domain.ShopCredential{ShopName: "sin-token"}
	j := newJob(staticProducts{product("A", 1)}, staticShops{badShop, shop("uno")}, conn, marker)

	progress, err := run(t, j)
	assert.ErrorIs(t, err, catalog.ErrUnauthorized)
	assert.Equal(t, []int64{50, 100}, progress)
	assert.Empty(t, marker.skus)
	assert.Len(t, conn.Shop("uno").Listings(), 1)
}

func TestSyncAll_NothingToDo(t *testing.T) {
	t.Run("no shops", func(t *testing.T) {
		marker := &recordingMarker{}
		_, err := run(t, newJob(staticProducts{product("A", 1)}, nil, memcatalog.NewConnector(), marker))
		assert.NoError(t, err)
		assert.Zero(t, marker.calls)
	})

	t.Run("no products", func(t *testing.T) {
		marker := &recordingMarker{}
		_, err := run(t, newJob(nil, staticShops{shop("uno")}, memcatalog.NewConnector(), marker))
		assert.NoError(t, err)
		assert.Zero(t, marker.calls)
	})
}

func TestSyncAll_StopsWhenCanceled(t *testing.T) {
	conn := memcatalog.NewConnector()
	marker := &recordingMarker{}
	j := newJob(staticProducts{product("A", 1)}, staticShops{shop("uno")}, conn, marker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := j.Run(ctx, &domain.SyncJob{ID: "job-1"}, func(int64) {})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, conn.Shop("uno").Listings())
	assert.Zero(t, marker.calls)
}

func TestSyncAll_InterruptedRunKeepsStamps(t *testing.T) {
	conn := memcatalog.NewConnector()
	marker := &recordingMarker{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A succeeds on both shops, then the run is cancelled before B
	r := &cancelAfter{
		Reconciler: reconciler.New(clock.NewMockClock(time.Now()), nil, zap.NewNop()),
		n:          2,
		cancel:     cancel,
	}
	j := NewSyncAll(staticProducts{product("A", 1), product("B", 1)}, staticShops{shop("uno"), shop("dos")}, conn, r, marker, zap.NewNop())

	err := j.Run(ctx, &domain.SyncJob{ID: "job-1"}, func(int64) {})
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []string{"A"}, marker.skus)
	assert.Len(t, conn.Shop("uno").Listings(), 1)
	assert.Len(t, conn.Shop("dos").Listings(), 1)
}

func TestSyncAll_StampsEachProductOnce(t *testing.T) {
	conn := memcatalog.NewConnector()
	marker := &recordingMarker{}
	j := newJob(staticProducts{product("A", 1), product("B", 1), product("C", 1)}, staticShops{shop("uno")}, conn, marker)

	_, err := run(t, j)
	require.NoError(t, err)
	assert.Equal(t, 3, marker.calls)
	assert.Equal(t, []string{"A", "B", "C"}, marker.skus)
}
