package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/light-bringer/chatsync-service/internal/app/product/contracts"
	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/app/product/queries/get_job"
	"github.com/light-bringer/chatsync-service/internal/app/product/queries/list_jobs"
	"github.com/light-bringer/chatsync-service/internal/app/product/queries/list_products"
	"github.com/light-bringer/chatsync-service/internal/app/product/usecases/configure_shop"
	"github.com/light-bringer/chatsync-service/internal/app/product/usecases/process_chat"
	"github.com/light-bringer/chatsync-service/internal/chat"
)

type fakeShops struct {
	req    *configure_shop.Request
	result *configure_shop.Result
	err    error
}

func (f *fakeShops) Execute(_ context.Context, req *configure_shop.Request) (*configure_shop.Result, error) {
	f.req = req
	return f.result, f.err
}

type fakeChats struct {
	chatID string
	result *process_chat.Result
	err    error
}

func (f *fakeChats) Execute(_ context.Context, chatID string) (*process_chat.Result, error) {
	f.chatID = chatID
	return f.result, f.err
}

type fakeSync struct {
	job     *domain.SyncJob
	created bool
	err     error
}

func (f *fakeSync) Enqueue(context.Context) (*domain.SyncJob, bool, error) {
	return f.job, f.created, f.err
}

type fakeJobs struct {
	req  *list_jobs.Request
	jobs []*domain.SyncJob
}

func (f *fakeJobs) Execute(_ context.Context, req *list_jobs.Request) ([]*domain.SyncJob, error) {
	f.req = req
	return f.jobs, nil
}

type fakeJob struct {
	job *domain.SyncJob
	err error
}

func (f *fakeJob) Execute(context.Context, *get_job.Request) (*domain.SyncJob, error) {
	return f.job, f.err
}

type fakeProducts struct {
	req      *list_products.Request
	products []*contracts.ProductDTO
}

func (f *fakeProducts) Execute(_ context.Context, req *list_products.Request) ([]*contracts.ProductDTO, error) {
	f.req = req
	return f.products, nil
}

type fixture struct {
	shops    *fakeShops
	chats    *fakeChats
	sync     *fakeSync
	jobs     *fakeJobs
	job      *fakeJob
	products *fakeProducts
	reg      *prometheus.Registry
	server   *echo.Echo
}

func newFixture() *fixture {
	f := &fixture{
		shops:    &fakeShops{},
		chats:    &fakeChats{},
		sync:     &fakeSync{},
		jobs:     &fakeJobs{},
		job:      &fakeJob{},
		products: &fakeProducts{},
		reg:      prometheus.NewRegistry(),
	}
	h := NewHandler(f.shops, f.chats, f.sync, f.jobs, f.job, f.products, zap.NewNop())
	f.server = NewServer(h, f.reg, f.reg, zap.NewNop())
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

var created = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestHealth(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestConfigureShop(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture()
		f.shops.result = &configure_shop.Result{
			ShopCreated: true,
			Added:       []string{"chat-1"},
			Processed:   []*process_chat.Result{{ChatID: "chat-1", Scanned: 3, Created: 2}},
		}

		rec := f.do(http.MethodPost, "/api/v1/shops",
			`{"shop_name":"tienda","api_key":"k","access_token":"t","chat_ids":["chat-1"]}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, &configure_shop.Request{
			ShopName:    "tienda",
			APIKey:      "k",
			AccessToken: "t",
			ChatIDs:     []string{"chat-1"},
		}, f.shops.req)

		resp := decode[ConfigureShopResponse](t, rec)
		assert.True(t, resp.ShopCreated)
		assert.Equal(t, []string{"chat-1"}, resp.Added)
		assert.Empty(t, resp.Kept)
		require.Len(t, resp.Processed, 1)
		assert.Equal(t, 2, resp.Processed[0].Created)
		assert.Empty(t, resp.Errors)
	})

	t.Run("partial failure is reported in the body", func(t *testing.T) {
		f := newFixture()
		f.shops.result = &configure_shop.Result{Added: []string{"a", "b"}}
		f.shops.err = errors.Join(errors.New("process chat a: boom"), errors.New("process chat b: boom"))

		rec := f.do(http.MethodPost, "/api/v1/shops",
			`{"shop_name":"tienda","api_key":"k","access_token":"t","chat_ids":["a","b"]}`)

		require.Equal(t, http.StatusMultiStatus, rec.Code)
		resp := decode[ConfigureShopResponse](t, rec)
		assert.Equal(t, []string{"process chat a: boom", "process chat b: boom"}, resp.Errors)
	})

	t.Run("missing credentials", func(t *testing.T) {
		f := newFixture()

		rec := f.do(http.MethodPost, "/api/v1/shops", `{"shop_name":"tienda","chat_ids":[]}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, f.shops.req)
		resp := decode[ErrorResponse](t, rec)
		assert.Contains(t, resp.Message, "api_key")
	})

	t.Run("unknown chat", func(t *testing.T) {
		f := newFixture()
		f.shops.err = fmt.Errorf("resolve chat x: %w", chat.ErrChatNotFound)

		rec := f.do(http.MethodPost, "/api/v1/shops",
			`{"shop_name":"tienda","api_key":"k","access_token":"t","chat_ids":["x"]}`)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestProcessChat(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture()
		f.chats.result = &process_chat.Result{ChatID: "chat-1", Scanned: 5, Updated: 1, Cursor: "m5", CursorFound: true, JobID: "job-1", JobCreated: true}

		rec := f.do(http.MethodPost, "/api/v1/chats/chat-1/process", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "chat-1", f.chats.chatID)
		resp := decode[ProcessChatResponse](t, rec)
		assert.Equal(t, "m5", resp.Cursor)
		assert.Equal(t, "job-1", resp.JobID)
		assert.True(t, resp.JobCreated)
	})

	t.Run("not watched", func(t *testing.T) {
		f := newFixture()
		f.chats.err = domain.ErrChatNotWatched

		rec := f.do(http.MethodPost, "/api/v1/chats/chat-1/process", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("cursor conflict", func(t *testing.T) {
		f := newFixture()
		f.chats.err = fmt.Errorf("commit batch: %w", domain.ErrCursorConflict)

		rec := f.do(http.MethodPost, "/api/v1/chats/chat-1/process", "")

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("internal errors are hidden", func(t *testing.T) {
		f := newFixture()
		f.chats.err = errors.New("spanner: secret detail")

		rec := f.do(http.MethodPost, "/api/v1/chats/chat-1/process", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret")
	})
}

func TestEnqueueSync(t *testing.T) {
	f := newFixture()
	f.sync.job = &domain.SyncJob{ID: "job-1", Type: domain.JobTypeSyncAll, Status: domain.JobPending, MaxAttempts: 1, CreatedAt: created}
	f.sync.created = true

	rec := f.do(http.MethodPost, "/api/v1/sync", "")

	require.Equal(t, http.StatusAccepted, rec.Code)
	resp := decode[EnqueueSyncResponse](t, rec)
	assert.True(t, resp.Created)
	assert.Equal(t, "job-1", resp.Job.JobID)
	assert.Equal(t, "pending", resp.Job.Status)
	assert.Equal(t, "2024-05-01T12:00:00Z", resp.Job.CreatedAt)

	f.sync.created = false
	rec = f.do(http.MethodPost, "/api/v1/sync", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListJobs(t *testing.T) {
	t.Run("with filter", func(t *testing.T) {
		f := newFixture()
		finished := created.Add(time.Minute)
		f.jobs.jobs = []*domain.SyncJob{
			{ID: "job-2", Status: domain.JobFailed, ErrorMessage: "boom", CreatedAt: created, FinishedAt: &finished},
		}

		rec := f.do(http.MethodGet, "/api/v1/jobs?status=failed&limit=10", "")

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, f.jobs.req.Status)
		assert.Equal(t, "failed", *f.jobs.req.Status)
		assert.Equal(t, int64(10), f.jobs.req.Limit)

		resp := decode[ListJobsResponse](t, rec)
		assert.Equal(t, 1, resp.TotalCount)
		assert.Equal(t, "boom", resp.Jobs[0].Error)
		require.NotNil(t, resp.Jobs[0].FinishedAt)
		assert.Equal(t, "2024-05-01T12:01:00Z", *resp.Jobs[0].FinishedAt)
	})

	t.Run("without filter", func(t *testing.T) {
		f := newFixture()

		rec := f.do(http.MethodGet, "/api/v1/jobs", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, f.jobs.req.Status)
		assert.JSONEq(t, `{"jobs":[],"total_count":0}`, rec.Body.String())
	})

	t.Run("invalid status", func(t *testing.T) {
		f := newFixture()

		rec := f.do(http.MethodGet, "/api/v1/jobs?status=done", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, f.jobs.req)
	})
}

func TestGetJob(t *testing.T) {
	f := newFixture()
	f.job.err = domain.ErrJobNotFound

	rec := f.do(http.MethodGet, "/api/v1/jobs/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"code":404,"message":"sync job not found"}`, rec.Body.String())

	f.job.err = nil
	f.job.job = &domain.SyncJob{ID: "job-1", Status: domain.JobActive, Progress: 40, CreatedAt: created}
	rec = f.do(http.MethodGet, "/api/v1/jobs/job-1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[JobResponse](t, rec)
	assert.Equal(t, int64(40), resp.Progress)
	assert.Nil(t, resp.StartedAt)
}

func TestListProducts(t *testing.T) {
	f := newFixture()
	synced := created.Add(time.Hour)
	f.products.products = []*contracts.ProductDTO{
		{SKU: "CAM-001", Name: "Camisa", Price: "25000", Categories: []string{"Camisas"}, Sizes: []string{"S", "M"}, VariantCount: 2, ImageCount: 1, UpdatedAt: created, SyncedAt: &synced},
	}

	rec := f.do(http.MethodGet, "/api/v1/products?unsynced=true&chat_id=chat-1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, &list_products.Request{UnsyncedOnly: true, SourceChatID: "chat-1"}, f.products.req)

	resp := decode[ListProductsResponse](t, rec)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "CAM-001", resp.Products[0].SKU)
	assert.Equal(t, "25000", resp.Products[0].Price)
	require.NotNil(t, resp.Products[0].SyncedAt)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture()

	f.do(http.MethodGet, "/api/v1/jobs", "")
	f.do(http.MethodGet, "/nowhere", "")
	f.do(http.MethodGet, "/health", "")

	n, err := testutil.GatherAndCount(f.reg, "chatsync_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rec := f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `path="/api/v1/jobs"`)
	assert.Contains(t, rec.Body.String(), `path="/not-found"`)
}

func TestPanicIsRecovered(t *testing.T) {
	f := newFixture()
	f.server.GET("/boom", func(echo.Context) error { panic("boom") })

	rec := f.do(http.MethodGet, "/boom", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
