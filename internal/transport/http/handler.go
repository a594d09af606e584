package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/light-bringer/chatsync-service/internal/app/product/contracts"
	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/app/product/queries/get_job"
	"github.com/light-bringer/chatsync-service/internal/app/product/queries/list_jobs"
	"github.com/light-bringer/chatsync-service/internal/app/product/queries/list_products"
	"github.com/light-bringer/chatsync-service/internal/app/product/usecases/configure_shop"
	"github.com/light-bringer/chatsync-service/internal/app/product/usecases/process_chat"
)

type (
	ShopConfigurer interface {
		Execute(ctx context.Context, req *configure_shop.Request) (*configure_shop.Result, error)
	}
	ChatProcessor interface {
		Execute(ctx context.Context, chatID string) (*process_chat.Result, error)
	}
	SyncEnqueuer interface {
		Enqueue(ctx context.Context) (*domain.SyncJob, bool, error)
	}
	JobLister interface {
		Execute(ctx context.Context, req *list_jobs.Request) ([]*domain.SyncJob, error)
	}
	JobGetter interface {
		Execute(ctx context.Context, req *get_job.Request) (*domain.SyncJob, error)
	}
	ProductLister interface {
		Execute(ctx context.Context, req *list_products.Request) ([]*contracts.ProductDTO, error)
	}
)

// Handler serves the admin API.
type Handler struct {
	shops    ShopConfigurer
	chats    ChatProcessor
	sync     SyncEnqueuer
	jobs     JobLister
	job      JobGetter
	products ProductLister
	logger   *zap.Logger
}

// NewHandler creates the admin API handler.
func NewHandler(
	shops ShopConfigurer,
	chats ChatProcessor,
	sync SyncEnqueuer,
	jobs JobLister,
	job JobGetter,
	products ProductLister,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		shops:    shops,
		chats:    chats,
		sync:     sync,
		jobs:     jobs,
		job:      job,
		products: products,
		logger:   logger.Named("http"),
	}
}

// Health handles GET /health.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ConfigureShop handles POST /api/v1/shops.
// Chat processing failures after the configuration was saved are reported in
// the body with a 207 status.
func (h *Handler) ConfigureShop(c echo.Context) error {
	var req ConfigureShopRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.shops.Execute(c.Request().Context(), &configure_shop.Request{
		ShopName:    req.ShopName,
		APIKey:      req.APIKey,
		AccessToken: req.AccessToken,
		ChatIDs:     req.ChatIDs,
	})
	if result == nil {
		return err
	}

	resp := toConfigureShopResponse(result)
	if err != nil {
		for _, e := range unwrapJoined(err) {
			resp.Errors = append(resp.Errors, e.Error())
		}
		return c.JSON(http.StatusMultiStatus, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// ProcessChat handles POST /api/v1/chats/:chat_id/process.
func (h *Handler) ProcessChat(c echo.Context) error {
	var req ProcessChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.chats.Execute(c.Request().Context(), req.ChatID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProcessChatResponse(result))
}

// EnqueueSync handles POST /api/v1/sync.
func (h *Handler) EnqueueSync(c echo.Context) error {
	job, created, err := h.sync.Enqueue(c.Request().Context())
	if err != nil {
		return err
	}

	status := http.StatusOK
	if created {
		status = http.StatusAccepted
	}
	return c.JSON(status, EnqueueSyncResponse{Job: toJobResponse(job), Created: created})
}

// ListJobs handles GET /api/v1/jobs.
func (h *Handler) ListJobs(c echo.Context) error {
	var req ListJobsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	listReq := &list_jobs.Request{Limit: req.Limit}
	if req.Status != "" {
		listReq.Status = &req.Status
	}
	jobs, err := h.jobs.Execute(c.Request().Context(), listReq)
	if err != nil {
		return err
	}

	resp := ListJobsResponse{Jobs: make([]JobResponse, 0, len(jobs)), TotalCount: len(jobs)}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, toJobResponse(j))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetJob handles GET /api/v1/jobs/:job_id.
func (h *Handler) GetJob(c echo.Context) error {
	var req GetJobRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	job, err := h.job.Execute(c.Request().Context(), &get_job.Request{JobID: req.JobID})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toJobResponse(job))
}

// ListProducts handles GET /api/v1/products.
func (h *Handler) ListProducts(c echo.Context) error {
	var req ListProductsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	products, err := h.products.Execute(c.Request().Context(), &list_products.Request{
		UnsyncedOnly: req.Unsynced,
		SourceChatID: req.ChatID,
		Limit:        req.Limit,
	})
	if err != nil {
		return err
	}

	resp := ListProductsResponse{Products: make([]ProductResponse, 0, len(products)), TotalCount: len(products)}
	for _, p := range products {
		resp.Products = append(resp.Products, toProductResponse(p))
	}
	return c.JSON(http.StatusOK, resp)
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
