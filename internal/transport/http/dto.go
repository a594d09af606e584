package http

import (
	"time"

	"github.com/light-bringer/chatsync-service/internal/app/product/contracts"
	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/app/product/usecases/configure_shop"
	"github.com/light-bringer/chatsync-service/internal/app/product/usecases/process_chat"
)

const timeLayout = time.RFC3339

// ConfigureShopRequest is the body of POST /api/v1/shops.
type ConfigureShopRequest struct {
	ShopName    string   `json:"shop_name" validate:"required"`
	APIKey      string   `json:"api_key" validate:"required"`
	AccessToken string   `json:"access_token" validate:"required"`
	ChatIDs     []string `json:"chat_ids" validate:"dive,required"`
}

// ConfigureShopResponse reports the new watched set and the first scans.
type ConfigureShopResponse struct {
	ShopCreated bool                  `json:"shop_created"`
	Added       []string              `json:"added"`
	Kept        []string              `json:"kept"`
	Removed     []string              `json:"removed"`
	Processed   []ProcessChatResponse `json:"processed"`
	Errors      []string              `json:"errors,omitempty"`
}

// ProcessChatRequest carries the chat of POST /api/v1/chats/:chat_id/process.
type ProcessChatRequest struct {
	ChatID string `param:"chat_id" validate:"required"`
}

// ProcessChatResponse describes one processing pass.
type ProcessChatResponse struct {
	ChatID      string `json:"chat_id"`
	Scanned     int    `json:"scanned"`
	Created     int    `json:"created"`
	Updated     int    `json:"updated"`
	Cursor      string `json:"cursor,omitempty"`
	CursorFound bool   `json:"cursor_found"`
	JobID       string `json:"job_id,omitempty"`
	JobCreated  bool   `json:"job_created"`
}

// EnqueueSyncResponse is the body of POST /api/v1/sync.
type EnqueueSyncResponse struct {
	Job     JobResponse `json:"job"`
	Created bool        `json:"created"`
}

// ListJobsRequest holds the query of GET /api/v1/jobs.
type ListJobsRequest struct {
	Status string `query:"status" validate:"omitempty,oneof=pending active completed failed stalled"`
	Limit  int64  `query:"limit" validate:"gte=0"`
}

// GetJobRequest carries the job of GET /api/v1/jobs/:job_id.
type GetJobRequest struct {
	JobID string `param:"job_id" validate:"required"`
}

// JobResponse is a sync job.
type JobResponse struct {
	JobID       string  `json:"job_id"`
	JobType     string  `json:"job_type"`
	Status      string  `json:"status"`
	Progress    int64   `json:"progress"`
	Attempts    int64   `json:"attempts"`
	MaxAttempts int64   `json:"max_attempts"`
	Error       string  `json:"error,omitempty"`
	CreatedAt   string  `json:"created_at"`
	StartedAt   *string `json:"started_at,omitempty"`
	HeartbeatAt *string `json:"heartbeat_at,omitempty"`
	FinishedAt  *string `json:"finished_at,omitempty"`
}

// ListJobsResponse is the body of GET /api/v1/jobs.
type ListJobsResponse struct {
	Jobs       []JobResponse `json:"jobs"`
	TotalCount int           `json:"total_count"`
}

// ListProductsRequest holds the query of GET /api/v1/products.
type ListProductsRequest struct {
	Unsynced bool   `query:"unsynced"`
	ChatID   string `query:"chat_id"`
	Limit    int64  `query:"limit" validate:"gte=0"`
}

// ProductResponse is a product summary.
type ProductResponse struct {
	SKU             string   `json:"sku"`
	Name            string   `json:"name"`
	Price           string   `json:"price"`
	Categories      []string `json:"categories"`
	Sizes           []string `json:"sizes"`
	VariantCount    int64    `json:"variant_count"`
	ImageCount      int64    `json:"image_count"`
	SourceChatID    string   `json:"source_chat_id"`
	SourceMessageID string   `json:"source_message_id"`
	UpdatedAt       string   `json:"updated_at"`
	SyncedAt        *string  `json:"synced_at,omitempty"`
}

// ListProductsResponse is the body of GET /api/v1/products.
type ListProductsResponse struct {
	Products   []ProductResponse `json:"products"`
	TotalCount int               `json:"total_count"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeLayout)
	return &s
}

func toJobResponse(j *domain.SyncJob) JobResponse {
	return JobResponse{
		JobID:       j.ID,
		JobType:     j.Type,
		Status:      string(j.Status),
		Progress:    j.Progress,
		Attempts:    j.Attempts,
		MaxAttempts: j.MaxAttempts,
		Error:       j.ErrorMessage,
		CreatedAt:   j.CreatedAt.Format(timeLayout),
		StartedAt:   formatTime(j.StartedAt),
		HeartbeatAt: formatTime(j.HeartbeatAt),
		FinishedAt:  formatTime(j.FinishedAt),
	}
}

func toProductResponse(p *contracts.ProductDTO) ProductResponse {
	return ProductResponse{
		SKU:             p.SKU,
		Name:            p.Name,
		Price:           p.Price,
		Categories:      p.Categories,
		Sizes:           p.Sizes,
		VariantCount:    p.VariantCount,
		ImageCount:      p.ImageCount,
		SourceChatID:    p.SourceChatID,
		SourceMessageID: p.SourceMessageID,
		UpdatedAt:       p.UpdatedAt.Format(timeLayout),
		SyncedAt:        formatTime(p.SyncedAt),
	}
}

func toProcessChatResponse(r *process_chat.Result) ProcessChatResponse {
	return ProcessChatResponse{
		ChatID:      r.ChatID,
		Scanned:     r.Scanned,
		Created:     r.Created,
		Updated:     r.Updated,
		Cursor:      r.Cursor,
		CursorFound: r.CursorFound,
		JobID:       r.JobID,
		JobCreated:  r.JobCreated,
	}
}

func toConfigureShopResponse(r *configure_shop.Result) ConfigureShopResponse {
	resp := ConfigureShopResponse{
		ShopCreated: r.ShopCreated,
		Added:       nonNil(r.Added),
		Kept:        nonNil(r.Kept),
		Removed:     nonNil(r.Removed),
		Processed:   make([]ProcessChatResponse, 0, len(r.Processed)),
	}
	for _, p := range r.Processed {
		resp.Processed = append(resp.Processed, toProcessChatResponse(p))
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
