package process_chat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/light-bringer/chatsync-service/internal/app/ingest/scan"
	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/app/product/usecases/upsert_batch"
	"github.com/light-bringer/chatsync-service/internal/pkg/keymutex"
	"github.com/light-bringer/chatsync-service/internal/pkg/metrics"
)

// WatchReader loads the watch of a chat.
type WatchReader interface {
	Get(ctx context.Context, chatID string) (*domain.ChatWatch, error)
}

// ChatScanner extracts the products of a chat after a cursor.
type ChatScanner interface {
	Scan(ctx context.Context, chatID, cursor string) (*scan.Result, error)
}

// BatchWriter persists a scanned batch with its cursor.
type BatchWriter interface {
	Execute(ctx context.Context, req *upsert_batch.Request) (*upsert_batch.Result, error)
}

// SyncEnqueuer asks for a reconciliation run.
type SyncEnqueuer interface {
	Enqueue(ctx context.Context) (*domain.SyncJob, bool, error)
}

// Result describes one processing pass over a chat.
type Result struct {
	ChatID      string
	Scanned     int
	Created     int
	Updated     int
	Cursor      string
	CursorFound bool
	JobID       string
	JobCreated  bool
}

// Interactor scans a watched chat, persists new products and requests a sync.
type Interactor struct {
	watches  WatchReader
	scanner  ChatScanner
	writer   BatchWriter
	enqueuer SyncEnqueuer
	locks    *keymutex.KeyMutex
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewInteractor creates a new process chat interactor. A positive timeout
// bounds each pass, lock wait excluded.
func NewInteractor(
	watches WatchReader,
	scanner ChatScanner,
	writer BatchWriter,
	enqueuer SyncEnqueuer,
	locks *keymutex.KeyMutex,
	timeout time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Interactor {
	return &Interactor{
		watches:  watches,
		scanner:  scanner,
		writer:   writer,
		enqueuer: enqueuer,
		locks:    locks,
		timeout:  timeout,
		metrics:  m,
		logger:   logger.Named("process_chat"),
	}
}

// Execute processes chatID. Passes over the same chat never overlap.
func (i *Interactor) Execute(ctx context.Context, chatID string) (*Result, error) {
	unlock := i.locks.Lock(chatID)
	defer unlock()

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	// 1. Load the watch and its cursor
	watch, err := i.watches.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	// 2. Scan after the cursor
	scanned, err := i.scanner.Scan(ctx, chatID, watch.Cursor())
	if err != nil {
		i.metrics.ChatScanned("error")
		return nil, err
	}

	result := &Result{
		ChatID:      chatID,
		Scanned:     scanned.Scanned,
		Cursor:      watch.Cursor(),
		CursorFound: scanned.CursorFound,
	}
	if !scanned.HasProducts() {
		i.metrics.ChatScanned("empty")
		return result, nil
	}

	// 3. Persist the batch and the cursor together
	written, err := i.writer.Execute(ctx, &upsert_batch.Request{
		ChatID:         chatID,
		ExpectedCursor: watch.Cursor(),
		Batch:          scanned.Batch,
		NewCursor:      scanned.NewCursor,
	})
	if err != nil {
		i.metrics.ChatScanned("error")
		return nil, err
	}
	i.metrics.ChatScanned("persisted")
	i.metrics.ProductsIngested(written.Created, written.Updated)

	result.Created = written.Created
	result.Updated = written.Updated
	result.Cursor = scanned.NewCursor

	i.logger.Info("chat batch persisted",
		zap.String("chat_id", chatID),
		zap.String("shop", watch.ShopName),
		zap.Int("created", written.Created),
		zap.Int("updated", written.Updated),
		zap.String("cursor", scanned.NewCursor))

	// 4. Request a reconciliation run
	job, created, err := i.enqueuer.Enqueue(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to enqueue sync after chat %s: %w", chatID, err)
	}
	result.JobID = job.ID
	result.JobCreated = created

	return result, nil
}
