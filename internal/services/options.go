package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/light-bringer/chatsync-service/internal/app/ingest/scan"
	"github.com/light-bringer/chatsync-service/internal/app/product/queries/get_job"
	"github.com/light-bringer/chatsync-service/internal/app/product/queries/list_jobs"
	"github.com/light-bringer/chatsync-service/internal/app/product/queries/list_products"
	"github.com/light-bringer/chatsync-service/internal/app/product/repo"
	"github.com/light-bringer/chatsync-service/internal/app/product/usecases/configure_shop"
	"github.com/light-bringer/chatsync-service/internal/app/product/usecases/handle_message"
	"github.com/light-bringer/chatsync-service/internal/app/product/usecases/mark_synced"
	"github.com/light-bringer/chatsync-service/internal/app/product/usecases/process_chat"
	"github.com/light-bringer/chatsync-service/internal/app/product/usecases/upsert_batch"
	"github.com/light-bringer/chatsync-service/internal/app/sync/job"
	"github.com/light-bringer/chatsync-service/internal/app/sync/reconciler"
	"github.com/light-bringer/chatsync-service/internal/app/sync/scheduler"
	"github.com/light-bringer/chatsync-service/internal/catalog"
	_ "github.com/light-bringer/chatsync-service/internal/catalog/memcatalog"
	"github.com/light-bringer/chatsync-service/internal/chat"
	"github.com/light-bringer/chatsync-service/internal/chat/transcript"
	"github.com/light-bringer/chatsync-service/internal/config"
	"github.com/light-bringer/chatsync-service/internal/pkg/clock"
	"github.com/light-bringer/chatsync-service/internal/pkg/committer"
	"github.com/light-bringer/chatsync-service/internal/pkg/keymutex"
	"github.com/light-bringer/chatsync-service/internal/pkg/metrics"
	httptransport "github.com/light-bringer/chatsync-service/internal/transport/http"
	"github.com/light-bringer/chatsync-service/internal/transport/kafka"
)

// ServiceOptions holds all dependencies for the application.
type ServiceOptions struct {
	SpannerClient  *spanner.Client
	Scheduler      *scheduler.Scheduler
	Subscriber     chat.Subscriber
	MessageHandler chat.Handler
	Server         *echo.Echo
}

// NewServiceOptions creates and wires up all application dependencies.
func NewServiceOptions(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*ServiceOptions, error) {
	// 1. Initialize Spanner client
	spannerClient, err := spanner.NewClient(ctx, cfg.Spanner.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spanner client: %w", err)
	}

	// 2. Create infrastructure components
	clk := clock.NewRealClock()
	comm := committer.NewCommitter(spannerClient)
	locks := keymutex.New()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	connector, err := catalog.Driver(cfg.Catalog.Driver)
	if err != nil {
		spannerClient.Close()
		return nil, err
	}
	connector = catalog.RateLimitedConnector(connector, cfg.Catalog.RPS, cfg.Catalog.Burst)

	// 3. Create repositories
	productRepo := repo.NewProductRepo(spannerClient)
	shopRepo := repo.NewShopRepo(spannerClient)
	watchRepo := repo.NewChatWatchRepo(spannerClient)
	jobRepo := repo.NewSyncJobRepo(spannerClient)
	readModel := repo.NewReadModel(spannerClient)
	store := transcript.NewStore(spannerClient)

	policy, err := scan.ParseCursorPolicy(cfg.Ingest.CursorPolicy)
	if err != nil {
		spannerClient.Close()
		return nil, err
	}
	scanner := scan.NewScanner(store, scan.Config{
		Window:              cfg.Ingest.Window,
		Policy:              policy,
		DownloadConcurrency: cfg.Ingest.MediaConcurrency,
	}, logger)

	// 4. Create the sync worker
	markSyncedUseCase := mark_synced.NewInteractor(productRepo, comm, clk)
	syncAll := job.NewSyncAll(productRepo, shopRepo, connector, reconciler.New(clk, m, logger), markSyncedUseCase, logger)
	sched := scheduler.New(jobRepo, syncAll, clk, scheduler.Config{
		PollInterval:      cfg.Sync.PollInterval,
		HeartbeatInterval: cfg.Sync.HeartbeatInterval,
		StallTimeout:      cfg.Sync.StallTimeout,
		JobTimeout:        cfg.Sync.JobTimeout,
		MaxAttempts:       cfg.Sync.MaxAttempts,
	}, logger, scheduler.LogListener(logger), scheduler.MetricsListener(m))

	// 5. Create command use cases (write operations)
	upsertBatchUseCase := upsert_batch.NewInteractor(productRepo, watchRepo, comm)
	processChatUseCase := process_chat.NewInteractor(watchRepo, scanner, upsertBatchUseCase, sched, locks, cfg.Ingest.Timeout, m, logger)
	configureShopUseCase := configure_shop.NewInteractor(shopRepo, watchRepo, store, processChatUseCase, comm, logger)
	handleMessageUseCase := handle_message.NewInteractor(store, processChatUseCase, logger)

	// 6. Create query use cases (read operations)
	listJobsQuery := list_jobs.NewQuery(readModel)
	getJobQuery := get_job.NewQuery(jobRepo)
	listProductsQuery := list_products.NewQuery(readModel)

	// 7. Create transports
	handler := httptransport.NewHandler(
		configureShopUseCase,
		processChatUseCase,
		sched,
		listJobsQuery,
		getJobQuery,
		listProductsQuery,
		logger,
	)

	return &ServiceOptions{
		SpannerClient:  spannerClient,
		Scheduler:      sched,
		Subscriber:     kafka.NewConsumer(cfg.Kafka, cfg.Ingest.Timeout, m, logger),
		MessageHandler: func(ctx context.Context, msg chat.InboundMessage) error {
			_, err := handleMessageUseCase.Execute(ctx, msg)
			return err
		},
		Server:         httptransport.NewServer(handler, reg, reg, logger),
	}, nil
}

// Close closes all resources.
func (s *ServiceOptions) Close() {
	if s.SpannerClient != nil {
		s.SpannerClient.Close()
	}
}
