// Package job holds the bodies of sync jobs run by the scheduler.
package job

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/app/product/usecases/mark_synced"
	"github.com/light-bringer/chatsync-service/internal/app/sync/reconciler"
	"github.com/light-bringer/chatsync-service/internal/app/sync/scheduler"
	"github.com/light-bringer/chatsync-service/internal/catalog"
)

// ProductSource lists the products waiting for reconciliation.
type ProductSource interface {
	ListUnsynced(ctx context.Context) ([]*domain.ProductRecord, error)
}

// ShopSource lists the configured shops.
type ShopSource interface {
	List(ctx context.Context) ([]*domain.ShopCredential, error)
}

// Reconciler applies one product to one shop.
type Reconciler interface {
	Reconcile(ctx context.Context, session catalog.Session, p *domain.ProductRecord) (*reconciler.Outcome, error)
}

// SyncMarker stamps reconciled products.
type SyncMarker interface {
	Execute(ctx context.Context, req *mark_synced.Request) ([]string, error)
}

// SyncAll reconciles every unsynced product against every configured shop.
//
// Pairs run sequentially, product by product. A failing pair does not stop the
// run; the product stays unsynced and the run returns every failure joined. A
// product is stamped synced as soon as it succeeded on all shops, so an
// interrupted run keeps the progress it made.
type SyncAll struct {
	products   ProductSource
	shops      ShopSource
	connector  catalog.Connector
	reconciler Reconciler
	marker     SyncMarker
	logger     *zap.Logger
}

var _ scheduler.Handler = (*SyncAll)(nil)

// NewSyncAll creates the sync-all job body.
func NewSyncAll(products ProductSource, shops ShopSource, connector catalog.Connector, r Reconciler, marker SyncMarker, logger *zap.Logger) *SyncAll {
	return &SyncAll{
		products:   products,
		shops:      shops,
		connector:  connector,
		reconciler: r,
		marker:     marker,
		logger:     logger.Named("sync_all"),
	}
}

// shopSession is an opened shop. A nil session means opening failed.
type shopSession struct {
	name    string
	session catalog.Session
}

// Run implements scheduler.Handler.
func (j *SyncAll) Run(ctx context.Context, job *domain.SyncJob, progress scheduler.ProgressFunc) error {
	logger := j.logger.With(zap.String("job_id", job.ID))

	shops, err := j.shops.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list shops: %w", err)
	}
	if len(shops) == 0 {
		logger.Info("no shops to sync")
		return nil
	}

	products, err := j.products.ListUnsynced(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unsynced products: %w", err)
	}
	if len(products) == 0 {
		logger.Info("no products to sync")
		return nil
	}

	logger.Info("sync run started", zap.Int("shops", len(shops)), zap.Int("products", len(products)))

	var errs []error
	sessions := make([]shopSession, 0, len(shops))
	for _, shop := range shops {
		session, err := j.connector.Open(ctx, catalog.Credentials{
			ShopName:    shop.ShopName,
			APIKey:      shop.APIKey,
			AccessToken: shop.AccessToken,
		})
		if err != nil {
			logger.Error("failed to open catalog session", zap.String("shop", shop.ShopName), zap.Error(err))
			errs = append(errs, &domain.CatalogServiceError{Op: "open session " + shop.ShopName, Err: err})
			session = nil
		}
		sessions = append(sessions, shopSession{name: shop.ShopName, session: session})
	}

	var (
		total  = len(sessions) * len(products)
		done   = 0
		marked = 0
		failed = 0
	)

	for _, p := range products {
		ok := true
		for _, s := range sessions {
			if err := ctx.Err(); err != nil {
				logger.Warn("sync run interrupted", zap.Int("marked_synced", marked), zap.Error(err))
				return errors.Join(append(errs, err)...)
			}

			if s.session == nil {
				ok = false
			} else if _, err := j.reconciler.Reconcile(ctx, s.session, p); err != nil {
				logger.Warn("product reconciliation failed",
					zap.String("shop", s.name), zap.String("sku", p.SKU), zap.Error(err))
				errs = append(errs, fmt.Errorf("shop %s: %w", s.name, err))
				ok = false
			}

			done++
			progress(percent(done, total))
		}

		if !ok {
			failed++
			continue
		}

		// the remote side already changed, so the stamp outlives a cancelled run
		stamped, err := j.marker.Execute(context.WithoutCancel(ctx), &mark_synced.Request{Products: []*domain.ProductRecord{p}})
		if err != nil {
			logger.Error("failed to mark product synced", zap.String("sku", p.SKU), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		marked += len(stamped)
	}

	logger.Info("sync run finished",
		zap.Int("reconciled", len(products)-failed),
		zap.Int("marked_synced", marked),
		zap.Int("failed", failed),
		zap.Int("errors", len(errs)))

	return errors.Join(errs...)
}

func percent(done, total int) int64 {
	if total == 0 {
		return 100
	}
	return int64(done * 100 / total)
}
