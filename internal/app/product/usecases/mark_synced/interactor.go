package mark_synced

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"

	"github.com/light-bringer/chatsync-service/internal/app/product/contracts"
	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/pkg/clock"
	"github.com/light-bringer/chatsync-service/internal/pkg/committer"
)

// Request lists the reconciled products as they were read before reconciliation.
type Request struct {
	Products []*domain.ProductRecord
}

// Interactor stamps synced_at on reconciled products.
type Interactor struct {
	repo      contracts.ProductRepository
	committer *committer.Committer
	clock     clock.Clock
}

// NewInteractor creates a new mark synced interactor.
func NewInteractor(repo contracts.ProductRepository, committer *committer.Committer, clock clock.Clock) *Interactor {
	return &Interactor{
		repo:      repo,
		committer: committer,
		clock:     clock,
	}
}

// Execute marks the products that were not rewritten since they were read.
// A product re-extracted while the sync ran keeps synced_at NULL and is picked
// up by the next run. It returns the skus that were marked.
func (i *Interactor) Execute(ctx context.Context, req *Request) ([]string, error) {
	if len(req.Products) == 0 {
		return nil, nil
	}

	skus := make([]string, len(req.Products))
	for n, p := range req.Products {
		skus[n] = p.SKU
	}
	now := i.clock.Now()

	var marked []string
	err := i.committer.ApplyPlanned(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) (*committer.CommitPlan, error) {
		marked = marked[:0]

		stored, err := i.repo.UpdatedAtBySKU(ctx, txn, skus)
		if err != nil {
			return nil, err
		}

		plan := committer.NewPlan()
		for _, p := range req.Products {
			updatedAt, ok := stored[p.SKU]
			if !ok || !updatedAt.Equal(p.UpdatedAt) {
				continue
			}
			plan.Add(i.repo.MarkSyncedMut(p.SKU, now))
			marked = append(marked, p.SKU)
		}
		return plan, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark products synced: %w", err)
	}

	return marked, nil
}

