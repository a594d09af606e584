package upsert_batch

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/spanner"

	"github.com/light-bringer/chatsync-service/internal/app/product/contracts"
	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/pkg/committer"
)

// Request contains one scanned batch of a chat and the cursor move that goes with it.
type Request struct {
	ChatID string
	// ExpectedCursor is the cursor the scan started from; "" for a chat never scanned.
	ExpectedCursor string
	Batch          []*domain.ProductRecord
	NewCursor      string
}

// Result counts what the batch did to the product table.
type Result struct {
	Created int
	Updated int
}

// Interactor persists a batch of products and advances the chat cursor in one transaction.
type Interactor struct {
	repo      contracts.ProductRepository
	watchRepo contracts.ChatWatchRepository
	committer *committer.Committer
}

// NewInteractor creates a new upsert batch interactor.
func NewInteractor(
	repo contracts.ProductRepository,
	watchRepo contracts.ChatWatchRepository,
	committer *committer.Committer,
) *Interactor {
	return &Interactor{
		repo:      repo,
		watchRepo: watchRepo,
		committer: committer,
	}
}

// Execute writes every record of the batch and the new cursor, or nothing.
// Failures are returned as *domain.TransactionError.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*Result, error) {
	if err := i.validate(req); err != nil {
		return nil, err
	}

	batch := Dedupe(req.Batch)
	skus := make([]string, len(batch))
	for n, p := range batch {
		skus[n] = p.SKU
	}

	var result Result
	err := i.committer.ApplyPlanned(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) (*committer.CommitPlan, error) {
		result = Result{}

		cursor, err := i.watchRepo.CursorInTxn(ctx, txn, req.ChatID)
		if err != nil {
			return nil, err
		}
		if cursor != req.ExpectedCursor {
			return nil, fmt.Errorf("%w: expected %q, stored %q", domain.ErrCursorConflict, req.ExpectedCursor, cursor)
		}

		existing, err := i.repo.UpdatedAtBySKU(ctx, txn, skus)
		if err != nil {
			return nil, err
		}

		plan := committer.NewPlan()
		for _, p := range batch {
			_, exists := existing[p.SKU]
			muts, err := i.repo.UpsertMuts(p, exists)
			if err != nil {
				return nil, err
			}
			plan.AddMultiple(muts)

			if exists {
				result.Updated++
			} else {
				result.Created++
			}
		}

		plan.Add(i.watchRepo.AdvanceCursorMut(req.ChatID, req.NewCursor))
		return plan, nil
	})
	if err != nil {
		return nil, &domain.TransactionError{ChatID: req.ChatID, Err: err}
	}

	return &result, nil
}

// validate validates the request.
func (i *Interactor) validate(req *Request) error {
	if req.ChatID == "" {
		return errors.New("chat ID is required")
	}
	if len(req.Batch) == 0 {
		return domain.ErrNoBatch
	}
	if req.NewCursor == "" {
		return errors.New("new cursor is required")
	}
	for _, p := range req.Batch {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Dedupe keeps the last record of every sku, in the order those last records appear.
// A Spanner transaction cannot insert the same key twice.
func Dedupe(batch []*domain.ProductRecord) []*domain.ProductRecord {
	last := make(map[string]int, len(batch))
	for n, p := range batch {
		last[p.SKU] = n
	}

	out := make([]*domain.ProductRecord, 0, len(last))
	for n, p := range batch {
		if last[p.SKU] == n {
			out = append(out, p)
		}
	}
	return out
}
