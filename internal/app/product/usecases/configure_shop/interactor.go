package configure_shop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/spanner"
	"go.uber.org/zap"

	"github.com/light-bringer/chatsync-service/internal/app/product/contracts"
	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/app/product/usecases/process_chat"
	"github.com/light-bringer/chatsync-service/internal/chat"
	"github.com/light-bringer/chatsync-service/internal/pkg/committer"
)

// Request is the full configuration of one shop. ChatIDs replaces the set of
// chats watched for the shop.
type Request struct {
	ShopName    string
	APIKey      string
	AccessToken string
	ChatIDs     []string
}

// Result reports how the watched set changed and what the first scans found.
type Result struct {
	ShopCreated bool
	Added       []string
	Kept        []string
	Removed     []string
	Processed   []*process_chat.Result
}

// ChatDirectory resolves chat ids to chats.
type ChatDirectory interface {
	GetChat(ctx context.Context, chatID string) (*chat.Chat, error)
}

// ChatProcessor runs one processing pass over a watched chat.
type ChatProcessor interface {
	Execute(ctx context.Context, chatID string) (*process_chat.Result, error)
}

// Interactor handles the configure shop use case.
type Interactor struct {
	shopRepo  contracts.ShopRepository
	watchRepo contracts.ChatWatchRepository
	chats     ChatDirectory
	processor ChatProcessor
	committer *committer.Committer
	logger    *zap.Logger
}

// NewInteractor creates a new configure shop interactor.
func NewInteractor(
	shopRepo contracts.ShopRepository,
	watchRepo contracts.ChatWatchRepository,
	chats ChatDirectory,
	processor ChatProcessor,
	committer *committer.Committer,
	logger *zap.Logger,
) *Interactor {
	return &Interactor{
		shopRepo:  shopRepo,
		watchRepo: watchRepo,
		chats:     chats,
		processor: processor,
		committer: committer,
		logger:    logger.Named("configure_shop"),
	}
}

// Execute saves the credential and the watched set in one transaction, then
// processes every watched chat. Cursors of chats that stay watched are kept.
// Processing errors are joined and returned with the result; the configuration
// is committed regardless.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*Result, error) {
	shop := &domain.ShopCredential{
		ShopName:    strings.TrimSpace(req.ShopName),
		APIKey:      req.APIKey,
		AccessToken: req.AccessToken,
	}
	if err := shop.Validate(); err != nil {
		return nil, err
	}
	chatIDs := normalizeIDs(req.ChatIDs)

	// 1. Resolve chats before touching the store
	names := make(map[string]string, len(chatIDs))
	for _, id := range chatIDs {
		c, err := i.chats.GetChat(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve chat %s: %w", id, err)
		}
		names[id] = c.Name
	}

	// 2. Save credential and watched set
	var result Result
	err := i.committer.ApplyPlanned(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) (*committer.CommitPlan, error) {
		result = Result{}

		exists, err := i.shopRepo.ExistsInTxn(ctx, txn, shop.ShopName)
		if err != nil {
			return nil, err
		}
		current, err := i.watchRepo.ListByShopInTxn(ctx, txn, shop.ShopName)
		if err != nil {
			return nil, err
		}
		existing, err := i.watchRepo.GetManyInTxn(ctx, txn, chatIDs)
		if err != nil {
			return nil, err
		}

		plan := committer.NewPlan()
		plan.Add(i.shopRepo.SaveMut(shop, exists))
		result.ShopCreated = !exists

		wanted := make(map[string]bool, len(chatIDs))
		for _, id := range chatIDs {
			wanted[id] = true
			w := &domain.ChatWatch{ChatID: id, ShopName: shop.ShopName, ChatName: names[id]}
			if _, ok := existing[id]; ok {
				// a chat moved from another shop keeps its cursor too
				plan.Add(i.watchRepo.RenameMut(w))
				result.Kept = append(result.Kept, id)
			} else {
				plan.Add(i.watchRepo.InsertMut(w))
				result.Added = append(result.Added, id)
			}
		}
		for _, w := range current {
			if !wanted[w.ChatID] {
				plan.Add(i.watchRepo.DeleteMut(w.ChatID))
				result.Removed = append(result.Removed, w.ChatID)
			}
		}
		return plan, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save shop %s: %w", shop.ShopName, err)
	}

	i.logger.Info("shop configured",
		zap.String("shop", shop.ShopName),
		zap.Bool("created", result.ShopCreated),
		zap.Strings("added", result.Added),
		zap.Strings("kept", result.Kept),
		zap.Strings("removed", result.Removed))

	// 3. Process the watched chats
	var errs []error
	for _, id := range chatIDs {
		processed, err := i.processor.Execute(ctx, id)
		if processed != nil {
			result.Processed = append(result.Processed, processed)
		}
		if err != nil {
			i.logger.Warn("initial chat processing failed", zap.String("chat_id", id), zap.Error(err))
			errs = append(errs, fmt.Errorf("chat %s: %w", id, err))
		}
	}

	return &result, errors.Join(errs...)
}

// normalizeIDs trims ids and drops empty and repeated ones, keeping order.
func normalizeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
