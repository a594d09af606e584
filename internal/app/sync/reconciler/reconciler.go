// Package reconciler makes one shop's remote catalog match a stored product:
// the listing, its category collections and its volume discounts.
//
// Remote state is never trusted between runs. Every call re-derives the
// desired state from the product and applies only the difference with what
// the shop currently reports.
package reconciler

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/catalog"
	"github.com/light-bringer/chatsync-service/internal/pkg/clock"
	"github.com/light-bringer/chatsync-service/internal/pkg/metrics"
)

const (
	// SentinelCategory is the collection every synced listing joins.
	SentinelCategory = "Whatsapp Sync"

	sizeOptionName      = "Talla"
	inventoryQuantity   = 100
	recurringCycleLimit = 1000
)

// Outcome summarizes what one reconciliation changed remotely.
type Outcome struct {
	ListingID        string
	Created          bool
	CollectsCreated  int
	CollectsDeleted  int
	DiscountsCreated int
	DiscountsDeleted int
}

// Reconciler applies products to catalog sessions.
type Reconciler struct {
	pricing *domain.PricingCalculator
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates a Reconciler.
func New(clock clock.Clock, m *metrics.Metrics, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		pricing: domain.NewPricingCalculator(),
		clock:   clock,
		metrics: m,
		logger:  logger.Named("reconciler"),
	}
}

// Reconcile creates or updates the listing for p in session, then brings its
// collection memberships and automatic discounts in line with p.
// A product without images fails with *domain.MissingImagesError before any
// remote call. Remote failures are returned as *domain.CatalogServiceError.
func (r *Reconciler) Reconcile(ctx context.Context, session catalog.Session, p *domain.ProductRecord) (*Outcome, error) {
	outcome, err := r.reconcile(ctx, session, p)
	switch {
	case err == nil && outcome.Created:
		r.metrics.Reconciled("created")
	case err == nil:
		r.metrics.Reconciled("updated")
	case errors.Is(err, domain.ErrMissingImages):
		r.metrics.Reconciled("missing_images")
	default:
		r.metrics.Reconciled("error")
	}
	return outcome, err
}

func (r *Reconciler) reconcile(ctx context.Context, session catalog.Session, p *domain.ProductRecord) (*Outcome, error) {
	if !p.HasImages() {
		return nil, &domain.MissingImagesError{SKU: p.SKU}
	}

	logger := r.logger.With(zap.String("sku", p.SKU))

	collectionIDs, err := r.resolveCollections(ctx, session, p)
	if err != nil {
		return nil, err
	}

	input := r.listingInput(p)

	existing, err := session.FindListingsByType(ctx, p.SKU)
	if err != nil {
		return nil, serviceErr("find listing", p.SKU, err)
	}

	outcome := &Outcome{}
	var listing *catalog.Listing
	if len(existing) == 0 {
		listing, err = session.CreateListing(ctx, input)
		if err != nil {
			return nil, serviceErr("create listing", p.SKU, err)
		}
		outcome.Created = true
	} else {
		if len(existing) > 1 {
			logger.Warn("several listings share the sku lookup key, updating the first",
				zap.Int("count", len(existing)))
		}
		listing, err = session.UpdateListing(ctx, existing[0].ID, input)
		if err != nil {
			return nil, serviceErr("update listing", p.SKU, err)
		}
	}
	outcome.ListingID = listing.ID

	if err := r.syncCollects(ctx, session, p.SKU, listing.ID, collectionIDs, outcome); err != nil {
		return outcome, err
	}

	if err := r.syncDiscounts(ctx, session, p, listing.ID, outcome, logger); err != nil {
		return outcome, err
	}

	logger.Info("product reconciled",
		zap.String("listing_id", listing.ID),
		zap.Bool("created", outcome.Created),
		zap.Int("collects_created", outcome.CollectsCreated),
		zap.Int("collects_deleted", outcome.CollectsDeleted),
		zap.Int("discounts_created", outcome.DiscountsCreated),
		zap.Int("discounts_deleted", outcome.DiscountsDeleted))

	return outcome, nil
}

// resolveCollections returns the ids of the collections named by the product
// categories plus the sentinel, creating the missing ones.
func (r *Reconciler) resolveCollections(ctx context.Context, session catalog.Session, p *domain.ProductRecord) ([]string, error) {
	collections, err := session.ListCollections(ctx)
	if err != nil {
		return nil, serviceErr("list collections", p.SKU, err)
	}

	byTitle := make(map[string]string, len(collections))
	for _, c := range collections {
		if _, ok := byTitle[c.Title]; !ok {
			byTitle[c.Title] = c.ID
		}
	}

	titles := p.CategoryTitles(SentinelCategory)
	ids := make([]string, 0, len(titles))
	for _, title := range titles {
		if id, ok := byTitle[title]; ok {
			ids = append(ids, id)
			continue
		}

		created, err := session.CreateCollection(ctx, catalog.CollectionInput{
			Title:     title,
			BodyHTML:  "Colección generada para la categoría " + title,
			Published: true,
		})
		if err != nil {
			return nil, serviceErr("create collection", p.SKU, err)
		}
		byTitle[title] = created.ID
		ids = append(ids, created.ID)
	}
	return ids, nil
}

func (r *Reconciler) syncCollects(ctx context.Context, session catalog.Session, sku, listingID string, collectionIDs []string, outcome *Outcome) error {
	var observed []catalog.Collect
	if !outcome.Created {
		var err error
		observed, err = session.ListCollects(ctx, listingID)
		if err != nil {
			return serviceErr("list collects", sku, err)
		}
	}

	missing, extra := Diff(collectionIDs, observed, func(c catalog.Collect) string { return c.CollectionID })

	for _, c := range extra {
		if err := session.DeleteCollect(ctx, c.ID); err != nil {
			return serviceErr("delete collect", sku, err)
		}
		outcome.CollectsDeleted++
	}
	for _, collectionID := range missing {
		if _, err := session.CreateCollect(ctx, listingID, collectionID); err != nil {
			return serviceErr("create collect", sku, err)
		}
		outcome.CollectsCreated++
	}
	return nil
}

// discountKey identifies a volume discount by what it grants.
type discountKey struct {
	minQuantity int64
	amount      string
}

func keyOf(minQuantity int64, amount decimal.Decimal) discountKey {
	return discountKey{minQuantity: minQuantity, amount: amount.String()}
}

func (r *Reconciler) syncDiscounts(ctx context.Context, session catalog.Session, p *domain.ProductRecord, listingID string, outcome *Outcome, logger *zap.Logger) error {
	tiers, skipped := r.pricing.TierDiscounts(p)
	for _, v := range skipped {
		logger.Warn("skipping tier priced above base price",
			zap.String("price_level", v.PriceLevel),
			zap.String("price", v.Price.String()),
			zap.Int64("min_quantity", v.MinQuantity))
	}

	amounts := make(map[discountKey]decimal.Decimal, len(tiers))
	desired := make([]discountKey, 0, len(tiers))
	for _, t := range tiers {
		k := keyOf(t.MinQuantity, t.Amount)
		amounts[k] = t.Amount
		desired = append(desired, k)
	}

	gid := catalog.ListingGID(listingID)

	var observed []catalog.AutomaticDiscount
	if !outcome.Created {
		all, err := session.ListAutomaticDiscounts(ctx)
		if err != nil {
			return serviceErr("list discounts", p.SKU, err)
		}
		for _, d := range all {
			if d.Targets(gid) {
				observed = append(observed, d)
			}
		}
	}

	missing, extra := Diff(desired, observed, func(d catalog.AutomaticDiscount) discountKey {
		return keyOf(d.MinQuantity, d.Amount)
	})

	for _, d := range extra {
		if err := session.DeleteAutomaticDiscount(ctx, d.ID); err != nil {
			return serviceErr("delete discount", p.SKU, err)
		}
		outcome.DiscountsDeleted++
	}

	now := r.clock.Now()
	for _, k := range missing {
		amount := amounts[k]
		_, err := session.CreateAutomaticDiscount(ctx, catalog.DiscountInput{
			Title:               fmt.Sprintf("Descuento -$%s para %s", domain.FormatAmount(amount), p.SKU),
			ListingGIDs:         []string{gid},
			MinQuantity:         k.minQuantity,
			Amount:              amount,
			AppliesOnEachItem:   true,
			StartsAt:            now,
			RecurringCycleLimit: recurringCycleLimit,
			CombinesWith: catalog.CombinesWith{
				OrderDiscounts:    true,
				ProductDiscounts:  true,
				ShippingDiscounts: true,
			},
		})
		if err != nil {
			return serviceErr("create discount", p.SKU, err)
		}
		outcome.DiscountsCreated++
	}
	return nil
}

// listingInput builds the full desired listing for p.
func (r *Reconciler) listingInput(p *domain.ProductRecord) catalog.ListingInput {
	price := r.pricing.BasePrice(p)

	in := catalog.ListingInput{
		Title:       p.Name,
		BodyHTML:    p.Description,
		ProductType: p.SKU,
		Images:      make([]catalog.Image, 0, len(p.Images)),
	}
	for _, img := range p.Images {
		in.Images = append(in.Images, catalog.Image{Attachment: img.Data})
	}

	if len(p.Sizes) == 0 {
		in.Variants = []catalog.Variant{{
			SKU:               p.SKU,
			Price:             price,
			InventoryQuantity: inventoryQuantity,
		}}
		return in
	}

	in.Options = []catalog.Option{{Name: sizeOptionName, Values: append([]string(nil), p.Sizes...)}}
	in.Variants = make([]catalog.Variant, 0, len(p.Sizes))
	for _, size := range p.Sizes {
		in.Variants = append(in.Variants, catalog.Variant{
			SKU:               p.SKU + "-" + size,
			Option1:           size,
			Price:             price,
			InventoryQuantity: inventoryQuantity,
		})
	}
	return in
}

func serviceErr(op, sku string, err error) error {
	return &domain.CatalogServiceError{Op: op, SKU: sku, Err: err}
}
