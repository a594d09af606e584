package catalog

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// rateLimitedSession waits on a limiter before every remote call.
type rateLimitedSession struct {
	next    Session
	limiter *rate.Limiter
}

// RateLimited wraps s so that calls never exceed limiter.
func RateLimited(s Session, limiter *rate.Limiter) Session {
	return &rateLimitedSession{next: s, limiter: limiter}
}

// RateLimitedConnector wraps every session opened by c with a limiter shared
// by all sessions of the same shop. A non-positive rps disables limiting.
func RateLimitedConnector(c Connector, rps float64, burst int) Connector {
	if rps <= 0 {
		return c
	}
	if burst < 1 {
		burst = 1
	}

	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	return ConnectorFunc(func(ctx context.Context, creds Credentials) (Session, error) {
		s, err := c.Open(ctx, creds)
		if err != nil {
			return nil, err
		}

		mu.Lock()
		l, ok := limiters[creds.ShopName]
		if !ok {
			l = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[creds.ShopName] = l
		}
		mu.Unlock()

		return RateLimited(s, l), nil
	})
}

func (r *rateLimitedSession) FindListingsByType(ctx context.Context, productType string) ([]Listing, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.FindListingsByType(ctx, productType)
}

func (r *rateLimitedSession) CreateListing(ctx context.Context, in ListingInput) (*Listing, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.CreateListing(ctx, in)
}

func (r *rateLimitedSession) UpdateListing(ctx context.Context, listingID string, in ListingInput) (*Listing, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.UpdateListing(ctx, listingID, in)
}

func (r *rateLimitedSession) ListCollections(ctx context.Context) ([]Collection, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.ListCollections(ctx)
}

func (r *rateLimitedSession) CreateCollection(ctx context.Context, in CollectionInput) (*Collection, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.CreateCollection(ctx, in)
}

func (r *rateLimitedSession) ListCollects(ctx context.Context, listingID string) ([]Collect, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.ListCollects(ctx, listingID)
}

func (r *rateLimitedSession) CreateCollect(ctx context.Context, listingID, collectionID string) (*Collect, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.CreateCollect(ctx, listingID, collectionID)
}

func (r *rateLimitedSession) DeleteCollect(ctx context.Context, collectID string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	return r.next.DeleteCollect(ctx, collectID)
}

func (r *rateLimitedSession) ListAutomaticDiscounts(ctx context.Context) ([]AutomaticDiscount, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.ListAutomaticDiscounts(ctx)
}

func (r *rateLimitedSession) CreateAutomaticDiscount(ctx context.Context, in DiscountInput) (*AutomaticDiscount, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.CreateAutomaticDiscount(ctx, in)
}

func (r *rateLimitedSession) DeleteAutomaticDiscount(ctx context.Context, discountID string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	return r.next.DeleteAutomaticDiscount(ctx, discountID)
}
