// Package catalog is the boundary to the remote commerce catalog.
//
// The service talks to a shop through a Session opened by a Connector.
// Connectors register themselves by driver name, the way database/sql
// drivers do, and the configured driver is opened per shop:
//
//	session, err := catalog.Open(ctx, cfg.Catalog.Driver, creds)
package catalog

import (
	"context"
)

// Credentials identify and authorize a shop.
type Credentials struct {
	ShopName    string
	APIKey      string
	AccessToken string
}

// Session is the set of catalog operations reconciliation needs. Every call is
// a remote round trip.
type Session interface {
	FindListingsByType(ctx context.Context, productType string) ([]Listing, error)
	CreateListing(ctx context.Context, in ListingInput) (*Listing, error)
	UpdateListing(ctx context.Context, listingID string, in ListingInput) (*Listing, error)

	ListCollections(ctx context.Context) ([]Collection, error)
	CreateCollection(ctx context.Context, in CollectionInput) (*Collection, error)

	ListCollects(ctx context.Context, listingID string) ([]Collect, error)
	CreateCollect(ctx context.Context, listingID, collectionID string) (*Collect, error)
	DeleteCollect(ctx context.Context, collectID string) error

	ListAutomaticDiscounts(ctx context.Context) ([]AutomaticDiscount, error)
	CreateAutomaticDiscount(ctx context.Context, in DiscountInput) (*AutomaticDiscount, error)
	DeleteAutomaticDiscount(ctx context.Context, discountID string) error
}

// Connector opens sessions against one kind of backend.
type Connector interface {
	Open(ctx context.Context, creds Credentials) (Session, error)
}
