package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const listingGIDPrefix = "gid://shopify/Product/"

// ListingGID returns the global id discounts use to target a listing.
func ListingGID(listingID string) string {
	if strings.HasPrefix(listingID, listingGIDPrefix) {
		return listingID
	}
	return listingGIDPrefix + listingID
}

// Image is a listing image uploaded as a base64 attachment.
type Image struct {
	ID         string
	Attachment string
}

// Option is a variant axis of a listing, such as size.
type Option struct {
	Name   string
	Values []string
}

// Variant is one sellable unit of a listing.
type Variant struct {
	ID                string
	SKU               string
	Option1           string
	Price             decimal.Decimal
	InventoryQuantity int64
}

// Listing is a remote product.
type Listing struct {
	ID          string
	Title       string
	BodyHTML    string
	ProductType string
	Images      []Image
	Options     []Option
	Variants    []Variant
}

// ListingInput is the full desired state of a listing on create or update.
type ListingInput struct {
	Title       string
	BodyHTML    string
	ProductType string
	Images      []Image
	Options     []Option
	Variants    []Variant
}

// Collection is a remote grouping of listings.
type Collection struct {
	ID        string
	Title     string
	BodyHTML  string
	Published bool
}

// CollectionInput creates a collection.
type CollectionInput struct {
	Title     string
	BodyHTML  string
	Published bool
}

// Collect is the membership of a listing in a collection.
type Collect struct {
	ID           string
	ListingID    string
	CollectionID string
}

// CombinesWith lists the discount classes an automatic discount stacks with.
type CombinesWith struct {
	OrderDiscounts    bool
	ProductDiscounts  bool
	ShippingDiscounts bool
}

// AutomaticDiscount is a remote discount applied without a code.
type AutomaticDiscount struct {
	ID                  string
	Title               string
	ListingGIDs         []string
	MinQuantity         int64
	Amount              decimal.Decimal
	AppliesOnEachItem   bool
	StartsAt            time.Time
	RecurringCycleLimit int64
	CombinesWith        CombinesWith
}

// Targets reports whether the discount applies to the listing with gid.
func (d *AutomaticDiscount) Targets(gid string) bool {
	for _, g := range d.ListingGIDs {
		if g == gid {
			return true
		}
	}
	return false
}

// DiscountInput creates an amount-off automatic discount.
type DiscountInput struct {
	Title               string
	ListingGIDs         []string
	MinQuantity         int64
	Amount              decimal.Decimal
	AppliesOnEachItem   bool
	StartsAt            time.Time
	RecurringCycleLimit int64
	CombinesWith        CombinesWith
}
