// Package memcatalog is an in-memory catalog backend registered as the
// "memory" driver. State is kept per shop for the life of the process, so
// successive sessions of one shop see each other's writes.
package memcatalog

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/light-bringer/chatsync-service/internal/catalog"
)

// DriverName is the name memcatalog registers under.
const DriverName = "memory"

func init() {
	catalog.Register(DriverName, Default)
}

// Default is the connector behind the registered driver.
var Default = NewConnector()

// Connector hands out one Shop per shop name.
type Connector struct {
	mu    sync.Mutex
	shops map[string]*Shop
}

// NewConnector creates a connector with no shops.
func NewConnector() *Connector {
	return &Connector{shops: make(map[string]*Shop)}
}

// Open implements catalog.Connector.
func (c *Connector) Open(_ context.Context, creds catalog.Credentials) (catalog.Session, error) {
	if creds.APIKey == "" || creds.AccessToken == "" {
		return nil, catalog.ErrUnauthorized
	}
	return c.Shop(creds.ShopName), nil
}

// Shop returns the state of shopName, creating it on first use.
func (c *Connector) Shop(shopName string) *Shop {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.shops[shopName]
	if !ok {
		s = NewShop()
		c.shops[shopName] = s
	}
	return s
}

// Shop is the catalog of one shop. It implements catalog.Session.
type Shop struct {
	mu          sync.Mutex
	nextID      int64
	listings    map[string]*catalog.Listing
	collections map[string]*catalog.Collection
	collects    map[string]*catalog.Collect
	discounts   map[string]*catalog.AutomaticDiscount
	calls       map[string]int
	failures    map[string]error
}

// NewShop creates an empty shop.
func NewShop() *Shop {
	return &Shop{
		listings:    make(map[string]*catalog.Listing),
		collections: make(map[string]*catalog.Collection),
		collects:    make(map[string]*catalog.Collect),
		discounts:   make(map[string]*catalog.AutomaticDiscount),
		calls:       make(map[string]int),
		failures:    make(map[string]error),
	}
}

var _ catalog.Session = (*Shop)(nil)

// FailOn makes every call of op return err until cleared with a nil err.
func (s *Shop) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls returns how many times op was called.
func (s *Shop) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// ResetCalls clears the call counters.
func (s *Shop) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

// Listings returns a copy of every listing, ordered by id.
func (s *Shop) Listings() []catalog.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]catalog.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, copyListing(l))
	}
	sort.Slice(out, func(a, b int) bool { return idLess(out[a].ID, out[b].ID) })
	return out
}

// Discounts returns a copy of every automatic discount, ordered by id.
func (s *Shop) Discounts() []catalog.AutomaticDiscount {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]catalog.AutomaticDiscount, 0, len(s.discounts))
	for _, d := range s.discounts {
		out = append(out, copyDiscount(d))
	}
	sort.Slice(out, func(a, b int) bool { return idLess(out[a].ID, out[b].ID) })
	return out
}

// AddDiscount stores a discount as if created out of band.
func (s *Shop) AddDiscount(in catalog.DiscountInput) catalog.AutomaticDiscount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyDiscount(s.addDiscount(in))
}

// FindListingsByType implements catalog.Session.
func (s *Shop) FindListingsByType(_ context.Context, productType string) ([]catalog.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FindListingsByType"); err != nil {
		return nil, err
	}

	var out []catalog.Listing
	for _, l := range s.listings {
		if l.ProductType == productType {
			out = append(out, copyListing(l))
		}
	}
	sort.Slice(out, func(a, b int) bool { return idLess(out[a].ID, out[b].ID) })
	return out, nil
}

// CreateListing implements catalog.Session.
func (s *Shop) CreateListing(_ context.Context, in catalog.ListingInput) (*catalog.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateListing"); err != nil {
		return nil, err
	}

	l := &catalog.Listing{ID: s.newID()}
	s.apply(l, in)
	s.listings[l.ID] = l
	out := copyListing(l)
	return &out, nil
}

// UpdateListing implements catalog.Session.
func (s *Shop) UpdateListing(_ context.Context, listingID string, in catalog.ListingInput) (*catalog.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateListing"); err != nil {
		return nil, err
	}

	l, ok := s.listings[listingID]
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", listingID, catalog.ErrNotFound)
	}
	s.apply(l, in)
	out := copyListing(l)
	return &out, nil
}

// ListCollections implements catalog.Session.
func (s *Shop) ListCollections(_ context.Context) ([]catalog.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListCollections"); err != nil {
		return nil, err
	}

	out := make([]catalog.Collection, 0, len(s.collections))
	for _, c := range s.collections {
		out = append(out, *c)
	}
	sort.Slice(out, func(a, b int) bool { return idLess(out[a].ID, out[b].ID) })
	return out, nil
}

// CreateCollection implements catalog.Session.
func (s *Shop) CreateCollection(_ context.Context, in catalog.CollectionInput) (*catalog.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateCollection"); err != nil {
		return nil, err
	}

	c := &catalog.Collection{ID: s.newID(), Title: in.Title, BodyHTML: in.BodyHTML, Published: in.Published}
	s.collections[c.ID] = c
	out := *c
	return &out, nil
}

// ListCollects implements catalog.Session.
func (s *Shop) ListCollects(_ context.Context, listingID string) ([]catalog.Collect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListCollects"); err != nil {
		return nil, err
	}

	var out []catalog.Collect
	for _, c := range s.collects {
		if c.ListingID == listingID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return idLess(out[a].ID, out[b].ID) })
	return out, nil
}

// CreateCollect implements catalog.Session.
func (s *Shop) CreateCollect(_ context.Context, listingID, collectionID string) (*catalog.Collect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateCollect"); err != nil {
		return nil, err
	}

	if _, ok := s.listings[listingID]; !ok {
		return nil, fmt.Errorf("listing %s: %w", listingID, catalog.ErrNotFound)
	}
	if _, ok := s.collections[collectionID]; !ok {
		return nil, fmt.Errorf("collection %s: %w", collectionID, catalog.ErrNotFound)
	}

	c := &catalog.Collect{ID: s.newID(), ListingID: listingID, CollectionID: collectionID}
	s.collects[c.ID] = c
	out := *c
	return &out, nil
}

// DeleteCollect implements catalog.Session.
func (s *Shop) DeleteCollect(_ context.Context, collectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteCollect"); err != nil {
		return err
	}

	if _, ok := s.collects[collectID]; !ok {
		return fmt.Errorf("collect %s: %w", collectID, catalog.ErrNotFound)
	}
	delete(s.collects, collectID)
	return nil
}

// ListAutomaticDiscounts implements catalog.Session.
func (s *Shop) ListAutomaticDiscounts(_ context.Context) ([]catalog.AutomaticDiscount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListAutomaticDiscounts"); err != nil {
		return nil, err
	}

	out := make([]catalog.AutomaticDiscount, 0, len(s.discounts))
	for _, d := range s.discounts {
		out = append(out, copyDiscount(d))
	}
	sort.Slice(out, func(a, b int) bool { return idLess(out[a].ID, out[b].ID) })
	return out, nil
}

// CreateAutomaticDiscount implements catalog.Session.
func (s *Shop) CreateAutomaticDiscount(_ context.Context, in catalog.DiscountInput) (*catalog.AutomaticDiscount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateAutomaticDiscount"); err != nil {
		return nil, err
	}

	out := copyDiscount(s.addDiscount(in))
	return &out, nil
}

// DeleteAutomaticDiscount implements catalog.Session.
func (s *Shop) DeleteAutomaticDiscount(_ context.Context, discountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteAutomaticDiscount"); err != nil {
		return err
	}

	if _, ok := s.discounts[discountID]; !ok {
		return fmt.Errorf("discount %s: %w", discountID, catalog.ErrNotFound)
	}
	delete(s.discounts, discountID)
	return nil
}

// enter counts a call and returns the injected failure for op. Callers hold mu.
func (s *Shop) enter(op string) error {
	s.calls[op]++
	return s.failures[op]
}

func (s *Shop) newID() string {
	s.nextID++
	return strconv.FormatInt(s.nextID, 10)
}

func (s *Shop) apply(l *catalog.Listing, in catalog.ListingInput) {
	l.Title = in.Title
	l.BodyHTML = in.BodyHTML
	l.ProductType = in.ProductType
	l.Options = append([]catalog.Option(nil), in.Options...)

	// images and variants are replaced and get fresh ids
	l.Images = make([]catalog.Image, len(in.Images))
	for i, img := range in.Images {
		img.ID = s.newID()
		l.Images[i] = img
	}
	l.Variants = make([]catalog.Variant, len(in.Variants))
	for i, v := range in.Variants {
		v.ID = s.newID()
		l.Variants[i] = v
	}
}

func (s *Shop) addDiscount(in catalog.DiscountInput) *catalog.AutomaticDiscount {
	d := &catalog.AutomaticDiscount{
		ID:                  "gid://shopify/DiscountAutomaticNode/" + s.newID(),
		Title:               in.Title,
		ListingGIDs:         append([]string(nil), in.ListingGIDs...),
		MinQuantity:         in.MinQuantity,
		Amount:              in.Amount,
		AppliesOnEachItem:   in.AppliesOnEachItem,
		StartsAt:            in.StartsAt,
		RecurringCycleLimit: in.RecurringCycleLimit,
		CombinesWith:        in.CombinesWith,
	}
	s.discounts[d.ID] = d
	return d
}

func copyListing(l *catalog.Listing) catalog.Listing {
	out := *l
	out.Images = append([]catalog.Image(nil), l.Images...)
	out.Options = append([]catalog.Option(nil), l.Options...)
	out.Variants = append([]catalog.Variant(nil), l.Variants...)
	return out
}

func copyDiscount(d *catalog.AutomaticDiscount) catalog.AutomaticDiscount {
	out := *d
	out.ListingGIDs = append([]string(nil), d.ListingGIDs...)
	return out
}

// idLess orders ids numerically by their trailing counter.
func idLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
