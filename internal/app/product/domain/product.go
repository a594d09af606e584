package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnboundedQuantity stands in for "no upper limit" on a price tier.
const UnboundedQuantity int64 = 1000000

// ProductRecord is a product extracted from a catalog announcement.
// SKU is the identity key; re-extracting a SKU replaces the whole record,
// including images and variants.
type ProductRecord struct {
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	Categories  []string
	Sizes       []string
	Variants    []PriceVariant
	Images      []ImageAttachment

	SourceChatID    string
	SourceMessageID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	SyncedAt        *time.Time
}

// PriceVariant is a volume tier: buying between MinQuantity and MaxQuantity
// units costs Price per unit.
type PriceVariant struct {
	PriceLevel  string
	Price       decimal.Decimal
	MinQuantity int64
	MaxQuantity int64
}

// IsUnbounded reports whether the tier has no upper quantity limit.
func (v PriceVariant) IsUnbounded() bool {
	return v.MaxQuantity >= UnboundedQuantity
}

// ImageAttachment is a base64 encoded image owned by one product.
type ImageAttachment struct {
	MimeType string
	Data     string
}

// Validate checks the invariants required before a record is persisted.
func (p *ProductRecord) Validate() error {
	if strings.TrimSpace(p.SKU) == "" {
		return ErrEmptySKU
	}
	return nil
}

// HasImages reports whether at least one image was collected for the product.
func (p *ProductRecord) HasImages() bool {
	return len(p.Images) > 0
}

// IsSynced reports whether the record has been reconciled since it was last written.
func (p *ProductRecord) IsSynced() bool {
	return p.SyncedAt != nil
}

// CategoryTitles returns the product categories followed by the sentinel
// collection every synced listing belongs to. Duplicates are dropped.
func (p *ProductRecord) CategoryTitles(sentinel string) []string {
	seen := make(map[string]bool, len(p.Categories)+1)
	titles := make([]string, 0, len(p.Categories)+1)
	for _, c := range append(append([]string{}, p.Categories...), sentinel) {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		titles = append(titles, c)
	}
	return titles
}
