package domain

import (
	"github.com/shopspring/decimal"
)

// TierDiscount is the per-unit amount off granted from MinQuantity units upward.
type TierDiscount struct {
	MinQuantity int64
	Amount      decimal.Decimal
}

// PricingCalculator derives listing prices and volume discounts from a record.
type PricingCalculator struct{}

// NewPricingCalculator creates a new PricingCalculator instance.
func NewPricingCalculator() *PricingCalculator {
	return &PricingCalculator{}
}

// BasePrice returns the price of the single-unit tier if the record has one,
// otherwise the record's PRECIO value.
func (pc *PricingCalculator) BasePrice(p *ProductRecord) decimal.Decimal {
	for _, v := range p.Variants {
		if v.MinQuantity == 1 {
			return v.Price
		}
	}
	return p.Price
}

// TierDiscounts returns one discount per tier priced differently from the base price.
// Tiers that would produce a non-positive amount are returned in skipped.
func (pc *PricingCalculator) TierDiscounts(p *ProductRecord) (discounts []TierDiscount, skipped []PriceVariant) {
	base := pc.BasePrice(p)
	for _, v := range p.Variants {
		if v.Price.Equal(base) {
			continue
		}
		amount := base.Sub(v.Price)
		if !amount.IsPositive() {
			skipped = append(skipped, v)
			continue
		}
		discounts = append(discounts, TierDiscount{
			MinQuantity: v.MinQuantity,
			Amount:      amount,
		})
	}
	return discounts, skipped
}
