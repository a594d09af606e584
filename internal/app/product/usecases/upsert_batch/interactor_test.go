package upsert_batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
)

func TestDedupe(t *testing.T) {
	t.Run("last record of a sku wins", func(t *testing.T) {
		batch := []*domain.ProductRecord{
			{SKU: "A", Name: "first"},
			{SKU: "B", Name: "only"},
			{SKU: "A", Name: "second"},
		}

		out := Dedupe(batch)

		require.Len(t, out, 2)
		assert.Equal(t, "B", out[0].SKU)
		assert.Equal(t, "A", out[1].SKU)
		assert.Equal(t, "second", out[1].Name)
	})

	t.Run("batch without duplicates is unchanged", func(t *testing.T) {
		batch := []*domain.ProductRecord{{SKU: "A"}, {SKU: "B"}, {SKU: "C"}}
		assert.Equal(t, batch, Dedupe(batch))
	})
}

func TestInteractor_Validate(t *testing.T) {
	i := NewInteractor(nil, nil, nil)

	t.Run("empty batch", func(t *testing.T) {
		_, err := i.Execute(t.Context(), &Request{ChatID: "c1", NewCursor: "m1"})
		assert.ErrorIs(t, err, domain.ErrNoBatch)
	})

	t.Run("record without sku", func(t *testing.T) {
		_, err := i.Execute(t.Context(), &Request{
			ChatID:    "c1",
			NewCursor: "m1",
			Batch:     []*domain.ProductRecord{{Name: "x"}},
		})
		assert.ErrorIs(t, err, domain.ErrEmptySKU)
	})

	t.Run("missing cursor", func(t *testing.T) {
		_, err := i.Execute(t.Context(), &Request{
			ChatID: "c1",
			Batch:  []*domain.ProductRecord{{SKU: "A"}},
		})
		assert.Error(t, err)
	})
}
