package testutil

import (
	"context"
	"testing"

	"cloud.google.com/go/spanner"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/models/m_chat_watch"
	"github.com/light-bringer/chatsync-service/internal/models/m_shop"
)

// CreateTestShop stores a shop credential directly in the database.
func CreateTestShop(t *testing.T, client *spanner.Client, shopName string) {
	t.Helper()

	mutation := m_shop.NewModel().InsertMut(&m_shop.Data{
		ShopName:    shopName,
		APIKey:      "key-" + shopName,
		AccessToken: "token-" + shopName,
	})
	_, err := client.Apply(context.Background(), []*spanner.Mutation{mutation})
	require.NoError(t, err, "failed to create test shop")
}

// CreateWatchedChat stores a chat watch with an empty cursor.
func CreateWatchedChat(t *testing.T, client *spanner.Client, chatID, shopName string) {
	t.Helper()

	mutation := m_chat_watch.NewModel().InsertMut(&m_chat_watch.Data{
		ChatID:   chatID,
		ShopName: shopName,
		ChatName: "Chat " + chatID,
	})
	_, err := client.Apply(context.Background(), []*spanner.Mutation{mutation})
	require.NoError(t, err, "failed to create chat watch")
}

// SetCursor moves the cursor of a watched chat.
func SetCursor(t *testing.T, client *spanner.Client, chatID, messageID string) {
	t.Helper()

	mutation := m_chat_watch.NewModel().AdvanceCursorMut(chatID, messageID)
	_, err := client.Apply(context.Background(), []*spanner.Mutation{mutation})
	require.NoError(t, err, "failed to set cursor")
}

// ProductFixture builds a ProductRecord with sensible defaults.
type ProductFixture struct {
	record *domain.ProductRecord
}

// NewProductFixture starts a product with one image and no tiers.
func NewProductFixture(sku string) *ProductFixture {
	return &ProductFixture{record: &domain.ProductRecord{
		SKU:         sku,
		Name:        "Producto " + sku,
		Description: "Descripción de " + sku,
		Price:       decimal.RequireFromString("10.00"),
		Categories:  []string{"Zapatos"},
		Sizes:       []string{"S", "M"},
		Images:      []domain.ImageAttachment{{MimeType: "image/jpeg", Data: "aW1n"}},
	}}
}

// WithName sets the name.
func (f *ProductFixture) WithName(name string) *ProductFixture {
	f.record.Name = name
	return f
}

// WithPrice sets the base price.
func (f *ProductFixture) WithPrice(price string) *ProductFixture {
	f.record.Price = decimal.RequireFromString(price)
	return f
}

// WithImages replaces the images with n generated attachments.
func (f *ProductFixture) WithImages(n int) *ProductFixture {
	f.record.Images = nil
	for i := 0; i < n; i++ {
		f.record.Images = append(f.record.Images, domain.ImageAttachment{
			MimeType: "image/png",
			Data:     string(rune('a' + i)),
		})
	}
	return f
}

// WithTier appends a price tier.
func (f *ProductFixture) WithTier(level string, price string, minQty, maxQty int64) *ProductFixture {
	f.record.Variants = append(f.record.Variants, domain.PriceVariant{
		PriceLevel:  level,
		Price:       decimal.RequireFromString(price),
		MinQuantity: minQty,
		MaxQuantity: maxQty,
	})
	return f
}

// FromChat sets the source chat and message.
func (f *ProductFixture) FromChat(chatID, messageID string) *ProductFixture {
	f.record.SourceChatID = chatID
	f.record.SourceMessageID = messageID
	return f
}

// Build returns the record.
func (f *ProductFixture) Build() *domain.ProductRecord {
	return f.record
}
