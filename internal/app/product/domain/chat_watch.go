package domain

import "time"

// ChatWatch is a chat whose messages are scanned for product announcements.
// LastProcessedMessageID is nil until the first batch from the chat is persisted.
type ChatWatch struct {
	ChatID                 string
	ShopName               string
	ChatName               string
	LastProcessedMessageID *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Cursor returns the persisted resume point, or "" for a chat never scanned.
func (w *ChatWatch) Cursor() string {
	if w.LastProcessedMessageID == nil {
		return ""
	}
	return *w.LastProcessedMessageID
}

// ShopCredential holds what is needed to open a catalog session for a shop.
type ShopCredential struct {
	ShopName    string
	APIKey      string
	AccessToken string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the credential is usable.
func (s *ShopCredential) Validate() error {
	if s.ShopName == "" {
		return ErrEmptyShopName
	}
	if s.APIKey == "" || s.AccessToken == "" {
		return ErrEmptyCredential
	}
	return nil
}
