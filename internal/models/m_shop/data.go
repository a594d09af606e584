package m_shop

import "time"

// Data represents the database model for the shops table.
type Data struct {
	ShopName    string    `spanner:"shop_name"`
	APIKey      string    `spanner:"api_key"`
	AccessToken string    `spanner:"access_token"`
	CreatedAt   time.Time `spanner:"created_at"`
	UpdatedAt   time.Time `spanner:"updated_at"`
}
