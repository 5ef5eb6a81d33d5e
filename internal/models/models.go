package models

import (
	"database/sql"
	"time"
)

// Product represents a product in the local catalog. MLItemID carries the
// link to the MercadoLibre listing; a NULL value means the product is not
// synced to the marketplace.
type Product struct {
	ID        int64          `db:"id" json:"id"`
	SKU       string         `db:"sku" json:"sku"`
	Name      string         `db:"name" json:"name"`
	Stock     int            `db:"stock" json:"stock"`
	MLItemID  sql.NullString `db:"ml_item_id" json:"ml_item_id,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// RemoteItemID returns the linked MercadoLibre item id, or "" when the
// product is not linked.
func (p *Product) RemoteItemID() string {
	if p.MLItemID.Valid {
		return p.MLItemID.String
	}
	return ""
}

// Credentials holds the MercadoLibre app credentials and the tokens obtained
// through the OAuth handshake. An empty AccessToken means disconnected.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
}

// Connected reports whether an OAuth session has been established.
func (c Credentials) Connected() bool {
	return c.AccessToken != ""
}

// Notification is the body MercadoLibre POSTs to the webhook endpoint. It
// only references the changed resource; the order itself has to be fetched.
type Notification struct {
	Resource string `json:"resource"`
	Topic    string `json:"topic"`
	UserID   int64  `json:"user_id,omitempty"`
}
