package meli

// TokenResponse is the body returned by the OAuth token endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
	UserID       int64  `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

// Item is a MercadoLibre listing. Only the fields the sync engine touches
// are decoded; price, title and description stay channel-specific and are
// never read or written.
type Item struct {
	ID                string `json:"id"`
	AvailableQuantity int    `json:"available_quantity"`
	Status            string `json:"status,omitempty"`
}

// Order is the order detail fetched after an orders_v2 notification.
type Order struct {
	ID         int64           `json:"id"`
	Status     string          `json:"status,omitempty"`
	OrderItems []OrderLineItem `json:"order_items"`
}

// OrderLineItem is one purchased listing within an order.
type OrderLineItem struct {
	Item     OrderItemRef `json:"item"`
	Quantity int          `json:"quantity"`
}

// OrderItemRef identifies the purchased listing.
type OrderItemRef struct {
	ID string `json:"id"`
}

// webhookSubscription is the body sent when registering the order webhook.
type webhookSubscription struct {
	Topic string `json:"topic"`
	URL   string `json:"url"`
}
