package models

import "time"

// Event types published by the local catalog when stock moves.
const (
	EventTypeStockSet     = "STOCK_SET"
	EventTypeStockReduced = "STOCK_REDUCED"
)

// BaseEvent contains common fields for all catalog events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// StockSetEvent published when a single product's stock quantity is set
type StockSetEvent struct {
	BaseEvent
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// StockReducedEvent published when an order reduces stock for a set of
// products
type StockReducedEvent struct {
	BaseEvent
	OrderID    int64   `json:"order_id"`
	ProductIDs []int64 `json:"product_ids"`
}
