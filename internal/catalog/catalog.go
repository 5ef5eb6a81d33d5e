package catalog

import (
	"context"

	"meli-sync/internal/models"
)

// ProductStore is the surface the sync engine needs from the local catalog:
// get/set stock and get/set the linked MercadoLibre item id, by product.
// The catalog itself (admin UI, pricing, content) lives elsewhere.
type ProductStore interface {
	// GetProduct retrieves a product by id. Returns nil, nil when the
	// product does not exist.
	GetProduct(ctx context.Context, id int64) (*models.Product, error)

	// GetProductByRemoteID retrieves the product linked to the given
	// MercadoLibre item id. When more than one product carries the link the
	// first match is returned. Returns nil, nil when none is linked.
	GetProductByRemoteID(ctx context.Context, remoteItemID string) (*models.Product, error)

	// SetStock persists a new stock quantity for a product.
	SetStock(ctx context.Context, id int64, quantity int) error

	// SetRemoteID links or unlinks ("" unlinks) a product to a MercadoLibre
	// item id.
	SetRemoteID(ctx context.Context, id int64, remoteItemID string) error
}
