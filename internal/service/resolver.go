package service

import (
	"context"

	"meli-sync/internal/catalog"
	"meli-sync/internal/util"

	"go.uber.org/zap"
)

// Resolver maps between local product ids and MercadoLibre item ids. The
// forward direction reads the product's link attribute; the reverse
// direction queries the catalog for the product carrying the link.
type Resolver struct {
	store  catalog.ProductStore
	logger *zap.Logger
}

// NewResolver creates a new identity resolver
func NewResolver(store catalog.ProductStore) *Resolver {
	return &Resolver{
		store:  store,
		logger: util.GetLogger(),
	}
}

// RemoteID returns the MercadoLibre item id linked to a product, or "" when
// the product does not exist or carries no link.
func (r *Resolver) RemoteID(ctx context.Context, productID int64) (string, error) {
	product, err := r.store.GetProduct(ctx, productID)
	if err != nil {
		return "", err
	}
	if product == nil {
		return "", nil
	}
	return product.RemoteItemID(), nil
}

// LocalID returns the id of the product linked to a MercadoLibre item, or 0
// when no product carries the link. Duplicate links are not detected; the
// catalog returns the first match.
func (r *Resolver) LocalID(ctx context.Context, remoteItemID string) (int64, error) {
	product, err := r.store.GetProductByRemoteID(ctx, remoteItemID)
	if err != nil {
		return 0, err
	}
	if product == nil {
		return 0, nil
	}
	return product.ID, nil
}
