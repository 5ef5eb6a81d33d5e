package service

import (
	"context"

	"meli-sync/internal/catalog"
	"meli-sync/internal/credentials"
	"meli-sync/internal/meli"
	"meli-sync/internal/util"

	"go.uber.org/zap"
)

// OutboundSync pushes local stock changes to MercadoLibre. Each triggering
// event results in at most one PutItem call: no queue, no retry. A push
// lost to a transport failure heals on the next stock event for the same
// product.
type OutboundSync struct {
	store    catalog.ProductStore
	creds    credentials.Store
	client   *meli.Client
	resolver *Resolver
	logger   *zap.Logger
}

// NewOutboundSync creates a new outbound sync handler
func NewOutboundSync(
	store catalog.ProductStore,
	creds credentials.Store,
	client *meli.Client,
	resolver *Resolver,
) *OutboundSync {
	return &OutboundSync{
		store:    store,
		creds:    creds,
		client:   client,
		resolver: resolver,
		logger:   util.GetLogger(),
	}
}

// OnStockChanged reacts to a local stock change for a single product. An
// unlinked product and a disconnected session are both silent no-ops, not
// errors.
func (os *OutboundSync) OnStockChanged(ctx context.Context, productID int64) error {
	ctx, span := util.StartSpan(ctx, "OutboundSync.OnStockChanged")
	defer span.End()

	itemID, err := os.resolver.RemoteID(ctx, productID)
	if err != nil {
		return err
	}
	if itemID == "" {
		util.OutboundSkippedTotal.WithLabelValues("unlinked").Inc()
		os.logger.Debug("Product not linked to MercadoLibre, skipping",
			zap.Int64("product_id", productID))
		return nil
	}

	creds, err := os.creds.Get(ctx)
	if err != nil {
		return err
	}
	if !creds.Connected() {
		util.OutboundSkippedTotal.WithLabelValues("disconnected").Inc()
		os.logger.Debug("Not connected to MercadoLibre, skipping",
			zap.Int64("product_id", productID))
		return nil
	}

	product, err := os.store.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		util.OutboundSkippedTotal.WithLabelValues("missing").Inc()
		return nil
	}

	qty := product.Stock
	if qty < 0 {
		qty = 0
	}

	// Fire and forget: the client swallows transport failures into an empty
	// body and the engine does not inspect the result.
	os.client.PutItem(ctx, itemID, creds.AccessToken, map[string]interface{}{
		"available_quantity": qty,
	})

	util.OutboundPushesTotal.Inc()
	os.logger.Info("Pushed stock to MercadoLibre",
		zap.Int64("product_id", productID),
		zap.String("item_id", itemID),
		zap.Int("quantity", qty))
	return nil
}

// OnOrderReducedStock reacts to an order-driven stock reduction by fanning
// each affected product into OnStockChanged. A failure on one product does
// not stop the rest.
func (os *OutboundSync) OnOrderReducedStock(ctx context.Context, productIDs []int64) error {
	for _, id := range productIDs {
		if err := os.OnStockChanged(ctx, id); err != nil {
			os.logger.Error("Failed to push stock for product",
				zap.Int64("product_id", id),
				zap.Error(err))
		}
	}
	return nil
}
