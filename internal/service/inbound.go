package service

import (
	"context"
	"net/http"
	"path"
	"strings"
	"time"

	"meli-sync/internal/catalog"
	"meli-sync/internal/credentials"
	"meli-sync/internal/meli"
	"meli-sync/internal/models"
	"meli-sync/internal/util"

	"go.uber.org/zap"
)

// Result statuses returned to MercadoLibre.
const (
	StatusIgnored   = "ignored"
	StatusNoItems   = "no_items"
	StatusSynced    = "synced"
	StatusDuplicate = "duplicate"
)

// notificationTTL bounds how long a handled notification resource stays
// marked against redelivery.
const notificationTTL = 24 * time.Hour

// Result is the outcome of processing one webhook notification. Exactly one
// of Status and Error is set.
type Result struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
	Code   int    `json:"-"`
}

// NotificationGuard marks a notification resource as handled and reports
// whether it was seen for the first time.
type NotificationGuard interface {
	MarkNotificationSeen(ctx context.Context, resource string, ttl time.Duration) (bool, error)
}

// InboundSync translates MercadoLibre order notifications into local stock
// decrements.
//
// The webhook endpoint carries no authentication: MercadoLibre cannot sign
// its notifications, so validation happens on the payload alone. A forged
// notification at worst triggers an order-detail fetch for the forged id,
// which comes back empty and short-circuits.
type InboundSync struct {
	store    catalog.ProductStore
	creds    credentials.Store
	client   *meli.Client
	resolver *Resolver
	guard    NotificationGuard
	logger   *zap.Logger
}

// NewInboundSync creates a new inbound webhook handler. guard may be nil,
// in which case redelivered notifications are reprocessed.
func NewInboundSync(
	store catalog.ProductStore,
	creds credentials.Store,
	client *meli.Client,
	resolver *Resolver,
	guard NotificationGuard,
) *InboundSync {
	return &InboundSync{
		store:    store,
		creds:    creds,
		client:   client,
		resolver: resolver,
		guard:    guard,
		logger:   util.GetLogger(),
	}
}

// ProcessNotification handles one webhook notification end to end.
func (is *InboundSync) ProcessNotification(ctx context.Context, n models.Notification) Result {
	ctx, span := util.StartSpan(ctx, "InboundSync.ProcessNotification")
	defer span.End()

	if n.Resource == "" {
		util.WebhookNotificationsTotal.WithLabelValues("invalid").Inc()
		return Result{Error: "Invalid body", Code: http.StatusBadRequest}
	}

	// The endpoint accepts every topic but only acts on orders; anything
	// else is acknowledged and dropped.
	if !strings.Contains(n.Resource, "orders/") {
		util.WebhookNotificationsTotal.WithLabelValues(StatusIgnored).Inc()
		return Result{Status: StatusIgnored, Code: http.StatusOK}
	}

	if is.guard != nil {
		first, err := is.guard.MarkNotificationSeen(ctx, n.Resource, notificationTTL)
		if err != nil {
			// Fail open: a flaky Redis must not block order syncing.
			is.logger.Warn("Notification dedupe unavailable", zap.Error(err))
		} else if !first {
			util.WebhookNotificationsTotal.WithLabelValues(StatusDuplicate).Inc()
			is.logger.Info("Duplicate notification, skipping",
				zap.String("resource", n.Resource))
			return Result{Status: StatusDuplicate, Code: http.StatusOK}
		}
	}

	orderID := path.Base(n.Resource)

	creds, err := is.creds.Get(ctx)
	if err != nil {
		is.logger.Warn("Failed to read credentials", zap.Error(err))
	}

	order := is.client.GetOrder(ctx, orderID, creds.AccessToken)
	if len(order.OrderItems) == 0 {
		util.WebhookNotificationsTotal.WithLabelValues(StatusNoItems).Inc()
		return Result{Status: StatusNoItems, Code: http.StatusOK}
	}

	for _, line := range order.OrderItems {
		is.applyLineItem(ctx, line)
	}

	util.WebhookNotificationsTotal.WithLabelValues(StatusSynced).Inc()
	return Result{Status: StatusSynced, Code: http.StatusOK}
}

// applyLineItem decrements local stock for one purchased listing. Unlinked
// or missing products are skipped so the remaining items still apply.
func (is *InboundSync) applyLineItem(ctx context.Context, line meli.OrderLineItem) {
	productID, err := is.resolver.LocalID(ctx, line.Item.ID)
	if err != nil {
		is.logger.Error("Reverse lookup failed",
			zap.String("item_id", line.Item.ID),
			zap.Error(err))
		return
	}
	if productID == 0 {
		is.logger.Debug("No local product for item, skipping",
			zap.String("item_id", line.Item.ID))
		return
	}

	product, err := is.store.GetProduct(ctx, productID)
	if err != nil || product == nil {
		is.logger.Warn("Linked product not loadable, skipping",
			zap.Int64("product_id", productID),
			zap.Error(err))
		return
	}

	// Clamped at zero: a delta beyond on-hand count does not go negative,
	// and oversell is not flagged.
	newStock := product.Stock - line.Quantity
	if newStock < 0 {
		newStock = 0
	}

	if err := is.store.SetStock(ctx, productID, newStock); err != nil {
		is.logger.Error("Failed to persist stock decrement",
			zap.Int64("product_id", productID),
			zap.Error(err))
		return
	}

	util.StockDecrementsTotal.Inc()
	is.logger.Info("Applied marketplace order to local stock",
		zap.Int64("product_id", productID),
		zap.String("item_id", line.Item.ID),
		zap.Int("quantity", line.Quantity),
		zap.Int("new_stock", newStock))
}
