package worker

import (
	"context"
	"log"

	"meli-sync/internal/broker"
	"meli-sync/internal/models"
	"meli-sync/internal/service"
	"meli-sync/internal/util"
)

// StockWorker consumes catalog stock events from Kafka and routes them into
// the outbound sync handler, holding a per-product lock while each event is
// applied.
type StockWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	outbound     *service.OutboundSync
	locks        *productLocks
}

// NewStockWorker creates a new stock event worker
func NewStockWorker(consumer *broker.Consumer, outbound *service.OutboundSync) *StockWorker {
	w := &StockWorker{
		consumer: consumer,
		outbound: outbound,
		locks:    newProductLocks(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnStockSet(w.handleStockSet)
	eventHandler.OnStockReduced(w.handleStockReduced)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *StockWorker) Start(ctx context.Context) error {
	log.Println("Starting stock worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StockWorker) Stop() error {
	log.Println("Stopping stock worker...")
	return w.consumer.Close()
}

func (w *StockWorker) handleStockSet(ctx context.Context, event *models.StockSetEvent) error {
	util.StockEventsConsumedTotal.WithLabelValues(models.EventTypeStockSet).Inc()
	return w.pushProduct(ctx, event.ProductID)
}

func (w *StockWorker) handleStockReduced(ctx context.Context, event *models.StockReducedEvent) error {
	util.StockEventsConsumedTotal.WithLabelValues(models.EventTypeStockReduced).Inc()

	// Each product is delegated individually; one failure does not block
	// the rest of the order.
	for _, id := range event.ProductIDs {
		if err := w.pushProduct(ctx, id); err != nil {
			log.Printf("Failed to push stock for product %d: %v", id, err)
		}
	}
	return nil
}

func (w *StockWorker) pushProduct(ctx context.Context, productID int64) error {
	w.locks.Lock(productID)
	defer w.locks.Unlock(productID)

	return w.outbound.OnStockChanged(ctx, productID)
}
