package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"meli-sync/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes catalog stock events. The local catalog calls
// this whenever stock moves; the sync worker consumes on the other end.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishStockSet publishes a StockSet event
func (ep *EventPublisher) PublishStockSet(ctx context.Context, event *models.StockSetEvent) error {
	key := fmt.Sprintf("product-%d", event.ProductID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishStockReduced publishes a StockReduced event
func (ep *EventPublisher) PublishStockReduced(ctx context.Context, event *models.StockReducedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming catalog events to registered callbacks. This
// is the explicit subscription surface the catalog's stock mutations flow
// through.
type EventHandler struct {
	onStockSet     func(context.Context, *models.StockSetEvent) error
	onStockReduced func(context.Context, *models.StockReducedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnStockSet registers a handler for StockSet events
func (eh *EventHandler) OnStockSet(handler func(context.Context, *models.StockSetEvent) error) {
	eh.onStockSet = handler
}

// OnStockReduced registers a handler for StockReduced events
func (eh *EventHandler) OnStockReduced(handler func(context.Context, *models.StockReducedEvent) error) {
	eh.onStockReduced = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeStockSet:
		if eh.onStockSet != nil {
			var event models.StockSetEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal StockSet event: %w", err)
			}
			return eh.onStockSet(ctx, &event)
		}

	case models.EventTypeStockReduced:
		if eh.onStockReduced != nil {
			var event models.StockReducedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal StockReduced event: %w", err)
			}
			return eh.onStockReduced(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
