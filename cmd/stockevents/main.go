// Command stockevents publishes catalog stock events to Kafka. The local
// catalog emits these in production; this tool stands in for it during
// development and smoke testing.
//
//	stockevents -product 42 -quantity 7
//	stockevents -order 9001 -products 42,43,44
package main

import (
	"context"
	"flag"
	"log"
	"strconv"
	"strings"
	"time"

	"meli-sync/config"
	"meli-sync/internal/broker"
	"meli-sync/internal/models"

	"github.com/google/uuid"
)

func main() {
	productID := flag.Int64("product", 0, "product id for a STOCK_SET event")
	quantity := flag.Int("quantity", 0, "new stock quantity for -product")
	orderID := flag.Int64("order", 0, "order id for a STOCK_REDUCED event")
	products := flag.String("products", "", "comma-separated product ids for -order")
	flag.Parse()

	cfg := config.Load()

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicStock)
	defer producer.Close()

	publisher := broker.NewEventPublisher(producer)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch {
	case *productID != 0:
		event := &models.StockSetEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeStockSet,
				Timestamp: time.Now(),
			},
			ProductID: *productID,
			Quantity:  *quantity,
		}
		if err := publisher.PublishStockSet(ctx, event); err != nil {
			log.Fatalf("Failed to publish StockSet event: %v", err)
		}

	case *orderID != 0:
		ids, err := parseIDs(*products)
		if err != nil {
			log.Fatalf("Invalid -products list: %v", err)
		}
		event := &models.StockReducedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeStockReduced,
				Timestamp: time.Now(),
			},
			OrderID:    *orderID,
			ProductIDs: ids,
		}
		if err := publisher.PublishStockReduced(ctx, event); err != nil {
			log.Fatalf("Failed to publish StockReduced event: %v", err)
		}

	default:
		log.Fatal("Specify either -product or -order")
	}

	log.Println("Event published")
}

func parseIDs(list string) ([]int64, error) {
	parts := strings.Split(list, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
