// Package events publishes storefront domain events to Kafka. Publication
// is best-effort: orders are durable in PostgreSQL before any event is
// emitted, so consumers treat the stream as a notification feed, not a
// source of truth.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/northwind-labs/storefront/internal/domain/order"
)

// Topic is the Kafka topic order events are written to.
const Topic = "storefront.orders"

// OrderPlacedEvent is the wire form of a completed checkout.
type OrderPlacedEvent struct {
	EventID   string          `json:"event_id"`
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	Items     []order.Line    `json:"items"`
	Timestamp time.Time       `json:"timestamp"`
}

var _ order.Publisher = (*Producer)(nil)

// Producer writes order events to Kafka.
type Producer struct {
	writer *kafka.Writer
	newID  func() string
}

// NewProducer creates a Producer for the given broker addresses.
func NewProducer(brokers []string, newID func() string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 5 * time.Second,
		},
		newID: newID,
	}
}

// Publish emits an order-placed event keyed by order ID, so per-order
// ordering is preserved within a partition.
func (p *Producer) Publish(ctx context.Context, placed order.Placed) error {
	event := OrderPlacedEvent{
		EventID:   p.newID(),
		OrderID:   placed.OrderID,
		UserID:    placed.UserID,
		Total:     placed.Total,
		Items:     placed.Items,
		Timestamp: placed.At,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(placed.OrderID),
		Value: value,
	})
	if err != nil {
		return errors.Wrap(err, "write message")
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
