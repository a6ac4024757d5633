// Package events publishes order lifecycle events to the configured broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kasir/internal/models"
	"kasir/pkg/kafka"
	"kasir/pkg/rabbitmq"

	"github.com/shopspring/decimal"
)

// Event types, also used as RabbitMQ routing keys.
const (
	OrderCreated         = "order.created"
	OrderCheckoutStarted = "order.checkout_started"
	OrderPaid            = "order.paid"
	OrderFailed          = "order.failed"
)

// OrderEvent is the message body of every order event.
type OrderEvent struct {
	Type           string             `json:"type"`
	OrderID        string             `json:"order_id"`
	UserID         string             `json:"user_id"`
	Status         models.OrderStatus `json:"status"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	GatewayOrderID *int64             `json:"gateway_order_id,omitempty"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// NewOrderEvent snapshots order into an event of the given type.
func NewOrderEvent(eventType string, order *models.Order) OrderEvent {
	return OrderEvent{
		Type:           eventType,
		OrderID:        order.ID,
		UserID:         order.UserID,
		Status:         order.Status,
		TotalAmount:    order.TotalAmount,
		GatewayOrderID: order.GatewayOrderID,
		OccurredAt:     time.Now().UTC(),
	}
}

// Publisher delivers order events.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// RabbitPublisher routes events through a topic exchange keyed by event type.
type RabbitPublisher struct {
	client *rabbitmq.Client
}

// NewRabbitPublisher creates a RabbitPublisher on a connected client.
func NewRabbitPublisher(client *rabbitmq.Client) *RabbitPublisher {
	return &RabbitPublisher{client: client}
}

// Publish sends event as JSON with its type as the routing key.
func (p *RabbitPublisher) Publish(_ context.Context, event OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	return p.client.Publish(event.Type, body)
}

// KafkaPublisher writes events keyed by order ID.
type KafkaPublisher struct {
	producer *kafka.Producer
}

// NewKafkaPublisher creates a KafkaPublisher writing through producer.
func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// Publish writes event as JSON keyed by its order ID.
func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	return p.producer.Publish(ctx, event.OrderID, body)
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish discards event.
func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }
