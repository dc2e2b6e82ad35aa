// Package notify publishes order lifecycle events for downstream
// consumers such as the email service. Publishing is fire-and-forget:
// a failed notification never fails the checkout that produced it.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/calebmoreno/storefront/internal/models"
)

// Notifier receives order lifecycle notifications.
type Notifier interface {
	OrderCreated(ctx context.Context, order *models.Order)
}

// OrderEvent is the message body published to the orders topic.
type OrderEvent struct {
	EventType     string    `json:"event_type"`
	OrderID       string    `json:"order_id"`
	BuyerID       string    `json:"buyer_id"`
	PaymentMethod string    `json:"payment_method"`
	Total         string    `json:"total"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// KafkaNotifier publishes order events to a Kafka topic.
type KafkaNotifier struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// NewKafkaNotifier creates a notifier writing to the given brokers and
// topic.
func NewKafkaNotifier(brokers []string, topic string, log *slog.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 5 * time.Second,
	}

	return &KafkaNotifier{
		writer: writer,
		log:    log,
	}
}

// OrderCreated publishes an order_created event. Errors are logged only.
func (n *KafkaNotifier) OrderCreated(ctx context.Context, order *models.Order) {
	event := OrderEvent{
		EventType:     "order_created",
		OrderID:       order.ID,
		BuyerID:       order.BuyerID,
		PaymentMethod: string(order.PaymentMethod),
		Total:         order.Total.StringFixed(2),
		Status:        string(order.Status),
		CreatedAt:     order.CreatedAt,
	}

	value, err := json.Marshal(event)
	if err != nil {
		n.log.Error("failed to marshal order event", "order_id", order.ID, "error", err)
		return
	}

	if err := n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.ID),
		Value: value,
	}); err != nil {
		n.log.Error("failed to publish order event",
			"order_id", order.ID,
			"topic", n.writer.Topic,
			"error", err,
		)
		return
	}

	n.log.Info("order event published", "order_id", order.ID, "topic", n.writer.Topic)
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// NoopNotifier is used when no brokers are configured.
type NoopNotifier struct{}

// OrderCreated does nothing.
func (NoopNotifier) OrderCreated(ctx context.Context, order *models.Order) {}
