package producer

import (
	"context"
	"encoding/json"
	"time"

	"backoffice-service/internal/service"

	"github.com/segmentio/kafka-go"
)

const (
	EventOrderImported      = "order.imported"
	EventOrderStatusChanged = "order.status_changed"
)

var _ service.EventBus = (*OrderEventProducer)(nil)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderEventProducer publishes order events to one topic, keyed by order id
// so the events of an order stay in one partition.
type OrderEventProducer struct {
	writer  messageWriter
	timeout time.Duration
}

func NewOrderEventProducer(brokers []string, topic string) *OrderEventProducer {
	return newOrderEventProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	})
}

func newOrderEventProducer(w messageWriter) *OrderEventProducer {
	return &OrderEventProducer{writer: w, timeout: 5 * time.Second}
}

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (p *OrderEventProducer) PublishOrderImported(ctx context.Context, e service.OrderImportedEvent) error {
	return p.publish(ctx, EventOrderImported, e.OrderID.String(), e)
}

func (p *OrderEventProducer) PublishOrderStatusChanged(ctx context.Context, e service.OrderStatusChangedEvent) error {
	return p.publish(ctx, EventOrderStatusChanged, e.OrderID.String(), e)
}

func (p *OrderEventProducer) publish(ctx context.Context, typ, key string, payload any) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	value, err := json.Marshal(Envelope{Type: typ, Payload: body})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(typ)},
		},
	})
}

func (p *OrderEventProducer) Close() error {
	return p.writer.Close()
}
