package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const KitchenQueue = "kitchen.q"

// AMQPChannel is the subset of *amqp.Channel used for publishing.
type AMQPChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// KitchenPublisher routes the events a kitchen display cares about to a topic
// exchange under "kitchen.<event>". Other events are ignored.
type KitchenPublisher struct {
	ch       AMQPChannel
	exchange string
}

func NewKitchenPublisher(ch AMQPChannel, exchange string) *KitchenPublisher {
	return &KitchenPublisher{ch: ch, exchange: exchange}
}

func KitchenRoutingKey(t Type) string {
	return "kitchen." + strings.TrimPrefix(string(t), "order.")
}

func forKitchen(t Type) bool {
	switch t {
	case OrderCreated, OrderItemsAdded, OrderCancelled:
		return true
	}
	return false
}

func (p *KitchenPublisher) Publish(ctx context.Context, e Event) error {
	if !forKitchen(e.Type) {
		return nil
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events: failed to marshal kitchen ticket: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, KitchenRoutingKey(e.Type), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		Type:         string(e.Type),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("events: kitchen publish %s: %w", e.Type, err)
	}
	return nil
}

// KitchenBroker owns the AMQP connection used by the kitchen publisher.
type KitchenBroker struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// DialKitchen connects to RabbitMQ and declares the kitchen topic exchange
// and its durable queue.
func DialKitchen(url, exchange string) (*KitchenBroker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("events: amqp channel: %w", err)
	}

	b := &KitchenBroker{conn: conn, ch: ch}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		b.Close()
		return nil, fmt.Errorf("events: declare exchange %s: %w", exchange, err)
	}
	if _, err := ch.QueueDeclare(KitchenQueue, true, false, false, false, nil); err != nil {
		b.Close()
		return nil, fmt.Errorf("events: declare queue: %w", err)
	}
	if err := ch.QueueBind(KitchenQueue, "kitchen.*", exchange, false, nil); err != nil {
		b.Close()
		return nil, fmt.Errorf("events: bind queue: %w", err)
	}
	return b, nil
}

func (b *KitchenBroker) Channel() *amqp.Channel { return b.ch }

func (b *KitchenBroker) Close() {
	if b == nil {
		return
	}
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
}
