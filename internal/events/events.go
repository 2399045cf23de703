// Package events publishes order lifecycle notifications after a state change
// has been committed.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Type string

const (
	OrderCreated      Type = "order.created"
	OrderItemsAdded   Type = "order.items_added"
	OrderItemStatus   Type = "order.item_status"
	OrderStatusChange Type = "order.status_changed"
	OrderPaid         Type = "order.paid"
	OrderCancelled    Type = "order.cancelled"
)

type Item struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Quantity int       `json:"quantity"`
	Notes    string    `json:"notes,omitempty"`
	Status   string    `json:"status"`
}

type Event struct {
	Type        Type      `json:"type"`
	OrderID     uuid.UUID `json:"order_id"`
	TableID     uuid.UUID `json:"table_id"`
	TableNumber string    `json:"table_number,omitempty"`
	Status      string    `json:"status"`
	Total       string    `json:"total,omitempty"`
	Items       []Item    `json:"items,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishLogged publishes e and only logs a failure. Callers use it once the
// change is committed, so a broker outage never fails the request.
func PublishLogged(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil {
		log.Error().Err(err).
			Str("event", string(e.Type)).
			Stringer("order_id", e.OrderID).
			Msg("events: failed to publish event")
	}
}
