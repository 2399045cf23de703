package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/restaurant-pos/internal/events"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

type publishCall struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	calls []publishCall
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.calls = append(c.calls, publishCall{exchange: exchange, key: key, msg: msg})
	return nil
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e events.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := events.NewKafkaPublisher(w)
	orderID := uuid.Must(uuid.NewV4())

	err := p.Publish(context.Background(), events.Event{Type: events.OrderPaid, OrderID: orderID, Status: "paid", Total: "24.60"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	assert.Equal(t, orderID.String(), string(w.msgs[0].Key))

	var got events.Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, events.OrderPaid, got.Type)
	assert.Equal(t, "24.60", got.Total)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := events.NewKafkaPublisher(&fakeWriter{err: errors.New("broker down")})

	err := p.Publish(context.Background(), events.Event{Type: events.OrderCreated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestKitchenPublisher_RoutesKitchenEventsOnly(t *testing.T) {
	ch := &fakeChannel{}
	p := events.NewKitchenPublisher(ch, "kitchen_topic")

	require.NoError(t, p.Publish(context.Background(), events.Event{Type: events.OrderCreated}))
	require.NoError(t, p.Publish(context.Background(), events.Event{Type: events.OrderPaid}))
	require.NoError(t, p.Publish(context.Background(), events.Event{Type: events.OrderCancelled}))

	require.Len(t, ch.calls, 2)
	assert.Equal(t, "kitchen_topic", ch.calls[0].exchange)
	assert.Equal(t, "kitchen.created", ch.calls[0].key)
	assert.Equal(t, amqp.Persistent, ch.calls[0].msg.DeliveryMode)
	assert.Equal(t, "application/json", ch.calls[0].msg.ContentType)
	assert.Equal(t, "kitchen.cancelled", ch.calls[1].key)
}

func TestKitchenRoutingKey(t *testing.T) {
	assert.Equal(t, "kitchen.items_added", events.KitchenRoutingKey(events.OrderItemsAdded))
}

func TestMulti_PublishesToAllAndJoinsErrors(t *testing.T) {
	first := new(MockPublisher)
	second := new(MockPublisher)
	e := events.Event{Type: events.OrderCreated}

	first.On("Publish", mock.Anything, e).Return(errors.New("first failed")).Once()
	second.On("Publish", mock.Anything, e).Return(nil).Once()

	err := events.Multi{first, second}.Publish(context.Background(), e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first failed")

	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestPublishLogged_StampsTimeAndSwallowsErrors(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return !e.OccurredAt.IsZero()
	})).Return(errors.New("down")).Once()

	events.PublishLogged(context.Background(), pub, events.Event{Type: events.OrderPaid})
	events.PublishLogged(context.Background(), nil, events.Event{Type: events.OrderPaid})

	pub.AssertExpectations(t)
}
