package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/diewo77/go-bistro/internal/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	declared  []string
	published []amqp.Publishing
	keys      []string
	closed    int
	failPub   bool
	pubErr    error
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	c.declared = append(c.declared, name+"/"+kind)
	return nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.failPub {
		return errors.New("channel closed")
	}
	if c.pubErr != nil {
		return c.pubErr
	}
	c.keys = append(c.keys, exchange+"|"+key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed++
	return nil
}

type fakeConn struct {
	ch       *fakeChannel
	opened   int
	closed   int
	shutdown bool
}

func (f *fakeConn) Channel() (Channel, error) {
	if f.shutdown {
		return nil, amqp.ErrClosed
	}
	f.opened++
	return f.ch, nil
}

func (f *fakeConn) Close() error {
	f.closed++
	return nil
}

func TestAMQPPublisher(t *testing.T) {
	ch := &fakeChannel{}
	conn := &fakeConn{ch: ch}
	pub := NewAMQPPublisher(conn, "bistro.events")

	evt := NewEvent(OrderCreated, map[string]any{"sale_id": 7})
	require.NoError(t, pub.Publish(context.Background(), evt))
	require.NoError(t, pub.Publish(context.Background(), NewEvent(InventoryLowStock, nil)))

	assert.Equal(t, []string{"bistro.events/topic"}, ch.declared, "exchange declared once")
	assert.Equal(t, []string{"bistro.events|order.created", "bistro.events|inventory.low_stock"}, ch.keys)
	assert.Equal(t, 1, conn.opened, "channel reused")
	assert.Zero(t, ch.closed)

	msg := ch.published[0]
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, evt.ID, msg.MessageId)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, OrderCreated, decoded.Name)
}

func TestAMQPPublisherError(t *testing.T) {
	pub := NewAMQPPublisher(&fakeConn{ch: &fakeChannel{failPub: true}}, "x")
	err := pub.Publish(context.Background(), NewEvent(OrderCreated, nil))
	assert.ErrorContains(t, err, "publishing order.created")

	assert.Error(t, NewAMQPPublisher(nil, "x").Publish(context.Background(), NewEvent("a", nil)))
}

func TestAMQPPublisherReopensClosedChannel(t *testing.T) {
	ch := &fakeChannel{}
	conn := &fakeConn{ch: ch}
	pub := NewAMQPPublisher(conn, "bistro.events")
	require.NoError(t, pub.Publish(context.Background(), NewEvent(OrderCreated, nil)))

	ch.pubErr = amqp.ErrClosed
	err := pub.Publish(context.Background(), NewEvent(OrderCreated, nil))
	require.ErrorIs(t, err, amqp.ErrClosed)
	assert.Equal(t, 2, conn.opened, "retried once on a fresh channel")

	ch.pubErr = nil
	require.NoError(t, pub.Publish(context.Background(), NewEvent(OrderCreated, nil)))
	assert.Len(t, ch.published, 2)
}

func TestAMQPPublisherRedialsClosedConnection(t *testing.T) {
	stale := &fakeChannel{}
	old := &fakeConn{ch: stale}
	fresh := &fakeConn{ch: &fakeChannel{}}
	dials := 0
	pub := NewAMQPPublisher(old, "bistro.events", WithDialer(func() (Connection, error) {
		dials++
		return fresh, nil
	}))
	require.NoError(t, pub.Publish(context.Background(), NewEvent(OrderCreated, nil)))

	stale.pubErr = amqp.ErrClosed
	old.shutdown = true
	require.NoError(t, pub.Publish(context.Background(), NewEvent(InventoryLowStock, nil)))
	assert.Equal(t, 1, dials)
	assert.Equal(t, 1, stale.closed)
	assert.Equal(t, 1, old.closed)
	assert.Equal(t, []string{"bistro.events|inventory.low_stock"}, fresh.ch.keys)
	assert.Equal(t, []string{"bistro.events/topic"}, fresh.ch.declared)

	require.NoError(t, pub.Close())
	assert.Equal(t, 1, fresh.closed)
	assert.Equal(t, 1, fresh.ch.closed)
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	pub := NewLogPublisher(logg)
	require.NoError(t, pub.Publish(context.Background(), NewEvent(OrderStatusChanged, map[string]string{"status": "Cancelled"})))
	assert.Contains(t, buf.String(), `"event_name":"order.status_changed"`)
	assert.Contains(t, buf.String(), `"message":"event.published"`)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_ = r.Publish(context.Background(), NewEvent(OrderCreated, nil))
	_ = r.Publish(context.Background(), NewEvent(InventoryLowStock, nil))
	assert.Len(t, r.Events(), 2)
	assert.Len(t, r.Named(InventoryLowStock), 1)
}
