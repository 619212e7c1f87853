package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"
)

const exchangeKind = "topic"

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Connection opens channels.
type Connection interface {
	Channel() (Channel, error)
	Close() error
}

type amqpConnection struct {
	conn *amqp.Connection
}

func (c *amqpConnection) Channel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (c *amqpConnection) Close() error { return c.conn.Close() }

// Dial connects to the broker at url.
func Dial(url string) (Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}
	return &amqpConnection{conn: conn}, nil
}

// AMQPPublisher publishes persistent JSON messages on a topic exchange,
// routed by event name. It keeps one channel open and reopens it, redialing
// the broker when a dialer is set, after the broker closes it.
type AMQPPublisher struct {
	exchange string
	dial     func() (Connection, error)

	mu   sync.Mutex
	conn Connection
	ch   Channel
}

type PublisherOption func(*AMQPPublisher)

// WithDialer lets the publisher replace a connection the broker closed.
func WithDialer(dial func() (Connection, error)) PublisherOption {
	return func(p *AMQPPublisher) { p.dial = dial }
}

func NewAMQPPublisher(conn Connection, exchange string, opts ...PublisherOption) *AMQPPublisher {
	p := &AMQPPublisher{conn: conn, exchange: exchange}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *AMQPPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", evt.Name, err)
	}
	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    evt.ID,
		Timestamp:    evt.OccurredAt,
		Type:         evt.Name,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.publish(ctx, evt.Name, msg)
	if errors.Is(err, amqp.ErrClosed) {
		p.dropChannel()
		err = p.publish(ctx, evt.Name, msg)
	}
	if err != nil {
		return fmt.Errorf("publishing %s: %w", evt.Name, err)
	}
	return nil
}

func (p *AMQPPublisher) publish(ctx context.Context, key string, msg amqp.Publishing) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
		return err
	}
	return nil
}

// channel returns the open channel, or opens one and declares the exchange
// on it. Caller holds p.mu.
func (p *AMQPPublisher) channel() (Channel, error) {
	if p.ch != nil {
		return p.ch, nil
	}
	if p.conn == nil {
		return nil, errors.New("rabbitmq connection not initialized")
	}
	ch, err := p.conn.Channel()
	if errors.Is(err, amqp.ErrClosed) && p.dial != nil {
		conn, derr := p.dial()
		if derr != nil {
			return nil, fmt.Errorf("redialing rabbitmq: %w", derr)
		}
		_ = p.conn.Close()
		p.conn = conn
		ch, err = conn.Channel()
	}
	if err != nil {
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", p.exchange, err)
	}
	p.ch = ch
	return ch, nil
}

func (p *AMQPPublisher) dropChannel() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.ch != nil {
		err = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err = multierr.Append(err, p.conn.Close())
	}
	return err
}
