// Package broker mirrors dispatched engine events to a RabbitMQ topic
// exchange so that services outside this process can follow trips.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/desaismitha/Shered-sub002/internal/domain"
)

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publishes events as JSON with routing key
// "trip.<trip id>.<event type>", e.g. "trip.42.lifecycle-changed".
type Publisher struct {
	conn     *amqp.Connection
	ch       Channel
	exchange string
	log      *slog.Logger
}

// Dial connects to url, opens a channel and declares exchange as a durable
// topic exchange.
func Dial(url, exchange string, log *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("broker.Dial: connect: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("broker.Dial: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("broker.Dial: declare exchange %q: %w", exchange, err)
	}
	log.Info("connected to message broker", "exchange", exchange)

	p := NewPublisher(ch, exchange, log)
	p.conn = conn
	return p, nil
}

// NewPublisher wraps an already open channel. The exchange must exist.
func NewPublisher(ch Channel, exchange string, log *slog.Logger) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, log: log}
}

// RoutingKey returns the routing key an event is published under.
func RoutingKey(ev domain.Event) string {
	return fmt.Sprintf("trip.%d.%s", ev.TripID, ev.Type)
}

// Publish sends one event. It satisfies notify.Mirror.
func (p *Publisher) Publish(ctx context.Context, ev domain.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("broker.Publisher.Publish: marshal: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(ev), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         string(ev.Type),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("broker.Publisher.Publish: %w", err)
	}
	p.log.Debug("event mirrored", "routing_key", RoutingKey(ev), "seq", ev.Seq)
	return nil
}

// Close closes the channel and, when Dial opened it, the connection.
func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return fmt.Errorf("broker.Publisher.Close: channel: %w", err)
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("broker.Publisher.Close: connection: %w", err)
		}
	}
	return nil
}
