package events

import (
	"context"
	"errors"
	"fmt"
	"shipment-tracking-service/internal/domain"
	"shipment-tracking-service/internal/platform/obs"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher sends events to a topic exchange with routing key
// "shipment.<id>", so subscribers can bind per shipment or to "shipment.#".
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       Channel
	exchange string
	codec    Codec
}

// DialRabbitPublisher opens a connection and channel and declares the exchange.
func DialRabbitPublisher(url, exchange string, codec Codec) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	p, err := NewRabbitPublisherWithChannel(ch, exchange, codec)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func NewRabbitPublisherWithChannel(ch Channel, exchange string, codec Codec) (*RabbitPublisher, error) {
	if codec == nil {
		codec = jsonCodec{}
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
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &RabbitPublisher{ch: ch, exchange: exchange, codec: codec}, nil
}

func RoutingKey(shipmentID string) string { return "shipment." + shipmentID }

func (p *RabbitPublisher) Publish(ctx context.Context, e domain.LocationEvent) (err error) {
	defer obs.Time(ctx, "events.rabbitmq.Publish")(&err)

	body, err := p.codec.Encode(e)
	if err != nil {
		return err
	}
	err = p.ch.PublishWithContext(
		ctx,
		p.exchange,
		RoutingKey(e.ShipmentID),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  p.codec.ContentType(),
			DeliveryMode: amqp.Persistent,
			MessageId:    e.EventID,
			Type:         e.Type,
			Timestamp:    e.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event %s to rabbitmq: %w", e.EventID, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
