package events

import (
	"context"
	"fmt"
	"shipment-tracking-service/internal/domain"
	"shipment-tracking-service/internal/platform/obs"

	"github.com/segmentio/kafka-go"
)

// Writer is the subset of kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by shipment id so one shipment's events
// land on one partition in order.
type KafkaPublisher struct {
	writer Writer
	codec  Codec
}

func NewKafkaPublisher(broker, topic string, codec Codec) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return NewKafkaPublisherWithWriter(w, codec)
}

func NewKafkaPublisherWithWriter(w Writer, codec Codec) *KafkaPublisher {
	if codec == nil {
		codec = jsonCodec{}
	}
	return &KafkaPublisher{writer: w, codec: codec}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e domain.LocationEvent) (err error) {
	defer obs.Time(ctx, "events.kafka.Publish")(&err)

	body, err := p.codec.Encode(e)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(e.ShipmentID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(p.codec.ContentType())},
			{Key: "event-type", Value: []byte(e.Type)},
			{Key: "event-id", Value: []byte(e.EventID)},
		},
		Time: e.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event %s to kafka: %w", e.EventID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
