package events

import (
	"encoding/json"
	"fmt"
	"shipment-tracking-service/internal/domain"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Wire layout of a published location event.
type eventMessage struct {
	EventID         string         `json:"eventId" msgpack:"eventId"`
	Type            string         `json:"type" msgpack:"type"`
	ShipmentID      string         `json:"shipmentId" msgpack:"shipmentId"`
	CurrentLocation sampleMessage  `json:"currentLocation" msgpack:"currentLocation"`
	Status          string         `json:"status" msgpack:"status"`
	CurrentETA      time.Time      `json:"currentEta" msgpack:"currentEta"`
	Seq             uint64         `json:"seq" msgpack:"seq"`
	Alerts          []alertMessage `json:"alerts" msgpack:"alerts"`
	OccurredAt      time.Time      `json:"occurredAt" msgpack:"occurredAt"`
}

type sampleMessage struct {
	Lat       float64   `json:"lat" msgpack:"lat"`
	Lng       float64   `json:"lng" msgpack:"lng"`
	Timestamp time.Time `json:"timestamp" msgpack:"timestamp"`
	Speed     *float64  `json:"speed,omitempty" msgpack:"speed,omitempty"`
	Heading   *float64  `json:"heading,omitempty" msgpack:"heading,omitempty"`
}

type alertMessage struct {
	Type     string `json:"type" msgpack:"type"`
	Message  string `json:"message" msgpack:"message"`
	Severity string `json:"severity" msgpack:"severity"`
}

func toMessage(e domain.LocationEvent) eventMessage {
	alerts := make([]alertMessage, 0, len(e.Alerts))
	for _, a := range e.Alerts {
		alerts = append(alerts, alertMessage{
			Type:     string(a.Kind),
			Message:  a.Message,
			Severity: string(a.Severity),
		})
	}
	return eventMessage{
		EventID:    e.EventID,
		Type:       e.Type,
		ShipmentID: e.ShipmentID,
		CurrentLocation: sampleMessage{
			Lat:       e.CurrentLocation.Point.Lat,
			Lng:       e.CurrentLocation.Point.Lng,
			Timestamp: e.CurrentLocation.Timestamp,
			Speed:     e.CurrentLocation.SpeedKmh,
			Heading:   e.CurrentLocation.HeadingDeg,
		},
		Status:     string(e.Status),
		CurrentETA: e.CurrentETA,
		Seq:        e.Seq,
		Alerts:     alerts,
		OccurredAt: e.OccurredAt,
	}
}

// Codec serializes events for a transport.
type Codec interface {
	Encode(domain.LocationEvent) ([]byte, error)
	ContentType() string
}

type jsonCodec struct{}

func (jsonCodec) Encode(e domain.LocationEvent) ([]byte, error) {
	b, err := json.Marshal(toMessage(e))
	if err != nil {
		return nil, fmt.Errorf("encode event %s as json: %w", e.EventID, err)
	}
	return b, nil
}

func (jsonCodec) ContentType() string { return "application/json" }

type msgpackCodec struct{}

func (msgpackCodec) Encode(e domain.LocationEvent) ([]byte, error) {
	b, err := msgpack.Marshal(toMessage(e))
	if err != nil {
		return nil, fmt.Errorf("encode event %s as msgpack: %w", e.EventID, err)
	}
	return b, nil
}

func (msgpackCodec) ContentType() string { return "application/msgpack" }

// NewCodec returns the codec registered under name ("json" or "msgpack").
func NewCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return jsonCodec{}, nil
	case "msgpack":
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown event codec %q", name)
	}
}
