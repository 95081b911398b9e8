package events

import (
	"context"
	"log/slog"
	"shipment-tracking-service/internal/domain"
)

// LogPublisher writes events to the structured log. Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e domain.LocationEvent) error {
	alerts := make([]string, 0, len(e.Alerts))
	for _, a := range e.Alerts {
		alerts = append(alerts, string(a.Kind))
	}
	p.logger.InfoContext(ctx, "shipment event",
		"event_id", e.EventID,
		"type", e.Type,
		"shipment_id", e.ShipmentID,
		"status", e.Status,
		"seq", e.Seq,
		"eta", e.CurrentETA,
		"location", e.CurrentLocation.Point.String(),
		"alerts", alerts,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
