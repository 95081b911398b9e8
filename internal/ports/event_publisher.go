package ports

import (
	"context"
	"shipment-tracking-service/internal/domain"
)

// Transport collaborator that delivers location events to subscribers of a shipment.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.LocationEvent) error
	Close() error
}
