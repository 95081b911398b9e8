package ports

import (
	"context"
	"shipment-tracking-service/internal/domain"
)

type SortOrder string

const (
	SortCreatedDesc SortOrder = "created"
	SortETAAsc      SortOrder = "eta"
)

type ShipmentFilter struct {
	Status domain.Status // empty matches every status
	Sort   SortOrder
	Limit  int
}

// Port: a boundary for storing Shipment aggregates.
type ShipmentRepository interface {
	// Insert a new shipment; ErrShipmentExists if the id is taken.
	Create(ctx context.Context, s *domain.Shipment) error
	// Return a copy of the stored shipment; ErrShipmentNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Shipment, error)
	List(ctx context.Context, filter ShipmentFilter) ([]*domain.Shipment, error)
	// Replace the stored shipment only if its LastUpdateSeq still equals
	// expectedSeq; otherwise return ErrConflict and write nothing.
	Update(ctx context.Context, s *domain.Shipment, expectedSeq uint64) error
	Delete(ctx context.Context, id string) error
}
