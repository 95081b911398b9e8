package ports

import (
	"context"
	"shipment-tracking-service/internal/domain"
)

// Contract for retrieving a navigable-path distance between two points.
// Implementations may call slow external services and must honour ctx.
type RouteDistanceProvider interface {
	// Return the navigable distance in kilometers from one point to another.
	RemainingDistanceKm(ctx context.Context, from, to domain.GeoPoint) (float64, error)
}

// Persistent or shared cache of provider results keyed by point pair.
type DistanceCache interface {
	// Return the cached distance and whether it was present.
	GetKm(ctx context.Context, from, to domain.GeoPoint) (float64, bool, error)
	PutKm(ctx context.Context, from, to domain.GeoPoint, km float64) error
}
