package distance

import (
	"context"
	"fmt"
	"shipment-tracking-service/internal/domain"
)

// GreatCircleProvider approximates navigable distance as haversine distance
// scaled by DetourFactor (1 when unset).
type GreatCircleProvider struct {
	DetourFactor float64
}

func NewGreatCircleProvider(detourFactor float64) *GreatCircleProvider {
	if detourFactor < 1 {
		detourFactor = 1
	}
	return &GreatCircleProvider{DetourFactor: detourFactor}
}

func (p *GreatCircleProvider) RemainingDistanceKm(ctx context.Context, from, to domain.GeoPoint) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	km, err := domain.HaversineKm(from, to)
	if err != nil {
		return 0, fmt.Errorf("great circle distance: %w", err)
	}
	factor := p.DetourFactor
	if factor < 1 {
		factor = 1
	}
	return km * factor, nil
}
