package distance

import (
	"context"
	"fmt"
	"log/slog"
	"shipment-tracking-service/internal/domain"
	"shipment-tracking-service/internal/platform/obs"
	"shipment-tracking-service/internal/ports"
)

// CachedProvider checks a DistanceCache before delegating to next.
// Cache failures degrade to a direct lookup; they never fail the call.
type CachedProvider struct {
	next  ports.RouteDistanceProvider
	cache ports.DistanceCache
}

func NewCachedProvider(next ports.RouteDistanceProvider, cache ports.DistanceCache) *CachedProvider {
	return &CachedProvider{next: next, cache: cache}
}

func (c *CachedProvider) RemainingDistanceKm(ctx context.Context, from, to domain.GeoPoint) (_ float64, err error) {
	defer obs.Time(ctx, "distance.cached.RemainingDistanceKm")(&err)

	if c.cache != nil {
		km, ok, err := c.cache.GetKm(ctx, from, to)
		switch {
		case err != nil:
			obs.DistanceCacheLookups.WithLabelValues("error").Inc()
			slog.WarnContext(ctx, "distance cache read failed", "from", from.String(), "to", to.String(), "err", err)
		case ok:
			obs.DistanceCacheLookups.WithLabelValues("hit").Inc()
			return km, nil
		default:
			obs.DistanceCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	km, err := c.next.RemainingDistanceKm(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("cached provider: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.PutKm(ctx, from, to, km); err != nil {
			slog.WarnContext(ctx, "distance cache write failed", "err", err)
		}
	}

	return km, nil
}
