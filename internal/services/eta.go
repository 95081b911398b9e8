package services

import (
	"context"
	"fmt"
	"math"
	"shipment-tracking-service/internal/domain"
	"shipment-tracking-service/internal/platform/obs"
	"shipment-tracking-service/internal/ports"
	"time"
)

// Typical cargo-vessel cruising speed (~21.5 knots).
const DefaultAvgSpeedKmh = 40.0

type ETAEstimate struct {
	ETA        time.Time
	DistanceKm float64
	Hours      float64
}

type distanceResult struct {
	km  float64
	err error
}

// EstimateETA converts the provider's navigable distance from -> to into an
// arrival time at avgSpeedKmh, measured from now.
//
// The provider call is the only suspension point. It is abandoned as soon as
// ctx is done, even if the provider ignores cancellation; any provider failure
// is reported as ErrProviderUnavailable.
func EstimateETA(
	ctx context.Context,
	provider ports.RouteDistanceProvider,
	from domain.GeoPoint,
	to domain.GeoPoint,
	avgSpeedKmh float64,
	now time.Time,
) (_ ETAEstimate, err error) {
	defer obs.Time(ctx, "eta.Estimate")(&err)

	if math.IsNaN(avgSpeedKmh) || avgSpeedKmh <= 0 {
		return ETAEstimate{}, fmt.Errorf("estimate eta: average speed %v km/h: %w", avgSpeedKmh, domain.ErrInvalidSpeed)
	}
	if err := from.Validate(); err != nil {
		return ETAEstimate{}, fmt.Errorf("estimate eta: from: %w", err)
	}
	if err := to.Validate(); err != nil {
		return ETAEstimate{}, fmt.Errorf("estimate eta: to: %w", err)
	}
	if provider == nil {
		return ETAEstimate{}, fmt.Errorf("estimate eta: no provider configured: %w", domain.ErrProviderUnavailable)
	}

	start := time.Now()
	resultCh := make(chan distanceResult, 1)
	go func() {
		km, err := provider.RemainingDistanceKm(ctx, from, to)
		resultCh <- distanceResult{km: km, err: err}
	}()

	var res distanceResult
	select {
	case <-ctx.Done():
		return ETAEstimate{}, fmt.Errorf("estimate eta: %w: %w", domain.ErrProviderUnavailable, ctx.Err())
	case res = <-resultCh:
	}
	obs.ObserveProviderLatency(start)

	if res.err != nil {
		return ETAEstimate{}, fmt.Errorf("estimate eta: %w: %w", domain.ErrProviderUnavailable, res.err)
	}
	if math.IsNaN(res.km) || math.IsInf(res.km, 0) || res.km < 0 {
		return ETAEstimate{}, fmt.Errorf("estimate eta: provider returned distance %v: %w", res.km, domain.ErrProviderUnavailable)
	}

	hours := res.km / avgSpeedKmh
	return ETAEstimate{
		ETA:        now.Add(domain.HoursToDuration(hours)),
		DistanceKm: res.km,
		Hours:      hours,
	}, nil
}

// ETAEstimator binds a provider, speed and call timeout.
type ETAEstimator struct {
	Provider    ports.RouteDistanceProvider
	AvgSpeedKmh float64
	Timeout     time.Duration
}

func (e *ETAEstimator) Estimate(ctx context.Context, from, to domain.GeoPoint, now time.Time) (ETAEstimate, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	return EstimateETA(ctx, e.Provider, from, to, e.AvgSpeedKmh, now)
}
