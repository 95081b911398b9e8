package distance

import (
	"context"
	"shipment-tracking-service/internal/domain"
	"sync/atomic"
	"time"
)

// StubProvider returns a fixed distance (or error) after an optional delay.
// It ignores ctx on purpose so callers can verify their own timeout handling.
type StubProvider struct {
	Km    float64
	Err   error
	Delay time.Duration

	calls atomic.Int64
}

func (p *StubProvider) RemainingDistanceKm(ctx context.Context, from, to domain.GeoPoint) (float64, error) {
	p.calls.Add(1)
	if p.Delay > 0 {
		time.Sleep(p.Delay)
	}
	if p.Err != nil {
		return 0, p.Err
	}
	return p.Km, nil
}

func (p *StubProvider) Calls() int64 { return p.calls.Load() }
