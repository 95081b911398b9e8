package services

import (
	"context"
	"errors"
	"math"
	"shipment-tracking-service/internal/adapters/distance"
	"shipment-tracking-service/internal/domain"
	"testing"
	"time"
)

func TestEstimateETA(t *testing.T) {
	provider := &distance.StubProvider{Km: 400}
	from := domain.GeoPoint{Lat: 0, Lng: 0}
	to := domain.GeoPoint{Lat: 0, Lng: 10}

	est, err := EstimateETA(context.Background(), provider, from, to, 40, t0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.Hours != 10 {
		t.Fatalf("expected 10h, got %v", est.Hours)
	}
	if want := t0.Add(10 * time.Hour); !est.ETA.Equal(want) {
		t.Fatalf("expected eta %s, got %s", want, est.ETA)
	}
}

func TestEstimateETAMonotonicInDistance(t *testing.T) {
	from := domain.GeoPoint{Lat: 0, Lng: 0}
	to := domain.GeoPoint{Lat: 0, Lng: 10}

	var prev time.Time
	for _, km := range []float64{0, 1, 100, 5000} {
		est, err := EstimateETA(context.Background(), &distance.StubProvider{Km: km}, from, to, 40, t0)
		if err != nil {
			t.Fatalf("km=%v: unexpected error: %v", km, err)
		}
		if km == 0 && !est.ETA.Equal(t0) {
			t.Fatalf("zero distance should give eta == now, got %s", est.ETA)
		}
		if !prev.IsZero() && !est.ETA.After(prev) {
			t.Fatalf("km=%v: eta %s not after %s", km, est.ETA, prev)
		}
		prev = est.ETA
	}
}

func TestEstimateETARejectsBadSpeed(t *testing.T) {
	provider := &distance.StubProvider{Km: 10}
	p := domain.GeoPoint{}
	for _, speed := range []float64{0, -5, math.NaN()} {
		_, err := EstimateETA(context.Background(), provider, p, p, speed, t0)
		if !errors.Is(err, domain.ErrInvalidSpeed) {
			t.Errorf("speed %v: expected ErrInvalidSpeed, got %v", speed, err)
		}
	}
	if provider.Calls() != 0 {
		t.Fatalf("provider should not be called, got %d calls", provider.Calls())
	}
}

func TestEstimateETAProviderFailure(t *testing.T) {
	boom := errors.New("upstream 502")
	_, err := EstimateETA(context.Background(), &distance.StubProvider{Err: boom},
		domain.GeoPoint{}, domain.GeoPoint{Lat: 1}, 40, t0)
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}

	_, err = EstimateETA(context.Background(), &distance.StubProvider{Km: math.Inf(1)},
		domain.GeoPoint{}, domain.GeoPoint{Lat: 1}, 40, t0)
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("infinite distance: expected ErrProviderUnavailable, got %v", err)
	}
}

func TestETAEstimatorTimeout(t *testing.T) {
	e := &ETAEstimator{
		Provider:    &distance.StubProvider{Km: 10, Delay: 500 * time.Millisecond},
		AvgSpeedKmh: 40,
		Timeout:     20 * time.Millisecond,
	}

	start := time.Now()
	_, err := e.Estimate(context.Background(), domain.GeoPoint{}, domain.GeoPoint{Lat: 1}, t0)
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded cause, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Fatalf("estimate did not give up on time: %s", elapsed)
	}
}
