package services

import (
	"context"
	"fmt"
	"shipment-tracking-service/internal/adapters/distance"
	"shipment-tracking-service/internal/domain"
	"sync"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

// Equatorial route; one degree of longitude is ~111.19 km.
func testRoute() domain.Route {
	return domain.Route{
		{Name: "Rotterdam", Point: domain.GeoPoint{Lat: 0, Lng: 0}},
		{Name: "Suez", Point: domain.GeoPoint{Lat: 0, Lng: 5}},
		{Name: "Singapore", Point: domain.GeoPoint{Lat: 0, Lng: 10}},
	}
}

func testShipment(t *testing.T) *domain.Shipment {
	t.Helper()
	s, err := domain.NewShipment("", "MSCU1234567", testRoute(), t0)
	if err != nil {
		t.Fatalf("new shipment: %v", err)
	}
	return s
}

func testTracker(settings Settings) *Tracker {
	tr := NewTracker(distance.NewGreatCircleProvider(1), settings)
	var n int
	var mu sync.Mutex
	tr.Now = func() time.Time { return t0 }
	tr.NewEventID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("evt-%d", n)
	}
	return tr
}

func at(lat, lng float64, ts time.Time) domain.LocationSample {
	return domain.LocationSample{Point: domain.GeoPoint{Lat: lat, Lng: lng}, Timestamp: ts, Source: "ais"}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.LocationEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e domain.LocationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Events() []domain.LocationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.LocationEvent(nil), p.events...)
}

func floatPtr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }
