package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewShipmentStartsPendingAtOrigin(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	s, err := NewShipment("", " msku1234567 ", testRoute(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.ID != "MSKU1234567" || s.ContainerID != "MSKU1234567" {
		t.Errorf("id = %q container = %q, want upper-cased container id", s.ID, s.ContainerID)
	}
	if s.Status != StatusPending || s.StatusSource != SourceAutomatic {
		t.Errorf("status = %q/%q, want pending/automatic", s.Status, s.StatusSource)
	}
	if s.CurrentLocation.Point != s.Origin().Point {
		t.Errorf("current location = %v, want origin %v", s.CurrentLocation.Point, s.Origin().Point)
	}
	if !s.CurrentLocation.Timestamp.Equal(now) {
		t.Errorf("current timestamp = %v, want %v", s.CurrentLocation.Timestamp, now)
	}
	if len(s.LocationHistory) != 0 || s.LastUpdateSeq != 0 {
		t.Errorf("new shipment should have empty history and seq 0")
	}
	if s.Route[0].LegStatus != LegPassed || s.Route[1].LegStatus != LegCurrent || s.Route[2].LegStatus != LegUpcoming {
		t.Errorf("unexpected initial leg statuses: %q, %q, %q", s.Route[0].LegStatus, s.Route[1].LegStatus, s.Route[2].LegStatus)
	}
}

func TestNewShipmentLegsMatchReportAtOrigin(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	s, err := NewShipment("", "MSKU1234567", testRoute(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	projected := testRoute().ProjectLegs(testRoute().Origin().Point, now, 0, false)
	for i := range projected {
		if s.Route[i].LegStatus != projected[i].LegStatus {
			t.Errorf("waypoint %d: status %q, projection at origin gives %q", i, s.Route[i].LegStatus, projected[i].LegStatus)
		}
	}
}

func TestNewShipmentRejectsInvalidInput(t *testing.T) {
	now := time.Now()

	if _, err := NewShipment("", "", testRoute(), now); !errors.Is(err, ErrInvalidShipment) {
		t.Errorf("empty container: err = %v, want ErrInvalidShipment", err)
	}
	if _, err := NewShipment("", "C1", testRoute()[:1], now); !errors.Is(err, ErrInvalidRoute) {
		t.Errorf("short route: err = %v, want ErrInvalidRoute", err)
	}
}

func TestShipmentCloneIsDeep(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	s, _ := NewShipment("S1", "C1", testRoute(), now)
	speed := 30.0
	s.LocationHistory = append(s.LocationHistory, LocationSample{Point: GeoPoint{Lat: 1, Lng: 1}, SpeedKmh: &speed})

	c := s.Clone()
	c.Route[0].Name = "changed"
	*c.LocationHistory[0].SpeedKmh = 99
	c.LocationHistory = append(c.LocationHistory, LocationSample{})

	if s.Route[0].Name == "changed" {
		t.Errorf("clone shares route with original")
	}
	if *s.LocationHistory[0].SpeedKmh != 30 {
		t.Errorf("clone shares history speed pointer with original")
	}
	if len(s.LocationHistory) != 1 {
		t.Errorf("clone shares history slice with original")
	}
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus(" In-Transit ")
	if err != nil || got != StatusInTransit {
		t.Fatalf("ParseStatus = %q, %v; want in-transit", got, err)
	}
	if _, err := ParseStatus("lost"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
	if !StatusDelivered.Terminal() || !StatusCancelled.Terminal() || StatusHeld.Terminal() {
		t.Fatalf("unexpected terminal classification")
	}
}

func TestLocationSampleValidate(t *testing.T) {
	ts := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	neg := -1.0
	wrap := 360.0

	tests := []struct {
		name   string
		sample LocationSample
		want   error
	}{
		{"valid", LocationSample{Point: GeoPoint{Lat: 1, Lng: 1}, Timestamp: ts}, nil},
		{"bad lat", LocationSample{Point: GeoPoint{Lat: 91, Lng: 1}, Timestamp: ts}, ErrInvalidCoordinate},
		{"zero time", LocationSample{Point: GeoPoint{Lat: 1, Lng: 1}}, ErrInvalidSample},
		{"negative speed", LocationSample{Point: GeoPoint{}, Timestamp: ts, SpeedKmh: &neg}, ErrInvalidSpeed},
		{"heading 360", LocationSample{Point: GeoPoint{}, Timestamp: ts, HeadingDeg: &wrap}, ErrInvalidSample},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sample.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
