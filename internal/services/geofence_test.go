package services

import (
	"shipment-tracking-service/internal/domain"
	"testing"
)

func TestCheckRouteDeviation(t *testing.T) {
	alert, err := CheckRouteDeviation(domain.GeoPoint{Lat: 1, Lng: 5}, testRoute(), DefaultRouteDeviationThresholdKm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alert == nil {
		t.Fatal("expected a deviation alert")
	}
	if alert.Kind != domain.AlertRouteDeviation || alert.Severity != domain.SeverityHigh {
		t.Fatalf("unexpected alert %+v", alert)
	}
	if alert.Message != "off route by 111km" {
		t.Fatalf("unexpected message %q", alert.Message)
	}

	alert, err = CheckRouteDeviation(domain.GeoPoint{Lat: 0.3, Lng: 2.5}, testRoute(), DefaultRouteDeviationThresholdKm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alert != nil {
		t.Fatalf("33km off route should be tolerated, got %+v", alert)
	}
}

func TestCheckRouteDeviationInvalidRoute(t *testing.T) {
	_, err := CheckRouteDeviation(domain.GeoPoint{}, testRoute()[:1], DefaultRouteDeviationThresholdKm)
	if err == nil {
		t.Fatal("expected error for single-waypoint route")
	}
}

func TestCheckPortProximity(t *testing.T) {
	ports := []domain.Port{
		{Name: "Suez", Point: domain.GeoPoint{Lat: 0, Lng: 5}},
		{Name: "Colombo", Point: domain.GeoPoint{Lat: 6.93, Lng: 79.85}},
	}

	alerts, err := CheckPortProximity(domain.GeoPoint{Lat: 0.05, Lng: 5}, ports, DefaultPortProximityThresholdKm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Message != "approaching Suez (6km)" || alerts[0].Severity != domain.SeverityInfo {
		t.Fatalf("unexpected alert %+v", alerts[0])
	}

	alerts, err = CheckPortProximity(domain.GeoPoint{Lat: 1, Lng: 5}, ports, DefaultPortProximityThresholdKm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %+v", alerts)
	}
}

func TestGeofenceMonitorCheck(t *testing.T) {
	m := &GeofenceMonitor{
		RouteDeviationThresholdKm: DefaultRouteDeviationThresholdKm,
		PortProximityThresholdKm:  DefaultPortProximityThresholdKm,
		Ports:                     []domain.Port{{Name: "Waypoint Buoy", Point: domain.GeoPoint{Lat: 1.02, Lng: 5}}},
	}

	// Far off route but next to a catalog port: both alerts, deviation first.
	alerts, err := m.Check(domain.GeoPoint{Lat: 1, Lng: 5}, testRoute())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %+v", alerts)
	}
	if alerts[0].Kind != domain.AlertRouteDeviation || alerts[1].Kind != domain.AlertPortProximity {
		t.Fatalf("unexpected alert order %+v", alerts)
	}

	// The origin is never a proximity candidate.
	alerts, err = m.Check(domain.GeoPoint{Lat: 0, Lng: 0.01}, testRoute())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts near origin, got %+v", alerts)
	}
}
