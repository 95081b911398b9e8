package services

import (
	"fmt"
	"math"
	"shipment-tracking-service/internal/domain"
)

const (
	DefaultRouteDeviationThresholdKm = 50.0
	DefaultPortProximityThresholdKm  = 10.0
)

// CheckRouteDeviation returns a high-severity alert when loc is more than
// thresholdKm from every leg of route, nil otherwise.
func CheckRouteDeviation(loc domain.GeoPoint, route domain.Route, thresholdKm float64) (*domain.Alert, error) {
	d, err := domain.PointToRouteDistanceKm(loc, route)
	if err != nil {
		return nil, fmt.Errorf("check route deviation: %w", err)
	}
	if d <= thresholdKm {
		return nil, nil
	}

	return &domain.Alert{
		Kind:     domain.AlertRouteDeviation,
		Message:  fmt.Sprintf("off route by %dkm", int(math.Round(d))),
		Severity: domain.SeverityHigh,
	}, nil
}

// CheckPortProximity returns one info alert per port closer than thresholdKm.
func CheckPortProximity(loc domain.GeoPoint, candidates []domain.Port, thresholdKm float64) ([]domain.Alert, error) {
	alerts := []domain.Alert{}
	for _, port := range candidates {
		d, err := domain.HaversineKm(loc, port.Point)
		if err != nil {
			return nil, fmt.Errorf("check port proximity: port %q: %w", port.Name, err)
		}
		if d < thresholdKm {
			alerts = append(alerts, domain.Alert{
				Kind:     domain.AlertPortProximity,
				Message:  fmt.Sprintf("approaching %s (%dkm)", port.Name, int(math.Round(d))),
				Severity: domain.SeverityInfo,
			})
		}
	}
	return alerts, nil
}

// GeofenceMonitor runs both checks. Port candidates are every route waypoint
// after the origin plus the configured port catalog.
type GeofenceMonitor struct {
	RouteDeviationThresholdKm float64
	PortProximityThresholdKm  float64
	Ports                     []domain.Port
}

func (m *GeofenceMonitor) Check(loc domain.GeoPoint, route domain.Route) ([]domain.Alert, error) {
	alerts := []domain.Alert{}

	deviation, err := CheckRouteDeviation(loc, route, m.RouteDeviationThresholdKm)
	if err != nil {
		return nil, err
	}
	if deviation != nil {
		alerts = append(alerts, *deviation)
	}

	candidates := make([]domain.Port, 0, len(route)-1+len(m.Ports))
	for _, wp := range route[1:] {
		candidates = append(candidates, domain.Port{Name: wp.Name, Point: wp.Point})
	}
	candidates = append(candidates, m.Ports...)

	proximity, err := CheckPortProximity(loc, candidates, m.PortProximityThresholdKm)
	if err != nil {
		return nil, err
	}

	return append(alerts, proximity...), nil
}
