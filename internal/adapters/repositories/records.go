package repositories

import (
	"shipment-tracking-service/internal/domain"
	"time"
)

// JSONB column layouts. Kept separate from domain types so the stored format
// stays stable when domain fields are renamed.

type pointRecord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type waypointRecord struct {
	Name             string      `json:"name"`
	Coordinates      pointRecord `json:"coordinates"`
	Status           string      `json:"status"`
	EstimatedArrival *time.Time  `json:"estimatedArrival,omitempty"`
}

type sampleRecord struct {
	Coordinates pointRecord `json:"coordinates"`
	Timestamp   time.Time   `json:"timestamp"`
	Speed       *float64    `json:"speed,omitempty"`
	Heading     *float64    `json:"heading,omitempty"`
	Source      string      `json:"source,omitempty"`
}

func toRouteRecord(r domain.Route) []waypointRecord {
	out := make([]waypointRecord, 0, len(r))
	for _, wp := range r {
		out = append(out, waypointRecord{
			Name:             wp.Name,
			Coordinates:      pointRecord{Lat: wp.Point.Lat, Lng: wp.Point.Lng},
			Status:           string(wp.LegStatus),
			EstimatedArrival: wp.EstimatedArrival,
		})
	}
	return out
}

func fromRouteRecord(recs []waypointRecord) domain.Route {
	out := make(domain.Route, 0, len(recs))
	for _, r := range recs {
		out = append(out, domain.Waypoint{
			Name:             r.Name,
			Point:            domain.GeoPoint{Lat: r.Coordinates.Lat, Lng: r.Coordinates.Lng},
			LegStatus:        domain.LegStatus(r.Status),
			EstimatedArrival: r.EstimatedArrival,
		})
	}
	return out
}

func toSampleRecord(s domain.LocationSample) sampleRecord {
	return sampleRecord{
		Coordinates: pointRecord{Lat: s.Point.Lat, Lng: s.Point.Lng},
		Timestamp:   s.Timestamp,
		Speed:       s.SpeedKmh,
		Heading:     s.HeadingDeg,
		Source:      s.Source,
	}
}

func fromSampleRecord(r sampleRecord) domain.LocationSample {
	return domain.LocationSample{
		Point:      domain.GeoPoint{Lat: r.Coordinates.Lat, Lng: r.Coordinates.Lng},
		Timestamp:  r.Timestamp,
		SpeedKmh:   r.Speed,
		HeadingDeg: r.Heading,
		Source:     r.Source,
	}
}
