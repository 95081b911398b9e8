package domain

import (
	"fmt"
	"math"
)

// Immutable geographic point (WGS 84, degrees).
type GeoPoint struct {
	Lat float64
	Lng float64
}

// Validate reports ErrInvalidCoordinate when the point is outside lat [-90,90] / lng [-180,180].
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %v: %w", p.Lat, ErrInvalidCoordinate)
	}
	if math.IsNaN(p.Lng) || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("longitude %v: %w", p.Lng, ErrInvalidCoordinate)
	}
	return nil
}

// Return coordinates as [lng, lat] for external API compatibility.
func (p GeoPoint) CoordsToList() []float64 { return []float64{p.Lng, p.Lat} }

func (p GeoPoint) String() string { return fmt.Sprintf("(%.5f, %.5f)", p.Lat, p.Lng) }
