package domain

import (
	"fmt"
	"math"
)

// Mean Earth radius used by all great-circle computations.
const EarthRadiusKm = 6371.0

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// HaversineKm returns the great-circle distance between a and b.
func HaversineKm(a, b GeoPoint) (float64, error) {
	if err := validatePoints(a, b); err != nil {
		return 0, fmt.Errorf("haversine: %w", err)
	}
	return haversineKm(a, b), nil
}

// BearingDegrees returns the initial bearing from a to b in [0, 360).
func BearingDegrees(a, b GeoPoint) (float64, error) {
	if err := validatePoints(a, b); err != nil {
		return 0, fmt.Errorf("bearing: %w", err)
	}
	return bearingDegrees(a, b), nil
}

// PointToSegmentDistanceKm returns the closest-approach distance from p to the
// great-circle segment start->end.
func PointToSegmentDistanceKm(p, start, end GeoPoint) (float64, error) {
	if err := validatePoints(p, start, end); err != nil {
		return 0, fmt.Errorf("point to segment: %w", err)
	}
	return pointToSegmentKm(p, start, end), nil
}

// PointToRouteDistanceKm returns the minimum distance from p to any leg of route.
func PointToRouteDistanceKm(p GeoPoint, route Route) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, fmt.Errorf("point to route: %w", err)
	}
	if err := route.Validate(); err != nil {
		return 0, fmt.Errorf("point to route: %w", err)
	}
	d, _ := nearestLeg(p, route)
	return d, nil
}

func validatePoints(points ...GeoPoint) error {
	for _, p := range points {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func haversineKm(a, b GeoPoint) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push h just past 1 for antipodal points.
	h = clamp(h, 0, 1)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func bearingDegrees(a, b GeoPoint) float64 {
	phi1, phi2 := toRad(a.Lat), toRad(b.Lat)
	dLng := toRad(b.Lng - a.Lng)
	y := math.Sin(dLng) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLng)
	return math.Mod(toDeg(math.Atan2(y, x))+360, 360)
}

// pointToSegmentKm uses cross-track distance when the projection of p falls
// within the segment, and the nearer endpoint otherwise.
func pointToSegmentKm(p, start, end GeoPoint) float64 {
	d12 := haversineKm(start, end)
	d13 := haversineKm(start, p)
	if d12 == 0 || d13 == 0 {
		return d13
	}

	delta13 := d13 / EarthRadiusKm
	theta := toRad(bearingDegrees(start, p) - bearingDegrees(start, end))

	if math.Cos(theta) < 0 {
		return d13
	}

	xt := math.Asin(clamp(math.Sin(delta13)*math.Sin(theta), -1, 1))
	cosXt := math.Cos(xt)
	if cosXt == 0 {
		return math.Abs(xt) * EarthRadiusKm
	}
	along := math.Acos(clamp(math.Cos(delta13)/cosXt, -1, 1)) * EarthRadiusKm
	if along > d12 {
		return haversineKm(end, p)
	}

	return math.Abs(xt) * EarthRadiusKm
}

// nearestLeg returns the minimum distance to the route and the index i of the
// leg (waypoint i -> i+1) that attains it. Ties resolve to the earlier leg.
func nearestLeg(p GeoPoint, route Route) (float64, int) {
	best := math.Inf(1)
	bestIdx := 0
	for i := 0; i+1 < len(route); i++ {
		d := pointToSegmentKm(p, route[i].Point, route[i+1].Point)
		if d < best {
			best = d
			bestIdx = i
		}
	}
	return best, bestIdx
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
