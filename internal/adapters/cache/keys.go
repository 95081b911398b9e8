package cache

import (
	"fmt"
	"shipment-tracking-service/internal/domain"
)

// Coordinates are rounded to 3 decimals (~110m) so nearby reports share entries.
func pointKey(p domain.GeoPoint) string {
	return fmt.Sprintf("%.3f,%.3f", p.Lat, p.Lng)
}

// PairKey is the directional cache key for from -> to.
func PairKey(from, to domain.GeoPoint) string {
	return pointKey(from) + "|" + pointKey(to)
}
