package domain

import (
	"fmt"
	"strings"
	"time"
)

type LegStatus string

const (
	LegUpcoming LegStatus = "upcoming"
	LegCurrent  LegStatus = "current"
	LegPassed   LegStatus = "passed"
)

// Represents a named, ordered stop on a shipment's planned route.
type Waypoint struct {
	Name             string
	Point            GeoPoint
	LegStatus        LegStatus
	EstimatedArrival *time.Time
}

// Route is the ordered planned path; the first waypoint is the origin and the
// last is the destination. Order is meaningful and never rearranged.
type Route []Waypoint

// Validate checks the route has at least two named waypoints with valid coordinates.
func (r Route) Validate() error {
	if len(r) < 2 {
		return fmt.Errorf("route has %d waypoints, need at least 2: %w", len(r), ErrInvalidRoute)
	}
	for i, wp := range r {
		if strings.TrimSpace(wp.Name) == "" {
			return fmt.Errorf("waypoint %d: name is required: %w", i+1, ErrInvalidRoute)
		}
		if err := wp.Point.Validate(); err != nil {
			return fmt.Errorf("waypoint %d: %w", i+1, err)
		}
	}
	return nil
}

func (r Route) Origin() Waypoint { return r[0] }

func (r Route) Destination() Waypoint { return r[len(r)-1] }

// Clone returns a deep copy so callers never share waypoint state.
func (r Route) Clone() Route {
	if r == nil {
		return nil
	}
	out := make(Route, len(r))
	for i, wp := range r {
		out[i] = wp
		if wp.EstimatedArrival != nil {
			t := *wp.EstimatedArrival
			out[i].EstimatedArrival = &t
		}
	}
	return out
}

// ProjectLegs relabels waypoints relative to p: waypoints up to the start of the
// nearest leg are passed, the end of that leg is current, the rest upcoming.
// Each non-passed waypoint gets an arrival estimate from the cumulative
// along-route great-circle distance at speedKmh. When arrived is true every
// waypoint is marked passed.
func (r Route) ProjectLegs(p GeoPoint, now time.Time, speedKmh float64, arrived bool) Route {
	out := r.Clone()
	if len(out) < 2 {
		return out
	}

	if arrived {
		for i := range out {
			out[i].LegStatus = LegPassed
			out[i].EstimatedArrival = nil
		}
		return out
	}

	_, leg := nearestLeg(p, out)
	next := leg + 1

	cumulativeKm := 0.0
	prev := p
	for i := range out {
		if i < next {
			out[i].LegStatus = LegPassed
			out[i].EstimatedArrival = nil
			continue
		}

		if i == next {
			out[i].LegStatus = LegCurrent
		} else {
			out[i].LegStatus = LegUpcoming
		}

		cumulativeKm += haversineKm(prev, out[i].Point)
		prev = out[i].Point
		if speedKmh > 0 {
			eta := now.Add(HoursToDuration(cumulativeKm / speedKmh))
			out[i].EstimatedArrival = &eta
		}
	}

	return out
}

// HoursToDuration converts fractional hours to a nanosecond-precision duration.
func HoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
