package domain

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusInTransit Status = "in-transit"
	StatusDelayed   Status = "delayed"
	StatusHeld      Status = "held"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var validStatuses = map[Status]struct{}{
	StatusPending:   {},
	StatusInTransit: {},
	StatusDelayed:   {},
	StatusHeld:      {},
	StatusDelivered: {},
	StatusCancelled: {},
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validStatuses[st]; !ok {
		return "", fmt.Errorf("parse status %q: %w", s, ErrInvalidStatus)
	}
	return st, nil
}

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// StatusSource records who set the current status.
type StatusSource string

const (
	SourceAutomatic StatusSource = "automatic"
	SourceManual    StatusSource = "manual"
)

// A single position report.
// SpeedKmh and HeadingDeg are nil when the reporter did not supply them.
type LocationSample struct {
	Point      GeoPoint
	Timestamp  time.Time
	SpeedKmh   *float64
	HeadingDeg *float64
	Source     string
}

// Validate checks coordinate range and the optional motion fields.
func (l LocationSample) Validate() error {
	if err := l.Point.Validate(); err != nil {
		return err
	}
	if l.Timestamp.IsZero() {
		return fmt.Errorf("location sample: timestamp is required: %w", ErrInvalidSample)
	}
	if l.SpeedKmh != nil && *l.SpeedKmh < 0 {
		return fmt.Errorf("location sample: speed %v: %w", *l.SpeedKmh, ErrInvalidSpeed)
	}
	if l.HeadingDeg != nil && (*l.HeadingDeg < 0 || *l.HeadingDeg >= 360) {
		return fmt.Errorf("location sample: heading %v out of [0,360): %w", *l.HeadingDeg, ErrInvalidSample)
	}
	return nil
}

// Clone returns a copy that shares no pointers with l.
func (l LocationSample) Clone() LocationSample {
	out := l
	if l.SpeedKmh != nil {
		v := *l.SpeedKmh
		out.SpeedKmh = &v
	}
	if l.HeadingDeg != nil {
		v := *l.HeadingDeg
		out.HeadingDeg = &v
	}
	return out
}

// Shipment aggregate. It exclusively owns its route, current location and history.
//
// LocationHistory is append-only; CurrentLocation is mirrored into it only when
// superseded. LastUpdateSeq increases by one per committed location update and
// guards against out-of-order writes.
type Shipment struct {
	ID              string
	ContainerID     string
	Cargo           string
	WeightKg        float64
	Route           Route
	CurrentLocation LocationSample
	CurrentETA      time.Time
	Status          Status
	StatusSource    StatusSource
	LocationHistory []LocationSample
	LastUpdateSeq   uint64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewShipment builds a pending shipment positioned at the route origin.
// CurrentETA is left for the caller to compute.
func NewShipment(id, containerID string, route Route, now time.Time) (*Shipment, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	containerID = strings.ToUpper(strings.TrimSpace(containerID))
	if containerID == "" {
		return nil, fmt.Errorf("new shipment: container id is required: %w", ErrInvalidShipment)
	}
	if id == "" {
		id = containerID
	}
	if err := route.Validate(); err != nil {
		return nil, fmt.Errorf("new shipment: %w", err)
	}

	// Labelled the same way a location report at the origin would be.
	r := route.ProjectLegs(route.Origin().Point, now, 0, false)

	return &Shipment{
		ID:          id,
		ContainerID: containerID,
		Cargo:       "General Cargo",
		Route:       r,
		CurrentLocation: LocationSample{
			Point:     r.Origin().Point,
			Timestamp: now,
			Source:    "origin",
		},
		Status:          StatusPending,
		StatusSource:    SourceAutomatic,
		LocationHistory: []LocationSample{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (s *Shipment) Origin() Waypoint { return s.Route.Origin() }

func (s *Shipment) Destination() Waypoint { return s.Route.Destination() }

// Clone returns a deep copy of the shipment.
func (s *Shipment) Clone() *Shipment {
	if s == nil {
		return nil
	}
	out := *s
	out.Route = s.Route.Clone()
	out.CurrentLocation = s.CurrentLocation.Clone()
	out.LocationHistory = make([]LocationSample, len(s.LocationHistory))
	for i, h := range s.LocationHistory {
		out.LocationHistory[i] = h.Clone()
	}
	return &out
}

type AlertKind string

const (
	AlertRouteDeviation AlertKind = "route_deviation"
	AlertPortProximity  AlertKind = "port_proximity"
)

type Severity string

const (
	SeverityInfo Severity = "info"
	SeverityHigh Severity = "high"
)

// Advisory output of a geofence check; never stored on the shipment.
type Alert struct {
	Kind     AlertKind
	Message  string
	Severity Severity
}

// A named point used as a port-proximity candidate.
type Port struct {
	Name  string
	Point GeoPoint
}

// LocationEvent is the payload handed to a transport collaborator after a
// committed location update.
type LocationEvent struct {
	EventID         string
	Type            string
	ShipmentID      string
	CurrentLocation LocationSample
	Status          Status
	CurrentETA      time.Time
	Seq             uint64
	Alerts          []Alert
	OccurredAt      time.Time
}
