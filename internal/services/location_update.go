package services

import (
	"context"
	"fmt"
	"shipment-tracking-service/internal/domain"
	"shipment-tracking-service/internal/ports"
	"time"

	"github.com/google/uuid"
)

const (
	EventLocationUpdated = "location-updated"
	EventStatusChanged   = "status-changed"
)

// Per-deployment tracking configuration.
type Settings struct {
	AvgSpeedKmh               float64
	ArrivalThresholdKm        float64
	RouteDeviationThresholdKm float64
	PortProximityThresholdKm  float64
	ProviderTimeout           time.Duration
	PinnedStatuses            []domain.Status
	Ports                     []domain.Port
}

func DefaultSettings() Settings {
	return Settings{
		AvgSpeedKmh:               DefaultAvgSpeedKmh,
		ArrivalThresholdKm:        DefaultArrivalThresholdKm,
		RouteDeviationThresholdKm: DefaultRouteDeviationThresholdKm,
		PortProximityThresholdKm:  DefaultPortProximityThresholdKm,
		ProviderTimeout:           5 * time.Second,
		PinnedStatuses:            DefaultPinnedStatuses(),
	}
}

// Tracker runs the location update transaction over in-memory values.
// It holds no shipment state and is safe for concurrent use.
type Tracker struct {
	ETA        *ETAEstimator
	Status     *StatusEngine
	Geofence   *GeofenceMonitor
	Now        func() time.Time
	NewEventID func() string
}

func NewTracker(provider ports.RouteDistanceProvider, settings Settings) *Tracker {
	return &Tracker{
		ETA: &ETAEstimator{
			Provider:    provider,
			AvgSpeedKmh: settings.AvgSpeedKmh,
			Timeout:     settings.ProviderTimeout,
		},
		Status: NewStatusEngine(settings.ArrivalThresholdKm, settings.PinnedStatuses),
		Geofence: &GeofenceMonitor{
			RouteDeviationThresholdKm: settings.RouteDeviationThresholdKm,
			PortProximityThresholdKm:  settings.PortProximityThresholdKm,
			Ports:                     settings.Ports,
		},
		Now:        time.Now,
		NewEventID: uuid.NewString,
	}
}

// Result of a committed-in-memory location update.
type LocationUpdate struct {
	Shipment *domain.Shipment
	Alerts   []domain.Alert
	Event    domain.LocationEvent
	Estimate ETAEstimate
	Decision StatusDecision
}

// ApplyLocationUpdate returns the shipment as it is after sample is applied.
//
// The input shipment is never modified: all work happens on a clone, so any
// failure leaves the caller's value exactly as it was. The ETA is measured
// from the sample timestamp so it always matches the committed location.
func (t *Tracker) ApplyLocationUpdate(
	ctx context.Context,
	s *domain.Shipment,
	sample domain.LocationSample,
) (*LocationUpdate, error) {
	if s == nil {
		return nil, fmt.Errorf("apply location update: shipment is nil: %w", domain.ErrInvalidShipment)
	}

	if s.Status.Terminal() {
		return nil, fmt.Errorf("apply location update: shipment %s is %s: %w", s.ID, s.Status, domain.ErrShipmentClosed)
	}

	if err := sample.Validate(); err != nil {
		return nil, fmt.Errorf("apply location update: shipment %s: %w", s.ID, err)
	}

	if err := checkOrdering(s, sample); err != nil {
		return nil, fmt.Errorf("apply location update: shipment %s: %w", s.ID, err)
	}

	next := s.Clone()

	// History records what was current, with motion derived from the real transition.
	next.LocationHistory = append(next.LocationHistory, withDerivedMotion(next.CurrentLocation, next.LocationHistory))
	next.CurrentLocation = sample.Clone()

	estimate, err := t.ETA.Estimate(ctx, sample.Point, next.Destination().Point, sample.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("apply location update: shipment %s: %w", s.ID, err)
	}
	next.CurrentETA = estimate.ETA

	decision, err := t.Status.Evaluate(next.Status, next.StatusSource, sample.Point, next.Route)
	if err != nil {
		return nil, fmt.Errorf("apply location update: shipment %s: %w", s.ID, err)
	}
	next.Status = decision.Status
	next.StatusSource = decision.Source

	alerts, err := t.Geofence.Check(sample.Point, next.Route)
	if err != nil {
		return nil, fmt.Errorf("apply location update: shipment %s: %w", s.ID, err)
	}

	next.Route = next.Route.ProjectLegs(sample.Point, sample.Timestamp, t.ETA.AvgSpeedKmh, decision.Arrived)
	next.LastUpdateSeq++
	next.UpdatedAt = t.now()

	return &LocationUpdate{
		Shipment: next,
		Alerts:   alerts,
		Event:    t.event(EventLocationUpdated, next, alerts),
		Estimate: estimate,
		Decision: decision,
	}, nil
}

// checkOrdering rejects reports older than the current location. An equal
// timestamp is accepted only against the creation location (seq 0), so a
// retried report is never applied twice.
func checkOrdering(s *domain.Shipment, sample domain.LocationSample) error {
	current := s.CurrentLocation.Timestamp
	if sample.Timestamp.Before(current) {
		return fmt.Errorf("report at %s is older than current %s: %w",
			sample.Timestamp.Format(time.RFC3339Nano), current.Format(time.RFC3339Nano), domain.ErrStaleUpdate)
	}
	if sample.Timestamp.Equal(current) && s.LastUpdateSeq > 0 {
		return fmt.Errorf("report at %s already applied (seq %d): %w",
			sample.Timestamp.Format(time.RFC3339Nano), s.LastUpdateSeq, domain.ErrStaleUpdate)
	}
	return nil
}

// withDerivedMotion fills speed and heading the reporter did not supply from
// the transition previous -> entry. Values stay nil when they cannot be derived.
func withDerivedMotion(entry domain.LocationSample, history []domain.LocationSample) domain.LocationSample {
	out := entry.Clone()
	if (out.SpeedKmh != nil && out.HeadingDeg != nil) || len(history) == 0 {
		return out
	}

	previous := history[len(history)-1]
	km, err := domain.HaversineKm(previous.Point, out.Point)
	if err != nil {
		return out
	}

	if out.SpeedKmh == nil {
		if hours := out.Timestamp.Sub(previous.Timestamp).Hours(); hours > 0 {
			speed := km / hours
			out.SpeedKmh = &speed
		}
	}

	if out.HeadingDeg == nil && km > 0 {
		if heading, err := domain.BearingDegrees(previous.Point, out.Point); err == nil {
			out.HeadingDeg = &heading
		}
	}

	return out
}

func (t *Tracker) event(kind string, s *domain.Shipment, alerts []domain.Alert) domain.LocationEvent {
	newID := t.NewEventID
	if newID == nil {
		newID = uuid.NewString
	}
	return domain.LocationEvent{
		EventID:         newID(),
		Type:            kind,
		ShipmentID:      s.ID,
		CurrentLocation: s.CurrentLocation.Clone(),
		Status:          s.Status,
		CurrentETA:      s.CurrentETA,
		Seq:             s.LastUpdateSeq,
		Alerts:          alerts,
		OccurredAt:      s.UpdatedAt,
	}
}

func (t *Tracker) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}
