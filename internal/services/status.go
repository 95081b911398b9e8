package services

import (
	"fmt"
	"shipment-tracking-service/internal/domain"
)

const DefaultArrivalThresholdKm = 20.0

// Statuses an operator may pin manually.
var manualStatuses = map[domain.Status]struct{}{
	domain.StatusHeld:      {},
	domain.StatusDelayed:   {},
	domain.StatusCancelled: {},
	domain.StatusDelivered: {},
}

// DefaultPinnedStatuses are the manual statuses that survive position updates.
func DefaultPinnedStatuses() []domain.Status {
	return []domain.Status{domain.StatusHeld, domain.StatusDelayed}
}

type StatusDecision struct {
	Status                  domain.Status
	Source                  domain.StatusSource
	Arrived                 bool
	DistanceToDestinationKm float64
}

// StatusEngine derives shipment status from position and respects operator pins.
type StatusEngine struct {
	ArrivalThresholdKm float64
	// Manually set statuses that automatic recomputation leaves in place.
	Pinned map[domain.Status]bool
}

func NewStatusEngine(arrivalThresholdKm float64, pinned []domain.Status) *StatusEngine {
	p := make(map[domain.Status]bool, len(pinned))
	for _, s := range pinned {
		p[s] = true
	}
	return &StatusEngine{ArrivalThresholdKm: arrivalThresholdKm, Pinned: p}
}

// Evaluate applies the automatic rule for a shipment at loc.
//
// Within ArrivalThresholdKm great-circle of the destination the shipment is
// delivered, otherwise in-transit. A pinned manual status is kept; Arrived is
// still reported so callers can surface it.
func (e *StatusEngine) Evaluate(
	current domain.Status,
	source domain.StatusSource,
	loc domain.GeoPoint,
	route domain.Route,
) (StatusDecision, error) {
	if current.Terminal() {
		return StatusDecision{}, fmt.Errorf("evaluate status: status %q: %w", current, domain.ErrShipmentClosed)
	}
	if err := route.Validate(); err != nil {
		return StatusDecision{}, fmt.Errorf("evaluate status: %w", err)
	}

	d, err := domain.HaversineKm(loc, route.Destination().Point)
	if err != nil {
		return StatusDecision{}, fmt.Errorf("evaluate status: %w", err)
	}

	decision := StatusDecision{
		Arrived:                 d < e.ArrivalThresholdKm,
		DistanceToDestinationKm: d,
	}

	switch {
	case source == domain.SourceManual && e.Pinned[current]:
		decision.Status = current
		decision.Source = domain.SourceManual
	case decision.Arrived:
		decision.Status = domain.StatusDelivered
		decision.Source = domain.SourceAutomatic
	default:
		decision.Status = domain.StatusInTransit
		decision.Source = domain.SourceAutomatic
	}

	return decision, nil
}

// Override validates an operator-requested transition from current to target.
func (e *StatusEngine) Override(current, target domain.Status) error {
	if current.Terminal() {
		return fmt.Errorf("override status: status %q: %w", current, domain.ErrShipmentClosed)
	}
	if _, ok := manualStatuses[target]; !ok {
		return fmt.Errorf("override status: %q cannot be set manually: %w", target, domain.ErrInvalidStatus)
	}
	return nil
}
