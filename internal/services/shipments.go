package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"shipment-tracking-service/internal/domain"
	"shipment-tracking-service/internal/platform/obs"
	"shipment-tracking-service/internal/ports"
	"strings"
	"time"
)

const maxListLimit = 100

type CreateShipmentRequest struct {
	ShipmentID  string
	ContainerID string
	Cargo       string
	WeightKg    float64
	Route       domain.Route
}

// ETAView is the read model served for ETA queries.
type ETAView struct {
	ShipmentID      string
	CurrentETA      time.Time
	CurrentLocation domain.LocationSample
	Origin          string
	Destination     string
	Status          domain.Status
}

// ShipmentService coordinates the repository, the tracker and the event transport.
//
// Mutations of one shipment are serialized in-process with a per-id lock; the
// repository's compare-and-swap on LastUpdateSeq guards writers in other processes.
type ShipmentService struct {
	repo      ports.ShipmentRepository
	tracker   *Tracker
	publisher ports.EventPublisher
	locks     *keyedMutex
}

func NewShipmentService(repo ports.ShipmentRepository, tracker *Tracker, publisher ports.EventPublisher) *ShipmentService {
	return &ShipmentService{
		repo:      repo,
		tracker:   tracker,
		publisher: publisher,
		locks:     newKeyedMutex(),
	}
}

// Create validates the route, positions the shipment at its origin and
// computes the initial ETA.
func (s *ShipmentService) Create(ctx context.Context, req CreateShipmentRequest) (_ *domain.Shipment, err error) {
	defer obs.Time(ctx, "shipments.Create")(&err)

	now := s.tracker.now()
	shipment, err := domain.NewShipment(req.ShipmentID, req.ContainerID, req.Route, now)
	if err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	if cargo := strings.TrimSpace(req.Cargo); cargo != "" {
		shipment.Cargo = cargo
	}
	if req.WeightKg < 0 {
		return nil, fmt.Errorf("create shipment: weight %v: %w", req.WeightKg, domain.ErrInvalidShipment)
	}
	shipment.WeightKg = req.WeightKg

	estimate, err := s.tracker.ETA.Estimate(ctx, shipment.Origin().Point, shipment.Destination().Point, now)
	if err != nil {
		return nil, fmt.Errorf("create shipment %s: %w", shipment.ID, err)
	}
	shipment.CurrentETA = estimate.ETA

	if err := s.repo.Create(ctx, shipment); err != nil {
		return nil, fmt.Errorf("create shipment %s: %w", shipment.ID, err)
	}

	slog.InfoContext(ctx, "shipment created", "shipment_id", shipment.ID, "eta", shipment.CurrentETA, "distance_km", estimate.DistanceKm)
	return shipment, nil
}

func (s *ShipmentService) Get(ctx context.Context, id string) (*domain.Shipment, error) {
	shipment, err := s.repo.Get(ctx, normalizeID(id))
	if err != nil {
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	return shipment, nil
}

func (s *ShipmentService) List(ctx context.Context, filter ports.ShipmentFilter) ([]*domain.Shipment, error) {
	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Sort == "" {
		filter.Sort = ports.SortCreatedDesc
	}

	out, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	return out, nil
}

func (s *ShipmentService) GetETA(ctx context.Context, id string) (ETAView, error) {
	shipment, err := s.Get(ctx, id)
	if err != nil {
		return ETAView{}, err
	}
	return ETAView{
		ShipmentID:      shipment.ID,
		CurrentETA:      shipment.CurrentETA,
		CurrentLocation: shipment.CurrentLocation,
		Origin:          shipment.Origin().Name,
		Destination:     shipment.Destination().Name,
		Status:          shipment.Status,
	}, nil
}

// UpdateLocation applies one position report and commits it atomically.
// ErrConflict means another writer committed first; the caller may retry.
func (s *ShipmentService) UpdateLocation(
	ctx context.Context,
	id string,
	sample domain.LocationSample,
) (_ *LocationUpdate, err error) {
	defer obs.Time(ctx, "shipments.UpdateLocation")(&err)
	defer func() { obs.LocationUpdates.WithLabelValues(resultLabel(err)).Inc() }()

	id = normalizeID(id)
	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update location: %w", err)
	}

	update, err := s.tracker.ApplyLocationUpdate(ctx, current, sample)
	if err != nil {
		return nil, fmt.Errorf("update location: %w", err)
	}

	if err := s.repo.Update(ctx, update.Shipment, current.LastUpdateSeq); err != nil {
		return nil, fmt.Errorf("update location: shipment %s: %w", id, err)
	}

	for _, a := range update.Alerts {
		obs.AlertsRaised.WithLabelValues(string(a.Kind)).Inc()
	}
	if update.Shipment.Status != current.Status {
		obs.StatusTransitions.WithLabelValues(string(update.Shipment.Status), string(update.Shipment.StatusSource)).Inc()
	}

	slog.InfoContext(ctx, "location updated",
		"shipment_id", id,
		"seq", update.Shipment.LastUpdateSeq,
		"status", update.Shipment.Status,
		"eta", update.Shipment.CurrentETA,
		"alerts", len(update.Alerts),
	)

	s.publish(ctx, update.Event)
	return update, nil
}

// SetStatus pins an operator-chosen status on the shipment.
func (s *ShipmentService) SetStatus(ctx context.Context, id string, status domain.Status) (_ *domain.Shipment, err error) {
	defer obs.Time(ctx, "shipments.SetStatus")(&err)

	return s.mutate(ctx, id, func(next *domain.Shipment) error {
		if err := s.tracker.Status.Override(next.Status, status); err != nil {
			return err
		}
		next.Status = status
		next.StatusSource = domain.SourceManual
		return nil
	})
}

// UpdateDetails edits the cargo description and weight of an open shipment.
// Nil fields are left as they are.
func (s *ShipmentService) UpdateDetails(ctx context.Context, id string, cargo *string, weightKg *float64) (_ *domain.Shipment, err error) {
	defer obs.Time(ctx, "shipments.UpdateDetails")(&err)

	updated, err := s.mutate(ctx, id, func(next *domain.Shipment) error {
		if next.Status.Terminal() {
			return fmt.Errorf("update details: status %q: %w", next.Status, domain.ErrShipmentClosed)
		}

		changed := false
		if cargo != nil {
			c := strings.TrimSpace(*cargo)
			if c == "" {
				return fmt.Errorf("update details: cargo is empty: %w", domain.ErrInvalidShipment)
			}
			changed = changed || c != next.Cargo
			next.Cargo = c
		}
		if weightKg != nil {
			w := *weightKg
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				return fmt.Errorf("update details: weight %v: %w", w, domain.ErrInvalidShipment)
			}
			changed = changed || w != next.WeightKg
			next.WeightKg = w
		}

		if !changed {
			return errUnchanged
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "shipment details updated", "shipment_id", updated.ID, "cargo", updated.Cargo, "weight_kg", updated.WeightKg)
	return updated, nil
}

// ReleaseOverride drops a manual pin and lets position logic decide again.
func (s *ShipmentService) ReleaseOverride(ctx context.Context, id string) (_ *domain.Shipment, err error) {
	defer obs.Time(ctx, "shipments.ReleaseOverride")(&err)

	return s.mutate(ctx, id, func(next *domain.Shipment) error {
		if next.Status.Terminal() {
			return fmt.Errorf("release override: status %q: %w", next.Status, domain.ErrShipmentClosed)
		}
		if next.StatusSource != domain.SourceManual {
			return errUnchanged
		}

		// Never moved: back to pending rather than inferring motion.
		if len(next.LocationHistory) == 0 {
			next.Status = domain.StatusPending
			next.StatusSource = domain.SourceAutomatic
			return nil
		}

		decision, err := s.tracker.Status.Evaluate(next.Status, domain.SourceAutomatic, next.CurrentLocation.Point, next.Route)
		if err != nil {
			return err
		}
		next.Status = decision.Status
		next.StatusSource = decision.Source
		return nil
	})
}

func (s *ShipmentService) Delete(ctx context.Context, id string) error {
	id = normalizeID(id)
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete shipment: %w", err)
	}
	return nil
}

var errUnchanged = errors.New("unchanged")

// mutate runs fn on a clone of the stored shipment and commits it with a
// compare-and-swap on LastUpdateSeq.
func (s *ShipmentService) mutate(ctx context.Context, id string, fn func(next *domain.Shipment) error) (*domain.Shipment, error) {
	id = normalizeID(id)
	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mutate shipment: %w", err)
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, errUnchanged) {
			return current, nil
		}
		return nil, fmt.Errorf("mutate shipment %s: %w", id, err)
	}

	next.LastUpdateSeq++
	next.UpdatedAt = s.tracker.now()

	if err := s.repo.Update(ctx, next, current.LastUpdateSeq); err != nil {
		return nil, fmt.Errorf("mutate shipment %s: %w", id, err)
	}

	if next.Status != current.Status {
		obs.StatusTransitions.WithLabelValues(string(next.Status), string(next.StatusSource)).Inc()
		slog.InfoContext(ctx, "status changed", "shipment_id", id, "from", current.Status, "to", next.Status, "source", next.StatusSource)
		s.publish(ctx, s.tracker.event(EventStatusChanged, next, nil))
	}

	return next, nil
}

// publish hands the event to the transport. The update is already committed,
// so a transport failure is logged and counted rather than returned.
func (s *ShipmentService) publish(ctx context.Context, event domain.LocationEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		obs.EventPublishErrors.Inc()
		slog.ErrorContext(ctx, "publish event failed", "shipment_id", event.ShipmentID, "seq", event.Seq, "err", err)
	}
}

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrStaleUpdate):
		return "stale"
	case errors.Is(err, domain.ErrShipmentClosed):
		return "closed"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, domain.ErrShipmentNotFound):
		return "not_found"
	default:
		return "invalid"
	}
}
