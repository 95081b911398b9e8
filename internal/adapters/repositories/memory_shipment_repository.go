package repositories

import (
	"context"
	"fmt"
	"shipment-tracking-service/internal/domain"
	"shipment-tracking-service/internal/ports"
	"slices"
	"sync"
)

// In-memory implementation of the ShipmentRepository port.
// Values are cloned on the way in and out so callers never share state.
type MemoryShipmentRepository struct {
	mu        sync.RWMutex
	shipments map[string]*domain.Shipment
}

func NewMemoryShipmentRepository() *MemoryShipmentRepository {
	return &MemoryShipmentRepository{shipments: make(map[string]*domain.Shipment)}
}

func (m *MemoryShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.shipments[s.ID]; ok {
		return fmt.Errorf("create shipment %s: %w", s.ID, domain.ErrShipmentExists)
	}
	for _, existing := range m.shipments {
		if existing.ContainerID == s.ContainerID {
			return fmt.Errorf("create shipment %s: container %s: %w", s.ID, s.ContainerID, domain.ErrShipmentExists)
		}
	}

	m.shipments[s.ID] = s.Clone()
	return nil
}

func (m *MemoryShipmentRepository) Get(ctx context.Context, id string) (*domain.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.shipments[id]
	if !ok {
		return nil, fmt.Errorf("get shipment %s: %w", id, domain.ErrShipmentNotFound)
	}
	return s.Clone(), nil
}

func (m *MemoryShipmentRepository) List(ctx context.Context, filter ports.ShipmentFilter) ([]*domain.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Shipment, 0, len(m.shipments))
	for _, s := range m.shipments {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, s.Clone())
	}

	slices.SortFunc(out, func(a, b *domain.Shipment) int {
		if filter.Sort == ports.SortETAAsc {
			if c := a.CurrentETA.Compare(b.CurrentETA); c != 0 {
				return c
			}
		} else if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Update performs a compare-and-swap on LastUpdateSeq.
func (m *MemoryShipmentRepository) Update(ctx context.Context, s *domain.Shipment, expectedSeq uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.shipments[s.ID]
	if !ok {
		return fmt.Errorf("update shipment %s: %w", s.ID, domain.ErrShipmentNotFound)
	}
	if current.LastUpdateSeq != expectedSeq {
		return fmt.Errorf("update shipment %s: stored seq %d, expected %d: %w",
			s.ID, current.LastUpdateSeq, expectedSeq, domain.ErrConflict)
	}
	if len(s.LocationHistory) < len(current.LocationHistory) {
		return fmt.Errorf("update shipment %s: history would shrink from %d to %d entries: %w",
			s.ID, len(current.LocationHistory), len(s.LocationHistory), domain.ErrConflict)
	}

	m.shipments[s.ID] = s.Clone()
	return nil
}

func (m *MemoryShipmentRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.shipments[id]; !ok {
		return fmt.Errorf("delete shipment %s: %w", id, domain.ErrShipmentNotFound)
	}
	delete(m.shipments, id)
	return nil
}
