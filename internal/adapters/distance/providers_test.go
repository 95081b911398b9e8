package distance

import (
	"context"
	"errors"
	"math"
	"shipment-tracking-service/internal/domain"
	"testing"
)

func TestGreatCircleProvider(t *testing.T) {
	from := domain.GeoPoint{Lat: 0, Lng: 0}
	to := domain.GeoPoint{Lat: 1, Lng: 0}
	base, _ := domain.HaversineKm(from, to)

	km, err := NewGreatCircleProvider(0).RemainingDistanceKm(context.Background(), from, to)
	if err != nil || math.Abs(km-base) > 1e-9 {
		t.Fatalf("km = %v, %v; want %v", km, err, base)
	}

	km, _ = NewGreatCircleProvider(1.2).RemainingDistanceKm(context.Background(), from, to)
	if math.Abs(km-base*1.2) > 1e-9 {
		t.Fatalf("km = %v, want %v", km, base*1.2)
	}

	if _, err := (&GreatCircleProvider{}).RemainingDistanceKm(context.Background(), domain.GeoPoint{Lat: 100}, to); !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Fatalf("err = %v, want ErrInvalidCoordinate", err)
	}
}

type mapCache struct {
	m      map[string]float64
	getErr error
	puts   int
	putErr error
}

func (c *mapCache) GetKm(ctx context.Context, from, to domain.GeoPoint) (float64, bool, error) {
	if c.getErr != nil {
		return 0, false, c.getErr
	}
	km, ok := c.m[from.String()+to.String()]
	return km, ok, nil
}

func (c *mapCache) PutKm(ctx context.Context, from, to domain.GeoPoint, km float64) error {
	c.puts++
	if c.putErr != nil {
		return c.putErr
	}
	c.m[from.String()+to.String()] = km
	return nil
}

func TestCachedProvider(t *testing.T) {
	stub := &StubProvider{Km: 42}
	cache := &mapCache{m: map[string]float64{}}
	p := NewCachedProvider(stub, cache)
	ctx := context.Background()
	from, to := domain.GeoPoint{Lat: 1, Lng: 1}, domain.GeoPoint{Lat: 2, Lng: 2}

	for i := 0; i < 3; i++ {
		km, err := p.RemainingDistanceKm(ctx, from, to)
		if err != nil || km != 42 {
			t.Fatalf("call %d: km = %v, err = %v", i, km, err)
		}
	}
	if stub.Calls() != 1 {
		t.Fatalf("provider calls = %d, want 1", stub.Calls())
	}
	if cache.puts != 1 {
		t.Fatalf("cache puts = %d, want 1", cache.puts)
	}
}

func TestCachedProviderDegradesOnCacheFailure(t *testing.T) {
	stub := &StubProvider{Km: 7}
	cache := &mapCache{m: map[string]float64{}, getErr: errors.New("down"), putErr: errors.New("down")}
	p := NewCachedProvider(stub, cache)

	km, err := p.RemainingDistanceKm(context.Background(), domain.GeoPoint{}, domain.GeoPoint{Lat: 1})
	if err != nil || km != 7 {
		t.Fatalf("km = %v, err = %v; want 7, nil", km, err)
	}
}

func TestCachedProviderPropagatesProviderError(t *testing.T) {
	boom := errors.New("routing service down")
	p := NewCachedProvider(&StubProvider{Err: boom}, &mapCache{m: map[string]float64{}})

	if _, err := p.RemainingDistanceKm(context.Background(), domain.GeoPoint{}, domain.GeoPoint{Lat: 1}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
