package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"shipment-tracking-service/internal/domain"
	"shipment-tracking-service/internal/platform/obs"
)

// SQLDistanceCache is a Postgres-backed cache for origin->destination navigable distances.
type SQLDistanceCache struct {
	DB *sql.DB
}

func NewSQLDistanceCache(db *sql.DB) *SQLDistanceCache {
	return &SQLDistanceCache{DB: db}
}

// Fetch the cached distance for one point pair.
func (s *SQLDistanceCache) GetKm(
	ctx context.Context,
	from domain.GeoPoint,
	to domain.GeoPoint,
) (_ float64, _ bool, err error) {
	defer obs.Time(ctx, "distance.cache.sql.GetKm")(&err)

	if s.DB == nil {
		return 0, false, errors.New("distance cache: db is nil")
	}

	q := `
	SELECT distance_km
	FROM distance_cache
	WHERE origin_key = $1
		AND destination_key = $2;
	`

	var km float64
	err = s.DB.QueryRowContext(ctx, q, pointKey(from), pointKey(to)).Scan(&km)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get distance cache: query distance_cache table: %w", err)
	}

	return km, true, nil
}

// Store one distance result, replacing any previous value.
func (s *SQLDistanceCache) PutKm(
	ctx context.Context,
	from domain.GeoPoint,
	to domain.GeoPoint,
	km float64,
) error {
	if s.DB == nil {
		return errors.New("distance cache: db is nil")
	}

	q := `
	INSERT INTO distance_cache (origin_key, destination_key, distance_km, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (origin_key, destination_key) DO UPDATE
	SET distance_km = EXCLUDED.distance_km,
		updated_at = EXCLUDED.updated_at;
	`

	if _, err := s.DB.ExecContext(ctx, q, pointKey(from), pointKey(to), km); err != nil {
		return fmt.Errorf("insert distance cache %s: %w", PairKey(from, to), err)
	}

	return nil
}
