package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createShipmentsQuery := `
	CREATE TABLE IF NOT EXISTS shipments (
		shipment_id TEXT PRIMARY KEY,
		container_id TEXT NOT NULL UNIQUE,
		cargo TEXT NOT NULL,
		weight_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		status_source TEXT NOT NULL,
		route JSONB NOT NULL,
		current_location JSONB NOT NULL,
		current_eta TIMESTAMPTZ NOT NULL,
		last_update_seq BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	`

	createHistoryQuery := `
	CREATE TABLE IF NOT EXISTS location_history (
		shipment_id TEXT NOT NULL REFERENCES shipments(shipment_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		sample JSONB NOT NULL,
		PRIMARY KEY (shipment_id, position)
	);
	`

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS distance_cache (
		origin_key TEXT NOT NULL,
		destination_key TEXT NOT NULL,
		distance_km DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (origin_key, destination_key)
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_shipments_status_eta
	ON shipments(status, current_eta);
	`

	statements := []string{
		createShipmentsQuery,
		createHistoryQuery,
		createDistanceCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
