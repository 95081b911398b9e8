package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"shipment-tracking-service/internal/domain"
	"shipment-tracking-service/internal/platform/obs"
	"shipment-tracking-service/internal/ports"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// Postgres-backed implementation of the ShipmentRepository port.
// Location history lives in an append-only side table keyed by position.
type PostgresShipmentRepository struct{ DB *sql.DB }

func NewPostgresShipmentRepository(db *sql.DB) *PostgresShipmentRepository {
	return &PostgresShipmentRepository{DB: db}
}

func (p *PostgresShipmentRepository) Create(ctx context.Context, s *domain.Shipment) (err error) {
	defer obs.Time(ctx, "repository.shipments.Create")(&err)

	if p.DB == nil {
		return errors.New("postgres shipment repository: DB is nil")
	}

	route, loc, err := encodeColumns(s)
	if err != nil {
		return fmt.Errorf("create shipment %s: %w", s.ID, err)
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create shipment %s: begin tx: %w", s.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	q := `
	INSERT INTO shipments (
		shipment_id, container_id, cargo, weight_kg, status, status_source,
		route, current_location, current_eta, last_update_seq, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err = tx.ExecContext(ctx, q,
		s.ID, s.ContainerID, s.Cargo, s.WeightKg, string(s.Status), string(s.StatusSource),
		route, loc, s.CurrentETA, int64(s.LastUpdateSeq), s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("create shipment %s: %w", s.ID, domain.ErrShipmentExists)
		}
		return fmt.Errorf("create shipment %s: insert shipments row: %w", s.ID, err)
	}

	if err := appendHistory(ctx, tx, s.ID, 0, s.LocationHistory); err != nil {
		return fmt.Errorf("create shipment %s: %w", s.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create shipment %s: commit tx: %w", s.ID, err)
	}
	return nil
}

func (p *PostgresShipmentRepository) Get(ctx context.Context, id string) (_ *domain.Shipment, err error) {
	defer obs.Time(ctx, "repository.shipments.Get")(&err)

	if p.DB == nil {
		return nil, errors.New("postgres shipment repository: DB is nil")
	}

	q := selectShipmentColumns + `
	FROM shipments
	WHERE shipment_id = $1;
	`
	s, err := scanShipment(p.DB.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get shipment %s: %w", id, domain.ErrShipmentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get shipment %s: %w", id, err)
	}

	history, err := p.loadHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get shipment %s: %w", id, err)
	}
	s.LocationHistory = history

	return s, nil
}

// List returns shipments without their location history.
func (p *PostgresShipmentRepository) List(ctx context.Context, filter ports.ShipmentFilter) (_ []*domain.Shipment, err error) {
	defer obs.Time(ctx, "repository.shipments.List")(&err)

	if p.DB == nil {
		return nil, errors.New("postgres shipment repository: DB is nil")
	}

	var b strings.Builder
	b.WriteString(selectShipmentColumns)
	b.WriteString("\n\tFROM shipments\n")

	args := make([]any, 0, 2)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		fmt.Fprintf(&b, "\tWHERE status = $%d\n", len(args))
	}
	if filter.Sort == ports.SortETAAsc {
		b.WriteString("\tORDER BY current_eta ASC, shipment_id ASC\n")
	} else {
		b.WriteString("\tORDER BY created_at DESC, shipment_id ASC\n")
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, "\tLIMIT $%d\n", len(args))
	}

	rows, err := p.DB.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list shipments: query shipments table: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Shipment, 0, 64)
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("list shipments: %w", err)
		}
		s.LocationHistory = []domain.LocationSample{}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list shipments: row iteration: %w", err)
	}

	return out, nil
}

// Update writes s only if the stored LastUpdateSeq still equals expectedSeq.
// History entries beyond the stored count are appended; existing ones are never rewritten.
func (p *PostgresShipmentRepository) Update(ctx context.Context, s *domain.Shipment, expectedSeq uint64) (err error) {
	defer obs.Time(ctx, "repository.shipments.Update")(&err)

	if p.DB == nil {
		return errors.New("postgres shipment repository: DB is nil")
	}

	route, loc, err := encodeColumns(s)
	if err != nil {
		return fmt.Errorf("update shipment %s: %w", s.ID, err)
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update shipment %s: begin tx: %w", s.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	q := `
	UPDATE shipments
	SET cargo = $3,
		weight_kg = $4,
		status = $5,
		status_source = $6,
		route = $7,
		current_location = $8,
		current_eta = $9,
		last_update_seq = $10,
		updated_at = $11
	WHERE shipment_id = $1
		AND last_update_seq = $2;
	`
	res, err := tx.ExecContext(ctx, q,
		s.ID, int64(expectedSeq), s.Cargo, s.WeightKg, string(s.Status), string(s.StatusSource),
		route, loc, s.CurrentETA, int64(s.LastUpdateSeq), s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update shipment %s: update shipments row: %w", s.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update shipment %s: rows affected: %w", s.ID, err)
	}
	if n == 0 {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM shipments WHERE shipment_id = $1);`, s.ID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("update shipment %s: check existence: %w", s.ID, err)
		}
		if !exists {
			return fmt.Errorf("update shipment %s: %w", s.ID, domain.ErrShipmentNotFound)
		}
		return fmt.Errorf("update shipment %s: expected seq %d: %w", s.ID, expectedSeq, domain.ErrConflict)
	}

	var stored int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM location_history WHERE shipment_id = $1;`, s.ID,
	).Scan(&stored)
	if err != nil {
		return fmt.Errorf("update shipment %s: count history: %w", s.ID, err)
	}
	if stored > len(s.LocationHistory) {
		return fmt.Errorf("update shipment %s: history would shrink from %d to %d entries: %w",
			s.ID, stored, len(s.LocationHistory), domain.ErrConflict)
	}
	if err := appendHistory(ctx, tx, s.ID, stored, s.LocationHistory[stored:]); err != nil {
		return fmt.Errorf("update shipment %s: %w", s.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update shipment %s: commit tx: %w", s.ID, err)
	}
	return nil
}

func (p *PostgresShipmentRepository) Delete(ctx context.Context, id string) (err error) {
	defer obs.Time(ctx, "repository.shipments.Delete")(&err)

	if p.DB == nil {
		return errors.New("postgres shipment repository: DB is nil")
	}

	res, err := p.DB.ExecContext(ctx, `DELETE FROM shipments WHERE shipment_id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete shipment %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete shipment %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete shipment %s: %w", id, domain.ErrShipmentNotFound)
	}
	return nil
}

func (p *PostgresShipmentRepository) loadHistory(ctx context.Context, id string) ([]domain.LocationSample, error) {
	q := `
	SELECT sample
	FROM location_history
	WHERE shipment_id = $1
	ORDER BY position;
	`
	rows, err := p.DB.QueryContext(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("query location_history table: %w", err)
	}
	defer rows.Close()

	history := make([]domain.LocationSample, 0, 16)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		var rec sampleRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode history sample: %w", err)
		}
		history = append(history, fromSampleRecord(rec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history row iteration: %w", err)
	}
	return history, nil
}

func appendHistory(ctx context.Context, tx *sql.Tx, id string, start int, samples []domain.LocationSample) error {
	if len(samples) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO location_history (shipment_id, position, sample)
	VALUES ($1, $2, $3);
	`)
	if err != nil {
		return fmt.Errorf("prepare history insert: %w", err)
	}
	defer stmt.Close()

	for i, sample := range samples {
		raw, err := json.Marshal(toSampleRecord(sample))
		if err != nil {
			return fmt.Errorf("encode history sample: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, id, start+i, raw); err != nil {
			return fmt.Errorf("insert history position %d: %w", start+i, err)
		}
	}
	return nil
}

const selectShipmentColumns = `
	SELECT
		shipment_id,
		container_id,
		cargo,
		weight_kg,
		status,
		status_source,
		route,
		current_location,
		current_eta,
		last_update_seq,
		created_at,
		updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShipment(row rowScanner) (*domain.Shipment, error) {
	var (
		s            domain.Shipment
		status       string
		statusSource string
		routeRaw     []byte
		locRaw       []byte
		seq          int64
		eta          time.Time
	)
	err := row.Scan(
		&s.ID, &s.ContainerID, &s.Cargo, &s.WeightKg, &status, &statusSource,
		&routeRaw, &locRaw, &eta, &seq, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	var route []waypointRecord
	if err := json.Unmarshal(routeRaw, &route); err != nil {
		return nil, fmt.Errorf("decode route: %w", err)
	}
	var loc sampleRecord
	if err := json.Unmarshal(locRaw, &loc); err != nil {
		return nil, fmt.Errorf("decode current location: %w", err)
	}

	s.Status = domain.Status(status)
	s.StatusSource = domain.StatusSource(statusSource)
	s.Route = fromRouteRecord(route)
	s.CurrentLocation = fromSampleRecord(loc)
	s.CurrentETA = eta.UTC()
	s.LastUpdateSeq = uint64(seq)
	return &s, nil
}

func encodeColumns(s *domain.Shipment) (route []byte, loc []byte, err error) {
	route, err = json.Marshal(toRouteRecord(s.Route))
	if err != nil {
		return nil, nil, fmt.Errorf("encode route: %w", err)
	}
	loc, err = json.Marshal(toSampleRecord(s.CurrentLocation))
	if err != nil {
		return nil, nil, fmt.Errorf("encode current location: %w", err)
	}
	return route, loc, nil
}
