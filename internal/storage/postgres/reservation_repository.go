package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/B24023/yoyakusys/internal/domain"
)

// ReservationRepository stores the authoritative reservation ledger in
// Postgres. Overlap safety is enforced twice: the service re-checks inside a
// transaction holding the resource row lock, and the reservations table
// carries an exclusion constraint on (resource_id, [start_at, end_at)).
type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetResourceForUpdate locks the resource row for the duration of the
// transaction, serializing concurrent appends for the same resource.
func (r *ReservationRepository) GetResourceForUpdate(ctx context.Context, resourceID string) (domain.Resource, error) {
	const query = `SELECT id, name FROM resources WHERE id = $1 FOR UPDATE`
	var res domain.Resource
	err := r.queryRow(ctx, query, resourceID).Scan(&res.ID, &res.Name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Resource{}, domain.ErrResourceNotFound
		}
		return domain.Resource{}, fmt.Errorf("get resource: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) ListResources(ctx context.Context) ([]domain.Resource, error) {
	const query = `SELECT id, name FROM resources ORDER BY id`
	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var out []domain.Resource
	for rows.Next() {
		var res domain.Resource
		if err := rows.Scan(&res.ID, &res.Name); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return out, nil
}

// ListByResource returns the committed reservations for one resource in
// stable storage order (start, then commit instant).
func (r *ReservationRepository) ListByResource(ctx context.Context, resourceID string) ([]domain.Reservation, error) {
	const query = `
SELECT id, resource_id, start_at, end_at, created_at
FROM reservations
WHERE resource_id = $1
ORDER BY start_at, created_at`

	rows, err := r.query(ctx, query, resourceID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.ResourceID, &res.Start, &res.End, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, resource_id, start_at, end_at, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.exec(ctx, stmt, res.ID, res.ResourceID, res.Start, res.End, res.CreatedAt)
	if err != nil {
		if isExclusionViolation(err) {
			return domain.ErrConflict
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidInterval
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) UpsertResource(ctx context.Context, res domain.Resource) error {
	const stmt = `
INSERT INTO resources (id, name)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`

	if _, err := r.exec(ctx, stmt, res.ID, res.Name); err != nil {
		return fmt.Errorf("upsert resource: %w", err)
	}
	return nil
}

func (r *ReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReservationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *ReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
