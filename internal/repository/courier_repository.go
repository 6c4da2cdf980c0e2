package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/order-service/internal/domain"
)

const courierColumns = `id, name, code, tracking_length, tracking_pattern, status, created_at, updated_at`

// CourierFilter captures listing parameters.
type CourierFilter struct {
	Status *domain.CatalogStatus
	Limit  int
	Offset int
}

// CourierRepository encapsulates courier persistence.
type CourierRepository interface {
	Create(ctx context.Context, courier *domain.Courier) error
	Update(ctx context.Context, courier *domain.Courier) error
	GetByID(ctx context.Context, id int64) (*domain.Courier, error)
	List(ctx context.Context, filter CourierFilter) ([]domain.Courier, int64, error)
	ListActive(ctx context.Context) ([]domain.Courier, error)
	Delete(ctx context.Context, id int64) error
	Counts(ctx context.Context) (total, active int64, err error)
}

type courierRepository struct {
	pool *pgxpool.Pool
}

// NewCourierRepository instantiates repository.
func NewCourierRepository(pool *pgxpool.Pool) CourierRepository {
	return &courierRepository{pool: pool}
}

func (r *courierRepository) Create(ctx context.Context, courier *domain.Courier) error {
	const query = `
        INSERT INTO couriers (name, code, tracking_length, tracking_pattern, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		courier.Name,
		courier.Code,
		courier.TrackingLength,
		courier.TrackingPattern,
		courier.Status,
	).Scan(&courier.ID, &courier.CreatedAt, &courier.UpdatedAt)
	return classifyConstraint(err)
}

func (r *courierRepository) Update(ctx context.Context, courier *domain.Courier) error {
	const query = `
        UPDATE couriers SET name=$1, code=$2, tracking_length=$3, tracking_pattern=$4, status=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		courier.Name,
		courier.Code,
		courier.TrackingLength,
		courier.TrackingPattern,
		courier.Status,
		courier.ID,
	)
	if err != nil {
		return classifyConstraint(err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *courierRepository) GetByID(ctx context.Context, id int64) (*domain.Courier, error) {
	var courier domain.Courier
	if err := r.pool.QueryRow(ctx,
		`SELECT `+courierColumns+` FROM couriers WHERE id=$1`, id,
	).Scan(
		&courier.ID,
		&courier.Name,
		&courier.Code,
		&courier.TrackingLength,
		&courier.TrackingPattern,
		&courier.Status,
		&courier.CreatedAt,
		&courier.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &courier, nil
}

func (r *courierRepository) List(ctx context.Context, filter CourierFilter) ([]domain.Courier, int64, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}

	where := strings.Join(clauses, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM couriers WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM couriers WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		courierColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result, err := scanCouriers(rows)
	return result, total, err
}

func (r *courierRepository) ListActive(ctx context.Context) ([]domain.Courier, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+courierColumns+` FROM couriers WHERE status='active' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCouriers(rows)
}

func scanCouriers(rows pgx.Rows) ([]domain.Courier, error) {
	var result []domain.Courier
	for rows.Next() {
		var courier domain.Courier
		if err := rows.Scan(
			&courier.ID,
			&courier.Name,
			&courier.Code,
			&courier.TrackingLength,
			&courier.TrackingPattern,
			&courier.Status,
			&courier.CreatedAt,
			&courier.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, courier)
	}
	return result, rows.Err()
}

func (r *courierRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM couriers WHERE id=$1`, id)
	if err != nil {
		return classifyConstraint(err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *courierRepository) Counts(ctx context.Context) (int64, int64, error) {
	var total, active int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(CASE WHEN status='active' THEN 1 END) FROM couriers`,
	).Scan(&total, &active)
	return total, active, err
}
