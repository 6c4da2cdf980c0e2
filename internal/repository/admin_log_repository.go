package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/order-service/internal/domain"
)

// AdminLogRepository persists audit trail entries.
type AdminLogRepository interface {
	Create(ctx context.Context, entry *domain.AdminLog) error
	ListRecent(ctx context.Context, limit, offset int) ([]domain.AdminLog, error)
}

type adminLogRepository struct {
	pool *pgxpool.Pool
}

// NewAdminLogRepository instantiates repository.
func NewAdminLogRepository(pool *pgxpool.Pool) AdminLogRepository {
	return &adminLogRepository{pool: pool}
}

func (r *adminLogRepository) Create(ctx context.Context, entry *domain.AdminLog) error {
	const query = `
        INSERT INTO admin_logs (admin_id, action, target_type, target_id, details, ip_address, user_agent)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.AdminID,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		entry.Details,
		entry.IPAddress,
		entry.UserAgent,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *adminLogRepository) ListRecent(ctx context.Context, limit, offset int) ([]domain.AdminLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
        SELECT id, admin_id, action, target_type, target_id, details, ip_address, user_agent, created_at
        FROM admin_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AdminLog
	for rows.Next() {
		var entry domain.AdminLog
		if err := rows.Scan(
			&entry.ID,
			&entry.AdminID,
			&entry.Action,
			&entry.TargetType,
			&entry.TargetID,
			&entry.Details,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
