package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/order-service/internal/domain"
)

// OrderFilter captures listing parameters. SortBy values outside the allowed
// column set fall back to created_at.
type OrderFilter struct {
	UserID      *int64
	Status      *domain.OrderStatus
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	SortBy      string
	SortDesc    bool
	Limit       int
	Offset      int
}

var orderSortColumns = map[string]string{
	"created_at":   "o.created_at",
	"updated_at":   "o.updated_at",
	"total_amount": "o.total_amount",
	"quantity":     "o.quantity",
	"status":       "o.status",
}

// OrderRepository encapsulates order persistence.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	Update(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Order, error)
	GetDetailByID(ctx context.Context, id int64) (*domain.OrderDetail, error)
	ListDetails(ctx context.Context, filter OrderFilter) ([]domain.OrderDetail, int64, error)
	Delete(ctx context.Context, id int64) error
	CountByProduct(ctx context.Context, productID int64) (int64, error)
	CountByCourier(ctx context.Context, courierID int64) (int64, error)
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error)
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	const query = `
        INSERT INTO orders (user_id, product_id, courier_id, quantity, price, total_amount, tracking_number, status, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		order.UserID,
		order.ProductID,
		order.CourierID,
		order.Quantity,
		order.Price,
		order.TotalAmount,
		order.TrackingNumber,
		order.Status,
		order.Notes,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	return classifyConstraint(err)
}

func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	const query = `
        UPDATE orders SET quantity=$1, total_amount=$2, tracking_number=$3, status=$4, notes=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		order.Quantity,
		order.TotalAmount,
		order.TrackingNumber,
		order.Status,
		order.Notes,
		order.ID,
	)
	if err != nil {
		return classifyConstraint(err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const orderSelect = `
        SELECT o.id, o.user_id, o.product_id, o.courier_id, o.quantity, o.price,
               o.total_amount, o.tracking_number, o.status, o.notes, o.created_at, o.updated_at
        FROM orders o`

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.fetchSingle(ctx, orderSelect+` WHERE o.id=$1`, id)
}

func (r *orderRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Order, error) {
	return r.fetchSingle(ctx, orderSelect+` WHERE o.tracking_number=$1`, trackingNumber)
}

func (r *orderRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Order, error) {
	var order domain.Order
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&order.ID,
		&order.UserID,
		&order.ProductID,
		&order.CourierID,
		&order.Quantity,
		&order.Price,
		&order.TotalAmount,
		&order.TrackingNumber,
		&order.Status,
		&order.Notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &order, nil
}

const orderDetailSelect = `
        SELECT o.id, o.user_id, o.product_id, o.courier_id, o.quantity, o.price,
               o.total_amount, o.tracking_number, o.status, o.notes, o.created_at, o.updated_at,
               p.name, p.price, p.description, c.name, u.real_name, u.phone
        FROM orders o
        LEFT JOIN products p ON o.product_id = p.id
        LEFT JOIN couriers c ON o.courier_id = c.id
        LEFT JOIN users u ON o.user_id = u.id`

func (r *orderRepository) GetDetailByID(ctx context.Context, id int64) (*domain.OrderDetail, error) {
	var detail domain.OrderDetail
	if err := scanOrderDetail(r.pool.QueryRow(ctx, orderDetailSelect+` WHERE o.id=$1`, id), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrderDetail(row rowScanner, detail *domain.OrderDetail) error {
	return row.Scan(
		&detail.ID,
		&detail.UserID,
		&detail.ProductID,
		&detail.CourierID,
		&detail.Quantity,
		&detail.Price,
		&detail.TotalAmount,
		&detail.TrackingNumber,
		&detail.Status,
		&detail.Notes,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.ProductName,
		&detail.ProductPrice,
		&detail.ProductDescription,
		&detail.CourierName,
		&detail.UserName,
		&detail.UserPhone,
	)
}

func (r *orderRepository) ListDetails(ctx context.Context, filter OrderFilter) ([]domain.OrderDetail, int64, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("o.user_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("o.status=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.TrimSpace(*filter.SearchTerm) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(p.name LIKE %s OR o.tracking_number LIKE %s)", placeholder, placeholder))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("o.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("o.created_at <= $%d", len(args)))
	}

	where := strings.Join(clauses, " AND ")

	countQuery := `SELECT COUNT(*) FROM orders o LEFT JOIN products p ON o.product_id = p.id WHERE ` + where
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol, ok := orderSortColumns[filter.SortBy]
	if !ok {
		sortCol = "o.created_at"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		orderDetailSelect, where, sortCol, direction, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.OrderDetail
	for rows.Next() {
		var detail domain.OrderDetail
		if err := scanOrderDetail(rows, &detail); err != nil {
			return nil, 0, err
		}
		result = append(result, detail)
	}
	return result, total, rows.Err()
}

func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *orderRepository) CountByProduct(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE product_id=$1`, productID).Scan(&count)
	return count, err
}

func (r *orderRepository) CountByCourier(ctx context.Context, courierID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE courier_id=$1`, courierID).Scan(&count)
	return count, err
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.OrderStatus]int64)
	for rows.Next() {
		var status domain.OrderStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
