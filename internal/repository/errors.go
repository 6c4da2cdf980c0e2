package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Typed sentinels for storage constraint violations. The unique indexes are the
// authoritative guard; application-level pre-checks are fast-path only.
var (
	ErrDuplicatePhone       = errors.New("phone already registered")
	ErrDuplicateAlipay      = errors.New("alipay account already registered")
	ErrDuplicateProductName = errors.New("product name already exists")
	ErrDuplicateTracking    = errors.New("tracking number already used")
	ErrRowReferenced        = errors.New("row referenced by existing orders")
)

// classifyConstraint maps Postgres integrity violations onto sentinel errors by
// constraint name. Unrecognized errors pass through unchanged.
func classifyConstraint(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		switch pgErr.ConstraintName {
		case "users_phone_key":
			return ErrDuplicatePhone
		case "users_alipay_account_key":
			return ErrDuplicateAlipay
		case "products_name_key":
			return ErrDuplicateProductName
		case "orders_tracking_number_key":
			return ErrDuplicateTracking
		}
	case pgerrcode.ForeignKeyViolation:
		return ErrRowReferenced
	}
	return err
}
