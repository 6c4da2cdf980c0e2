package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogStatus represents lifecycle states for catalog rows.
type CatalogStatus string

const (
	CatalogStatusActive   CatalogStatus = "active"
	CatalogStatusInactive CatalogStatus = "inactive"
)

// ValidCatalogStatus reports whether the value belongs to the status enum.
func ValidCatalogStatus(s CatalogStatus) bool {
	return s == CatalogStatusActive || s == CatalogStatusInactive
}

// Product is a purchasable catalog item. Orders snapshot Price at creation
// time, so later edits never change existing orders.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Status      CatalogStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsActive reports whether the product may be ordered.
func (p *Product) IsActive() bool {
	return p.Status == CatalogStatusActive
}
