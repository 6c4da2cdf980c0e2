package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus enumerates lifecycle states for orders.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ValidOrderStatus reports whether the value belongs to the status enum.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is the aggregate for a submitted purchase. Price is the product price
// snapshotted at creation; TotalAmount = Price * Quantity. TrackingNumber is
// globally unique across all orders of all users.
type Order struct {
	ID             int64
	UserID         int64
	ProductID      int64
	CourierID      int64
	Quantity       int
	Price          decimal.Decimal
	TotalAmount    decimal.Decimal
	TrackingNumber string
	Status         OrderStatus
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderDetail is an order joined with display fields from its product, courier
// and owning user.
type OrderDetail struct {
	Order
	ProductName        string
	ProductPrice       decimal.Decimal
	ProductDescription string
	CourierName        string
	UserName           string
	UserPhone          string
}
