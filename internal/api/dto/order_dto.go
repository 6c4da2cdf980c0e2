package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/order-service/internal/domain"
)

// CreateOrderRequest payload.
type CreateOrderRequest struct {
	ProductID      int64  `json:"product_id"`
	CourierID      int64  `json:"courier_id"`
	Quantity       int    `json:"quantity"`
	TrackingNumber string `json:"tracking_number"`
	Notes          string `json:"notes"`
}

// AdminUpdateOrderRequest payload; absent fields are untouched.
type AdminUpdateOrderRequest struct {
	Status         *string `json:"status"`
	Quantity       *int    `json:"quantity"`
	TrackingNumber *string `json:"tracking_number"`
	Notes          *string `json:"notes"`
}

// OrderResponse is the enriched order representation with product, courier
// and owner context joined in.
type OrderResponse struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"user_id"`
	ProductID          int64           `json:"product_id"`
	CourierID          int64           `json:"courier_id"`
	Quantity           int             `json:"quantity"`
	Price              decimal.Decimal `json:"price"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	TrackingNumber     string          `json:"tracking_number"`
	Status             string          `json:"status"`
	Notes              string          `json:"notes,omitempty"`
	ProductName        string          `json:"product_name"`
	ProductDescription string          `json:"product_description,omitempty"`
	CourierName        string          `json:"courier_name"`
	UserName           string          `json:"user_name,omitempty"`
	UserPhone          string          `json:"user_phone,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// NewOrderResponse maps an order detail.
func NewOrderResponse(detail *domain.OrderDetail) OrderResponse {
	return OrderResponse{
		ID:                 detail.ID,
		UserID:             detail.UserID,
		ProductID:          detail.ProductID,
		CourierID:          detail.CourierID,
		Quantity:           detail.Quantity,
		Price:              detail.Price,
		TotalAmount:        detail.TotalAmount,
		TrackingNumber:     detail.TrackingNumber,
		Status:             string(detail.Status),
		Notes:              detail.Notes,
		ProductName:        detail.ProductName,
		ProductDescription: detail.ProductDescription,
		CourierName:        detail.CourierName,
		UserName:           detail.UserName,
		UserPhone:          detail.UserPhone,
		CreatedAt:          detail.CreatedAt,
		UpdatedAt:          detail.UpdatedAt,
	}
}

// NewOrderResponses maps a slice of order details.
func NewOrderResponses(details []domain.OrderDetail) []OrderResponse {
	result := make([]OrderResponse, 0, len(details))
	for i := range details {
		result = append(result, NewOrderResponse(&details[i]))
	}
	return result
}

// PageMeta describes pagination info for list responses.
type PageMeta struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
