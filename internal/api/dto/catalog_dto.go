package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/order-service/internal/domain"
)

// CreateProductRequest payload.
type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// UpdateProductRequest payload; absent fields are untouched.
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Status      *string          `json:"status"`
}

// ProductResponse representation.
type ProductResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewProductResponse maps a domain product.
func NewProductResponse(product *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Status:      string(product.Status),
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

// NewProductResponses maps a slice of domain products.
func NewProductResponses(products []domain.Product) []ProductResponse {
	result := make([]ProductResponse, 0, len(products))
	for i := range products {
		result = append(result, NewProductResponse(&products[i]))
	}
	return result
}

// CreateCourierRequest payload. A tracking_length of zero disables the exact
// length rule for the courier.
type CreateCourierRequest struct {
	Name            string `json:"name"`
	Code            string `json:"code"`
	TrackingLength  int    `json:"tracking_length"`
	TrackingPattern string `json:"tracking_pattern"`
}

// UpdateCourierRequest payload; absent fields are untouched.
type UpdateCourierRequest struct {
	Name            *string `json:"name"`
	Code            *string `json:"code"`
	TrackingLength  *int    `json:"tracking_length"`
	TrackingPattern *string `json:"tracking_pattern"`
	Status          *string `json:"status"`
}

// CourierResponse representation.
type CourierResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Code            string    `json:"code"`
	TrackingLength  int       `json:"tracking_length"`
	TrackingPattern string    `json:"tracking_pattern,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewCourierResponse maps a domain courier.
func NewCourierResponse(courier *domain.Courier) CourierResponse {
	return CourierResponse{
		ID:              courier.ID,
		Name:            courier.Name,
		Code:            courier.Code,
		TrackingLength:  courier.TrackingLength,
		TrackingPattern: courier.TrackingPattern,
		Status:          string(courier.Status),
		CreatedAt:       courier.CreatedAt,
		UpdatedAt:       courier.UpdatedAt,
	}
}

// NewCourierResponses maps a slice of domain couriers.
func NewCourierResponses(couriers []domain.Courier) []CourierResponse {
	result := make([]CourierResponse, 0, len(couriers))
	for i := range couriers {
		result = append(result, NewCourierResponse(&couriers[i]))
	}
	return result
}
